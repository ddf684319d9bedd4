// Package migrations embeds the SQL schema migrations so the store can
// bring any database file up to date without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
