// Package auth provides request context helpers for verified token claims.
package auth

import (
	"context"
	"time"
)

type ctxKey int

const claimsKey ctxKey = iota

// Claims contains the verified token details we care about.
type Claims struct {
	Subject   string
	Email     string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	Raw       map[string]any
}

// WithClaims stores auth claims in a context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext retrieves auth claims stored by the middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
