// Package llm talks to the hosted completion gateways that generate the
// actual writing assistance.
package llm

import (
	"context"
)

// Message is one conversation turn as sent over the wire.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client generates a completion for a system prompt plus message history.
type Client interface {
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}
