// Package prompts stores the per-category system prompts sent with every
// completion request. The catalog is seeded by migration and editable by
// admins at runtime.
package prompts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/writestuff/writestuff-api/pkg/domain"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the system prompt for a query type.
func (s *Store) Get(ctx context.Context, queryType domain.QueryType) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, `
		SELECT prompt_text FROM system_prompts WHERE query_type = ?;
	`, queryType).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrPromptNotFound
	}
	if err != nil {
		return "", fmt.Errorf("fetch system prompt: %w", err)
	}
	return text, nil
}

// Set replaces the system prompt for a query type.
func (s *Store) Set(ctx context.Context, queryType domain.QueryType, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO system_prompts (query_type, prompt_text, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (query_type) DO UPDATE SET
			prompt_text = excluded.prompt_text,
			updated_at = CURRENT_TIMESTAMP;
	`, queryType, text)
	if err != nil {
		return fmt.Errorf("update system prompt: %w", err)
	}
	return nil
}

var ErrPromptNotFound = errors.New("system prompt not found")
