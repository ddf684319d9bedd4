// Package history persists conversation threads. Each thread is a single
// root row whose conversation_history column holds every turn in order.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
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

// CreateThread inserts the root row for a new conversation.
func (s *Store) CreateThread(ctx context.Context, t *domain.Thread) error {
	raw, err := json.Marshal(t.History)
	if err != nil {
		return fmt.Errorf("encode conversation history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_history (
			id, user_id, query_type, query_text, response_text,
			conversation_id, is_thread_root, conversation_history
		)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?);
	`, t.ID, t.UserID, t.QueryType, t.QueryText, t.ResponseText, t.ConversationID, string(raw))
	if err != nil {
		return fmt.Errorf("insert thread: %w", err)
	}
	return nil
}

// AppendTurns appends turns to the root row of an existing thread and
// returns the updated thread. The read-modify-write runs in one
// transaction so interleaved follow-ups cannot drop turns.
func (s *Store) AppendTurns(ctx context.Context, userID, conversationID string, turns []domain.Turn) (*domain.Thread, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	t, err := scanThread(tx.QueryRowContext(ctx, selectThread+`
		WHERE conversation_id = ? AND user_id = ? AND is_thread_root = 1;
	`, conversationID, userID))
	if err != nil {
		return nil, err
	}

	// Legacy rows predate the conversation_history column; rebuild the
	// first turn pair from the flat columns before appending.
	if len(t.History) == 0 {
		t.History = []domain.Turn{
			{Role: domain.RoleUser, Content: t.QueryText, Timestamp: t.CreatedAt},
			{Role: domain.RoleAssistant, Content: t.ResponseText, Timestamp: t.CreatedAt},
		}
	}
	t.History = append(t.History, turns...)

	raw, err := json.Marshal(t.History)
	if err != nil {
		return nil, fmt.Errorf("encode conversation history: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE query_history
		SET conversation_history = ?, updated_at = CURRENT_TIMESTAMP
		WHERE conversation_id = ? AND user_id = ? AND is_thread_root = 1;
	`, string(raw), conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("update thread: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return t, nil
}

// GetThread fetches the root row of a conversation owned by the user.
func (s *Store) GetThread(ctx context.Context, userID, conversationID string) (*domain.Thread, error) {
	return scanThread(s.db.QueryRowContext(ctx, selectThread+`
		WHERE conversation_id = ? AND user_id = ? AND is_thread_root = 1;
	`, conversationID, userID))
}

// ListByUser returns the user's threads, most recently touched first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]*domain.Thread, error) {
	rows, err := s.db.QueryContext(ctx, selectThread+`
		WHERE user_id = ? AND is_thread_root = 1
		ORDER BY updated_at DESC, created_at DESC;
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var out []*domain.Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	return out, nil
}

// DeleteThread removes a conversation owned by the user.
func (s *Store) DeleteThread(ctx context.Context, userID, conversationID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM query_history
		WHERE conversation_id = ? AND user_id = ?;
	`, conversationID, userID)
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	if affected == 0 {
		return ErrThreadNotFound
	}
	return nil
}

const selectThread = `
		SELECT id, user_id, query_type, query_text, response_text,
		       conversation_id, is_thread_root, conversation_history,
		       created_at, updated_at
		FROM query_history
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanThread(row rowScanner) (*domain.Thread, error) {
	var (
		t   domain.Thread
		raw string
	)
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.QueryType,
		&t.QueryText,
		&t.ResponseText,
		&t.ConversationID,
		&t.IsThreadRoot,
		&raw,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan thread: %w", err)
	}

	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &t.History); err != nil {
			return nil, fmt.Errorf("decode conversation history: %w", err)
		}
	}
	return &t, nil
}

var ErrThreadNotFound = errors.New("thread not found")
