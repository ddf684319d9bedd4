// Package subscriptions persists per-user entitlement records: the
// subscription flag, trial quota counters, and the Stripe customer link.
package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/writestuff/writestuff-api/pkg/domain"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureTrial inserts a fresh trial record for the user unless one already
// exists. Sign-up seeds every account with trialQueries free queries.
func (s *Store) EnsureTrial(ctx context.Context, userID string, isAdmin bool, trialQueries int) error {
	if userID == "" {
		return ErrUserNotFound
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_subscriptions (user_id, is_subscribed, is_admin, queries_remaining, queries_used)
		VALUES (?, 0, ?, ?, 0)
		ON CONFLICT (user_id) DO NOTHING;
	`, userID, isAdmin, trialQueries)
	if err != nil {
		return fmt.Errorf("ensure trial record: %w", err)
	}
	return nil
}

// Get returns the entitlement record for a user.
func (s *Store) Get(ctx context.Context, userID string) (*domain.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, is_subscribed, is_admin, trial_end_date,
		       queries_remaining, queries_used, stripe_customer_id,
		       created_at, updated_at
		FROM user_subscriptions
		WHERE user_id = ?;
	`, userID)

	var (
		sub        domain.Subscription
		trialEnd   sql.NullTime
		customerID sql.NullString
	)
	err := row.Scan(
		&sub.UserID,
		&sub.IsSubscribed,
		&sub.IsAdmin,
		&trialEnd,
		&sub.QueriesRemaining,
		&sub.QueriesUsed,
		&customerID,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch subscription: %w", err)
	}

	if trialEnd.Valid {
		t := trialEnd.Time
		sub.TrialEndDate = &t
	}
	sub.StripeCustomerID = customerID.String

	return &sub, nil
}

// ConsumeQuery spends one unit of trial quota. The decrement is guarded so
// concurrent submissions can never push queries_remaining below zero.
func (s *Store) ConsumeQuery(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_subscriptions
		SET queries_remaining = queries_remaining - 1,
		    queries_used = queries_used + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND queries_remaining > 0;
	`, userID)
	if err != nil {
		return fmt.Errorf("consume query: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume query: %w", err)
	}
	if affected == 0 {
		if _, err := s.Get(ctx, userID); err != nil {
			return err
		}
		return ErrQuotaExhausted
	}
	return nil
}

// SetSubscribed flips the subscription flag for a user.
func (s *Store) SetSubscribed(ctx context.Context, userID string, subscribed bool) error {
	return s.update(ctx, `
		UPDATE user_subscriptions
		SET is_subscribed = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?;
	`, subscribed, userID)
}

// SetSubscribedByCustomer flips the subscription flag for the user owning a
// Stripe customer id. Used by the billing webhook.
func (s *Store) SetSubscribedByCustomer(ctx context.Context, customerID string, subscribed bool) error {
	return s.update(ctx, `
		UPDATE user_subscriptions
		SET is_subscribed = ?, updated_at = CURRENT_TIMESTAMP
		WHERE stripe_customer_id = ?;
	`, subscribed, customerID)
}

// SetStripeCustomerID stores the Stripe customer reference for a user.
func (s *Store) SetStripeCustomerID(ctx context.Context, userID, customerID string) error {
	return s.update(ctx, `
		UPDATE user_subscriptions
		SET stripe_customer_id = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?;
	`, customerID, userID)
}

// SetTrialEnd records when the checkout trial window closes. A nil end date
// clears it.
func (s *Store) SetTrialEnd(ctx context.Context, userID string, end *time.Time) error {
	var v interface{}
	if end != nil {
		v = end.UTC()
	}
	return s.update(ctx, `
		UPDATE user_subscriptions
		SET trial_end_date = ?, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?;
	`, v, userID)
}

func (s *Store) update(ctx context.Context, query string, args ...interface{}) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrQuotaExhausted = errors.New("query quota exhausted")
)
