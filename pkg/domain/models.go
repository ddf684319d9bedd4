package domain

import (
	"time"
)

type QueryType string

const (
	QueryTypeProse       QueryType = "prose_unified"
	QueryTypePoetry      QueryType = "poetry_unified"
	QueryTypeNonfiction  QueryType = "nonfiction_unified"
	QueryTypeSongwriting QueryType = "songwriting_unified"
	QueryTypeStageScreen QueryType = "stage_screen_unified"
	QueryTypeContent     QueryType = "content_creation_unified"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation thread.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Subscription is the per-user entitlement record. A user may query iff
// IsAdmin || IsSubscribed || QueriesRemaining > 0.
type Subscription struct {
	UserID           string     `json:"user_id" db:"user_id"`
	IsSubscribed     bool       `json:"is_subscribed" db:"is_subscribed"`
	IsAdmin          bool       `json:"is_admin" db:"is_admin"`
	TrialEndDate     *time.Time `json:"trial_end_date,omitempty" db:"trial_end_date"`
	QueriesRemaining int        `json:"queries_remaining" db:"queries_remaining"`
	QueriesUsed      int        `json:"queries_used" db:"queries_used"`
	StripeCustomerID string     `json:"stripe_customer_id,omitempty" db:"stripe_customer_id"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// CanQuery reports whether the record entitles its user to issue a query.
func (s Subscription) CanQuery() bool {
	return s.IsAdmin || s.IsSubscribed || s.QueriesRemaining > 0
}

// Metered reports whether a successful query must consume quota.
func (s Subscription) Metered() bool {
	return !s.IsAdmin && !s.IsSubscribed
}

// Thread is one persisted conversation. QueryText and ResponseText hold the
// first turn pair for backward compatibility; History holds every turn.
type Thread struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	QueryType      QueryType `json:"query_type" db:"query_type"`
	QueryText      string    `json:"query_text" db:"query_text"`
	ResponseText   string    `json:"response_text" db:"response_text"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	IsThreadRoot   bool      `json:"is_thread_root" db:"is_thread_root"`
	History        []Turn    `json:"conversation_history" db:"conversation_history"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
