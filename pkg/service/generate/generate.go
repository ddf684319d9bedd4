// Package generate orchestrates one writing-assistant query: entitlement
// check, prompt construction, gateway call, quota consumption, and thread
// persistence.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/writestuff/writestuff-api/pkg/domain"
	"github.com/writestuff/writestuff-api/pkg/prompt"
	"github.com/writestuff/writestuff-api/pkg/service/llm"
)

const saveWarning = "Content generated but may not be saved to history."

// SubscriptionStore is the slice of the entitlement store the service needs.
type SubscriptionStore interface {
	Get(ctx context.Context, userID string) (*domain.Subscription, error)
	ConsumeQuery(ctx context.Context, userID string) error
}

// HistoryStore persists conversation threads.
type HistoryStore interface {
	CreateThread(ctx context.Context, t *domain.Thread) error
	AppendTurns(ctx context.Context, userID, conversationID string, turns []domain.Turn) (*domain.Thread, error)
	GetThread(ctx context.Context, userID, conversationID string) (*domain.Thread, error)
}

// PromptStore resolves the system prompt for a writing category.
type PromptStore interface {
	Get(ctx context.Context, queryType domain.QueryType) (string, error)
}

type Service struct {
	gate    *Gate
	subs    SubscriptionStore
	hist    HistoryStore
	prompts PromptStore
	client  llm.Client

	now   func() time.Time
	newID func() string
}

func NewService(subs SubscriptionStore, hist HistoryStore, prompts PromptStore, client llm.Client) *Service {
	return &Service{
		gate:    NewGate(subs),
		subs:    subs,
		hist:    hist,
		prompts: prompts,
		client:  client,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Request starts a new conversation thread.
type Request struct {
	QueryType domain.QueryType  `json:"query_type"`
	FocusArea string            `json:"focus_area"`
	Fields    map[string]string `json:"fields"`
}

// Result is the outcome of a generation. Saved reports whether the thread
// write succeeded; generation and persistence are independent outcomes.
type Result struct {
	ConversationID string `json:"conversation_id"`
	Response       string `json:"response"`
	Saved          bool   `json:"saved"`
	Warning        string `json:"warning,omitempty"`
}

// Generate runs the full flow for the first query of a thread.
func (s *Service) Generate(ctx context.Context, userID string, req Request) (*Result, error) {
	userPrompt, err := prompt.Build(req.QueryType, req.FocusArea, req.Fields)
	if err != nil {
		return nil, err
	}

	decision, err := s.gate.Check(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("entitlement check: %w", err)
	}
	if !decision.Allowed {
		return nil, &DeniedError{Reason: decision.Reason}
	}

	system, err := s.prompts.Get(ctx, req.QueryType)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}

	responseText, err := s.client.Complete(ctx, system, []llm.Message{
		{Role: string(domain.RoleUser), Content: userPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	s.consume(ctx, userID, decision)

	now := s.now().UTC()
	thread := &domain.Thread{
		ID:             s.newID(),
		UserID:         userID,
		QueryType:      req.QueryType,
		QueryText:      userPrompt,
		ResponseText:   responseText,
		ConversationID: s.newID(),
		IsThreadRoot:   true,
		History: []domain.Turn{
			{Role: domain.RoleUser, Content: userPrompt, Timestamp: now},
			{Role: domain.RoleAssistant, Content: responseText, Timestamp: now},
		},
	}

	result := &Result{
		ConversationID: thread.ConversationID,
		Response:       responseText,
		Saved:          true,
	}
	if err := s.hist.CreateThread(ctx, thread); err != nil {
		log.Printf("history save failed for user %s: %v", userID, err)
		result.Saved = false
		result.Warning = saveWarning
	}

	return result, nil
}

// FollowUp continues an existing thread with one more question.
func (s *Service) FollowUp(ctx context.Context, userID, conversationID, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrQuestionRequired
	}

	thread, err := s.hist.GetThread(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	decision, err := s.gate.Check(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("entitlement check: %w", err)
	}
	if !decision.Allowed {
		return nil, &DeniedError{Reason: decision.Reason}
	}

	system, err := s.prompts.Get(ctx, thread.QueryType)
	if err != nil {
		return nil, fmt.Errorf("load system prompt: %w", err)
	}

	messages := make([]llm.Message, 0, len(thread.History)+1)
	for _, turn := range thread.History {
		messages = append(messages, llm.Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: string(domain.RoleUser), Content: question})

	responseText, err := s.client.Complete(ctx, system, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletionFailed, err)
	}

	s.consume(ctx, userID, decision)

	now := s.now().UTC()
	result := &Result{
		ConversationID: conversationID,
		Response:       responseText,
		Saved:          true,
	}
	_, err = s.hist.AppendTurns(ctx, userID, conversationID, []domain.Turn{
		{Role: domain.RoleUser, Content: question, Timestamp: now},
		{Role: domain.RoleAssistant, Content: responseText, Timestamp: now},
	})
	if err != nil {
		log.Printf("history append failed for user %s thread %s: %v", userID, conversationID, err)
		result.Saved = false
		result.Warning = saveWarning
	}

	return result, nil
}

// consume spends quota for metered queries after a successful generation.
// The guarded decrement cannot go below zero, so a lost race only means
// the overlapping query was effectively free.
func (s *Service) consume(ctx context.Context, userID string, decision Decision) {
	if !decision.Metered {
		return
	}
	if err := s.subs.ConsumeQuery(ctx, userID); err != nil {
		log.Printf("quota consume failed for user %s: %v", userID, err)
	}
}

var (
	ErrQuestionRequired = errors.New("follow-up question required")
	ErrCompletionFailed = errors.New("completion request failed")
)
