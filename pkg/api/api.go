package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/writestuff/writestuff-api/internal/auth"
	"github.com/writestuff/writestuff-api/pkg/domain"
	"github.com/writestuff/writestuff-api/pkg/prompt"
	"github.com/writestuff/writestuff-api/pkg/repository/history"
	"github.com/writestuff/writestuff-api/pkg/repository/prompts"
	"github.com/writestuff/writestuff-api/pkg/repository/subscriptions"
	"github.com/writestuff/writestuff-api/pkg/service/billing"
	"github.com/writestuff/writestuff-api/pkg/service/generate"
)

const maxWebhookBodyBytes = int64(65536)

type ErrorResponse struct {
	Error string `json:"error"`
}

type FollowUpRequest struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
}

type URLResponse struct {
	URL string `json:"url"`
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

type EntitlementsResponse struct {
	UserID           string `json:"user_id"`
	IsSubscribed     bool   `json:"is_subscribed"`
	IsAdmin          bool   `json:"is_admin"`
	QueriesRemaining int    `json:"queries_remaining"`
	QueriesUsed      int    `json:"queries_used"`
	TrialEndDate     string `json:"trial_end_date,omitempty"`
	TrialExpired     bool   `json:"trial_expired"`
	CanQuery         bool   `json:"can_query"`
}

type UpdatePromptRequest struct {
	QueryType domain.QueryType `json:"query_type"`
	Prompt    string           `json:"prompt"`
}

type Handler struct {
	generator   *generate.Service
	billing     *billing.Service
	subs        *subscriptions.Store
	hist        *history.Store
	prompts     *prompts.Store
	verifier    *auth.Verifier
	adminEmail  string
	trialSize   int
	disableAuth bool
}

type HandlerConfig struct {
	AdminEmail  string
	TrialSize   int
	DisableAuth bool
}

func NewHandler(
	generator *generate.Service,
	billingSvc *billing.Service,
	subs *subscriptions.Store,
	hist *history.Store,
	promptStore *prompts.Store,
	verifier *auth.Verifier,
	cfg HandlerConfig,
) *Handler {
	return &Handler{
		generator:   generator,
		billing:     billingSvc,
		subs:        subs,
		hist:        hist,
		prompts:     promptStore,
		verifier:    verifier,
		adminEmail:  cfg.AdminEmail,
		trialSize:   cfg.TrialSize,
		disableAuth: cfg.DisableAuth,
	}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// Routes
	r.Get("/health", h.HandleHealth)
	r.Post("/api/v1/stripe/webhook", h.HandleStripeWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(h.verifier, auth.MiddlewareConfig{
			OnAuthenticated: h.provisionUser,
			DisableAuth:     h.disableAuth,
		}))

		r.Post("/generate", h.HandleGenerate)
		r.Post("/follow-up", h.HandleFollowUp)
		r.Get("/entitlements", h.HandleEntitlements)
		r.Get("/prompt-options", h.HandlePromptOptions)
		r.Get("/history", h.HandleListHistory)
		r.Get("/history/{conversationID}", h.HandleGetThread)
		r.Delete("/history/{conversationID}", h.HandleDeleteThread)
		r.Post("/billing/checkout", h.HandleCreateCheckout)
		r.Post("/billing/portal", h.HandleCreatePortal)
		r.Post("/update-prompt", h.HandleUpdatePrompt)
	})

	return r
}

// provisionUser seeds a trial entitlement record the first time a verified
// user hits the API. The admin flag comes from the configured admin email.
func (h *Handler) provisionUser(r *http.Request, claims *auth.Claims) error {
	isAdmin := h.adminEmail != "" && strings.EqualFold(claims.Email, h.adminEmail)
	return h.subs.EnsureTrial(r.Context(), claims.Subject, isAdmin, h.trialSize)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, generate.ReasonNotAuthenticated)
		return
	}

	var req generate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.generator.Generate(r.Context(), claims.Subject, req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleFollowUp(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, generate.ReasonNotAuthenticated)
		return
	}

	var req FollowUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ConversationID == "" {
		respondWithError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	result, err := h.generator.FollowUp(r.Context(), claims.Subject, req.ConversationID, req.Question)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleEntitlements(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, generate.ReasonNotAuthenticated)
		return
	}

	sub, err := h.subs.Get(r.Context(), claims.Subject)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	resp := EntitlementsResponse{
		UserID:           sub.UserID,
		IsSubscribed:     sub.IsSubscribed,
		IsAdmin:          sub.IsAdmin,
		QueriesRemaining: sub.QueriesRemaining,
		QueriesUsed:      sub.QueriesUsed,
		CanQuery:         sub.CanQuery(),
	}
	if sub.TrialEndDate != nil {
		resp.TrialEndDate = sub.TrialEndDate.UTC().Format("2006-01-02")
		resp.TrialExpired = sub.TrialEndDate.Before(time.Now())
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandlePromptOptions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, prompt.Catalog())
}

func (h *Handler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, generate.ReasonNotAuthenticated)
		return
	}

	threads, err := h.hist.ListByUser(r.Context(), claims.Subject)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if threads == nil {
		threads = []*domain.Thread{}
	}
	respondWithJSON(w, http.StatusOK, threads)
}

func (h *Handler) HandleGetThread(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, generate.ReasonNotAuthenticated)
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	thread, err := h.hist.GetThread(r.Context(), claims.Subject, conversationID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, thread)
}

func (h *Handler) HandleDeleteThread(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, generate.ReasonNotAuthenticated)
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if err := h.hist.DeleteThread(r.Context(), claims.Subject, conversationID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted"})
}

func (h *Handler) HandleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, generate.ReasonNotAuthenticated)
		return
	}

	url, err := h.billing.CreateCheckout(r.Context(), claims.Subject, claims.Email)
	if err != nil {
		log.Printf("checkout failed for user %s: %v", claims.Subject, err)
		h.respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, CheckoutResponse{CheckoutURL: url})
}

func (h *Handler) HandleCreatePortal(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, generate.ReasonNotAuthenticated)
		return
	}

	url, err := h.billing.CreatePortal(r.Context(), claims.Subject)
	if err != nil {
		log.Printf("portal failed for user %s: %v", claims.Subject, err)
		h.respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, URLResponse{URL: url})
}

func (h *Handler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	if err := h.billing.HandleWebhook(r.Context(), body, r.Header.Get("Stripe-Signature")); err != nil {
		log.Printf("stripe webhook failed: %v", err)
		respondWithError(w, http.StatusBadRequest, "Webhook processing failed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleUpdatePrompt(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, generate.ReasonNotAuthenticated)
		return
	}

	sub, err := h.subs.Get(r.Context(), claims.Subject)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	if !sub.IsAdmin {
		respondWithError(w, http.StatusForbidden, "Admin access required")
		return
	}

	var req UpdatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := prompt.Lookup(req.QueryType); err != nil {
		respondWithError(w, http.StatusBadRequest, "Unknown query type")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondWithError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	if err := h.prompts.Set(r.Context(), req.QueryType, req.Prompt); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Prompt updated successfully"})
}

// respondServiceError maps service and repository errors to HTTP statuses.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var denied *generate.DeniedError
	switch {
	case errors.As(err, &denied):
		respondWithError(w, http.StatusForbidden, denied.Reason)
	case errors.Is(err, prompt.ErrUnknownQueryType),
		errors.Is(err, prompt.ErrFocusRequired),
		errors.Is(err, prompt.ErrUnknownFocusArea),
		errors.Is(err, generate.ErrQuestionRequired):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, history.ErrThreadNotFound):
		respondWithError(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, subscriptions.ErrUserNotFound):
		respondWithError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, generate.ErrCompletionFailed):
		respondWithError(w, http.StatusBadGateway, "Generation service unavailable")
	case errors.Is(err, billing.ErrNotConfigured):
		respondWithError(w, http.StatusInternalServerError, "Billing not configured")
	case errors.Is(err, billing.ErrNoCustomer):
		respondWithError(w, http.StatusBadRequest, "No billing customer for user")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// Helper functions for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}
