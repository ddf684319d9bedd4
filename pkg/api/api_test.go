package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/writestuff/writestuff-api/pkg/prompt"
	"github.com/writestuff/writestuff-api/pkg/repository/history"
	"github.com/writestuff/writestuff-api/pkg/repository/prompts"
	"github.com/writestuff/writestuff-api/pkg/repository/sqlitedb"
	"github.com/writestuff/writestuff-api/pkg/repository/subscriptions"
	"github.com/writestuff/writestuff-api/pkg/service/billing"
	"github.com/writestuff/writestuff-api/pkg/service/generate"
	"github.com/writestuff/writestuff-api/pkg/service/llm"
)

// testUserID is the subject injected when auth enforcement is disabled.
const testUserID = "local-dev"

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Complete(ctx context.Context, system string, messages []llm.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type testServer struct {
	router chi.Router
	db     *sql.DB
	llm    *stubLLM
}

func newTestServer(t *testing.T, trialSize int) *testServer {
	t.Helper()

	db, err := sqlitedb.Open(sqlitedb.Config{DatabasePath: ":memory:"})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	subsStore := subscriptions.NewStore(db)
	histStore := history.NewStore(db)
	promptStore := prompts.NewStore(db)

	client := &stubLLM{response: "generated text"}
	generator := generate.NewService(subsStore, histStore, promptStore, client)
	billingSvc := billing.NewService(subsStore, billing.Config{})

	handler := NewHandler(generator, billingSvc, subsStore, histStore, promptStore, nil, HandlerConfig{
		TrialSize:   trialSize,
		DisableAuth: true,
	})

	return &testServer{router: handler.Router(), db: db, llm: client}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)
	return resp
}

func decodeBody[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", resp.Body.String(), err)
	}
	return out
}

func generateBody() generate.Request {
	return generate.Request{
		QueryType: "poetry_unified",
		FocusArea: "poem",
		Fields:    map[string]string{"theme": "grief"},
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 5)
	resp := ts.do(t, http.MethodGet, "/health", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
}

func TestPromptOptionsListsAllCategories(t *testing.T) {
	ts := newTestServer(t, 5)
	resp := ts.do(t, http.MethodGet, "/api/v1/prompt-options", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	catalog := decodeBody[[]prompt.Category](t, resp)
	if len(catalog) != 6 {
		t.Fatalf("catalog size = %d, want 6", len(catalog))
	}
}

func TestGenerateConsumesTrialQuota(t *testing.T) {
	ts := newTestServer(t, 5)

	resp := ts.do(t, http.MethodPost, "/api/v1/generate", generateBody())
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", resp.Code, resp.Body.String())
	}
	result := decodeBody[generate.Result](t, resp)
	if result.Response != "generated text" {
		t.Fatalf("response = %q", result.Response)
	}
	if !result.Saved || result.ConversationID == "" {
		t.Fatalf("result = %+v", result)
	}

	ent := decodeBody[EntitlementsResponse](t, ts.do(t, http.MethodGet, "/api/v1/entitlements", nil))
	if ent.QueriesRemaining != 4 {
		t.Fatalf("queries_remaining = %d, want 4", ent.QueriesRemaining)
	}
	if ent.QueriesUsed != 1 {
		t.Fatalf("queries_used = %d, want 1", ent.QueriesUsed)
	}
}

func TestGenerateRejectsUnknownQueryType(t *testing.T) {
	ts := newTestServer(t, 5)

	resp := ts.do(t, http.MethodPost, "/api/v1/generate", generate.Request{QueryType: "sculpture"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.Code)
	}
	if ts.llm.calls != 0 {
		t.Fatalf("llm called %d times for invalid input", ts.llm.calls)
	}
}

func TestGenerateDeniedWhenQuotaExhausted(t *testing.T) {
	ts := newTestServer(t, 1)

	if resp := ts.do(t, http.MethodPost, "/api/v1/generate", generateBody()); resp.Code != http.StatusOK {
		t.Fatalf("first generate status = %d", resp.Code)
	}

	resp := ts.do(t, http.MethodPost, "/api/v1/generate", generateBody())
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.Code)
	}
	body := decodeBody[ErrorResponse](t, resp)
	if body.Error != "Please subscribe or renew to continue." {
		t.Fatalf("denial message = %q", body.Error)
	}
	if ts.llm.calls != 1 {
		t.Fatalf("llm calls = %d, denied query must not reach the gateway", ts.llm.calls)
	}
}

func TestSubscriberIsNotMetered(t *testing.T) {
	ts := newTestServer(t, 0)

	// Provision the record, then flip the subscription flag directly.
	ts.do(t, http.MethodGet, "/api/v1/entitlements", nil)
	if _, err := ts.db.Exec(`UPDATE user_subscriptions SET is_subscribed = 1 WHERE user_id = ?;`, testUserID); err != nil {
		t.Fatalf("subscribe test user: %v", err)
	}

	if resp := ts.do(t, http.MethodPost, "/api/v1/generate", generateBody()); resp.Code != http.StatusOK {
		t.Fatalf("generate status = %d body = %s", resp.Code, resp.Body.String())
	}

	ent := decodeBody[EntitlementsResponse](t, ts.do(t, http.MethodGet, "/api/v1/entitlements", nil))
	if ent.QueriesRemaining != 0 || ent.QueriesUsed != 0 {
		t.Fatalf("subscriber quota touched: %+v", ent)
	}
}

func TestGenerateGatewayFailure(t *testing.T) {
	ts := newTestServer(t, 5)
	ts.llm.err = errors.New("boom")

	resp := ts.do(t, http.MethodPost, "/api/v1/generate", generateBody())
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.Code)
	}

	// A failed generation must not spend quota.
	ent := decodeBody[EntitlementsResponse](t, ts.do(t, http.MethodGet, "/api/v1/entitlements", nil))
	if ent.QueriesRemaining != 5 {
		t.Fatalf("queries_remaining = %d, want 5", ent.QueriesRemaining)
	}
}

func TestFollowUpExtendsThread(t *testing.T) {
	ts := newTestServer(t, 5)

	result := decodeBody[generate.Result](t, ts.do(t, http.MethodPost, "/api/v1/generate", generateBody()))

	resp := ts.do(t, http.MethodPost, "/api/v1/follow-up", FollowUpRequest{
		ConversationID: result.ConversationID,
		Question:       "make it shorter",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("follow-up status = %d body = %s", resp.Code, resp.Body.String())
	}

	threadResp := ts.do(t, http.MethodGet, "/api/v1/history/"+result.ConversationID, nil)
	if threadResp.Code != http.StatusOK {
		t.Fatalf("get thread status = %d", threadResp.Code)
	}
	var thread struct {
		History []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"conversation_history"`
	}
	if err := json.Unmarshal(threadResp.Body.Bytes(), &thread); err != nil {
		t.Fatalf("decode thread: %v", err)
	}
	if len(thread.History) != 4 {
		t.Fatalf("history length = %d, want 4", len(thread.History))
	}
	if thread.History[2].Content != "make it shorter" {
		t.Fatalf("third turn = %q", thread.History[2].Content)
	}
}

func TestFollowUpUnknownConversation(t *testing.T) {
	ts := newTestServer(t, 5)

	resp := ts.do(t, http.MethodPost, "/api/v1/follow-up", FollowUpRequest{
		ConversationID: "missing",
		Question:       "hello?",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.Code)
	}
}

func TestFollowUpRequiresQuestion(t *testing.T) {
	ts := newTestServer(t, 5)
	result := decodeBody[generate.Result](t, ts.do(t, http.MethodPost, "/api/v1/generate", generateBody()))

	resp := ts.do(t, http.MethodPost, "/api/v1/follow-up", FollowUpRequest{
		ConversationID: result.ConversationID,
		Question:       "   ",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Code)
	}
}

func TestHistoryListAndDelete(t *testing.T) {
	ts := newTestServer(t, 5)

	first := decodeBody[generate.Result](t, ts.do(t, http.MethodPost, "/api/v1/generate", generateBody()))
	decodeBody[generate.Result](t, ts.do(t, http.MethodPost, "/api/v1/generate", generateBody()))

	listResp := ts.do(t, http.MethodGet, "/api/v1/history", nil)
	if listResp.Code != http.StatusOK {
		t.Fatalf("list status = %d", listResp.Code)
	}
	threads := decodeBody[[]json.RawMessage](t, listResp)
	if len(threads) != 2 {
		t.Fatalf("thread count = %d, want 2", len(threads))
	}

	if resp := ts.do(t, http.MethodDelete, "/api/v1/history/"+first.ConversationID, nil); resp.Code != http.StatusOK {
		t.Fatalf("delete status = %d", resp.Code)
	}
	if resp := ts.do(t, http.MethodGet, "/api/v1/history/"+first.ConversationID, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.Code)
	}
}

func TestUpdatePromptRequiresAdmin(t *testing.T) {
	ts := newTestServer(t, 5)

	resp := ts.do(t, http.MethodPost, "/api/v1/update-prompt", UpdatePromptRequest{
		QueryType: "poetry_unified",
		Prompt:    "You are a careful poetry mentor.",
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.Code)
	}
}

func TestUpdatePromptAsAdmin(t *testing.T) {
	ts := newTestServer(t, 5)

	ts.do(t, http.MethodGet, "/api/v1/entitlements", nil)
	if _, err := ts.db.Exec(`UPDATE user_subscriptions SET is_admin = 1 WHERE user_id = ?;`, testUserID); err != nil {
		t.Fatalf("promote test user: %v", err)
	}

	resp := ts.do(t, http.MethodPost, "/api/v1/update-prompt", UpdatePromptRequest{
		QueryType: "poetry_unified",
		Prompt:    "You are a careful poetry mentor.",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", resp.Code, resp.Body.String())
	}

	resp = ts.do(t, http.MethodPost, "/api/v1/update-prompt", UpdatePromptRequest{
		QueryType: "sculpture",
		Prompt:    "nope",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unknown query type status = %d, want 400", resp.Code)
	}
}
