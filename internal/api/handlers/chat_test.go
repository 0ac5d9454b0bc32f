package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/api/ctxkeys"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chat"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chatstore"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/intent"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/infra/sqlite"
	"github.com/Nsralla/HRNexus-AI-assistant/pkg/uuid"
)

// stubPipeline returns a canned result or error and records the prior
// history it was handed.
type stubPipeline struct {
	result *chat.Result
	err    error
	prior  []chat.Turn
}

func (s *stubPipeline) Run(_ context.Context, query string, prior []chat.Turn) (*chat.Result, error) {
	s.prior = prior
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	history := append(append([]chat.Turn{}, prior...), chat.Turn{Role: chat.RoleUser, Text: query})
	res.History = append(history, chat.Turn{Role: chat.RoleAssistant, Text: res.Response})
	return &res, nil
}

func testRouter(t *testing.T, pipeline PipelineRunner) (*chi.Mux, *chatstore.Store, string) {
	t.Helper()

	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	userID := seedUser(t, db, "owner@example.com")
	store := chatstore.NewStore(db)
	h := NewChatHandler(store, pipeline, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := ctxkeys.WithValue(req.Context(), ctxkeys.UserID, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/chats", h.CreateChat)
	r.Get("/chats", h.ListChats)
	r.Delete("/chats/{id}", h.DeleteChat)
	r.Get("/chats/{id}/messages", h.GetChatMessages)
	r.Post("/chats/{id}/messages", h.SendMessage)
	r.Post("/messages/{id}/feedback", h.AddFeedback)
	return r, store, userID
}

func seedUser(t *testing.T, db *sql.DB, email string) string {
	t.Helper()
	id := uuid.NewV7().String()
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.Exec(`
		INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, email, "Owner", "hash", now, now,
	); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return id
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndListChats(t *testing.T) {
	r, _, _ := testRouter(t, &stubPipeline{})

	rec := doJSON(t, r, http.MethodPost, "/chats", `{"title":"sprint planning"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if created.ID == "" || created.Title != "sprint planning" {
		t.Errorf("unexpected chat %+v", created)
	}

	rec = doJSON(t, r, http.MethodGet, "/chats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var listed struct {
		Chats []ChatResponse `json:"chats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(listed.Chats) != 1 || listed.Chats[0].ID != created.ID {
		t.Errorf("unexpected list %+v", listed)
	}
}

func TestSendMessage_RunsPipelineAndPersists(t *testing.T) {
	pipeline := &stubPipeline{result: &chat.Result{
		Intent:   intent.DataQuery,
		Response: "3 records",
	}}
	r, store, userID := testRouter(t, pipeline)

	rec := doJSON(t, r, http.MethodPost, "/chats", "")
	var created ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	rec = doJSON(t, r, http.MethodPost, "/chats/"+created.ID+"/messages",
		`{"message":"Find all employees in Engineering"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp SendMessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Response != "3 records" || resp.Intent != "data_query" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.MessageID == "" {
		t.Error("expected persisted assistant message id")
	}

	msgs, err := store.GetMessages(context.Background(), userID, created.ID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected persisted exchange, got %d messages", len(msgs))
	}
	if msgs[1].Intent != "data_query" {
		t.Errorf("expected intent persisted, got %q", msgs[1].Intent)
	}
}

func TestSendMessage_SecondTurnCarriesHistory(t *testing.T) {
	pipeline := &stubPipeline{result: &chat.Result{Intent: intent.Conversation, Response: "hi again"}}
	r, _, _ := testRouter(t, pipeline)

	rec := doJSON(t, r, http.MethodPost, "/chats", "")
	var created ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	path := "/chats/" + created.ID + "/messages"
	if rec := doJSON(t, r, http.MethodPost, path, `{"message":"hello"}`); rec.Code != http.StatusOK {
		t.Fatalf("first turn failed: %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodPost, path, `{"message":"still there?"}`); rec.Code != http.StatusOK {
		t.Fatalf("second turn failed: %d", rec.Code)
	}

	if len(pipeline.prior) != 2 {
		t.Fatalf("expected 2 prior turns on second run, got %d", len(pipeline.prior))
	}
	if pipeline.prior[0].Text != "hello" || pipeline.prior[1].Text != "hi again" {
		t.Errorf("unexpected prior history %+v", pipeline.prior)
	}
}

func TestSendMessage_PipelineFailure_NothingPersisted(t *testing.T) {
	pipeline := &stubPipeline{err: &chat.RateLimitedError{Provider: "completion", Err: errors.New("429")}}
	r, store, userID := testRouter(t, pipeline)

	rec := doJSON(t, r, http.MethodPost, "/chats", "")
	var created ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	rec = doJSON(t, r, http.MethodPost, "/chats/"+created.ID+"/messages", `{"message":"hi"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 for rate-limited pipeline, got %d", rec.Code)
	}

	msgs, err := store.GetMessages(context.Background(), userID, created.ID)
	if err != nil {
		t.Fatalf("GetMessages failed: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("failed exchange must not be persisted, got %d messages", len(msgs))
	}
}

func TestSendMessage_TimeoutMapsTo504(t *testing.T) {
	pipeline := &stubPipeline{err: &chat.UpstreamTimeoutError{Provider: "completion", Err: context.DeadlineExceeded}}
	r, _, _ := testRouter(t, pipeline)

	rec := doJSON(t, r, http.MethodPost, "/chats", "")
	var created ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	rec = doJSON(t, r, http.MethodPost, "/chats/"+created.ID+"/messages", `{"message":"hi"}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", rec.Code)
	}
}

func TestSendMessage_Validation(t *testing.T) {
	r, _, _ := testRouter(t, &stubPipeline{result: &chat.Result{Intent: intent.Conversation, Response: "hi"}})

	rec := doJSON(t, r, http.MethodPost, "/chats/missing/messages", `{"message":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown chat, got %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/chats", "")
	var created ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	rec = doJSON(t, r, http.MethodPost, "/chats/"+created.ID+"/messages", `{"message":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty message, got %d", rec.Code)
	}
}

func TestDeleteChat(t *testing.T) {
	r, _, _ := testRouter(t, &stubPipeline{})

	rec := doJSON(t, r, http.MethodPost, "/chats", "")
	var created ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if rec := doJSON(t, r, http.MethodDelete, "/chats/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if rec := doJSON(t, r, http.MethodDelete, "/chats/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on double delete, got %d", rec.Code)
	}
}

func TestAddFeedback_Endpoint(t *testing.T) {
	pipeline := &stubPipeline{result: &chat.Result{Intent: intent.Conversation, Response: "hello"}}
	r, _, _ := testRouter(t, pipeline)

	rec := doJSON(t, r, http.MethodPost, "/chats", "")
	var created ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	rec = doJSON(t, r, http.MethodPost, "/chats/"+created.ID+"/messages", `{"message":"hi"}`)
	var sent SendMessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &sent); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	rec = doJSON(t, r, http.MethodPost, "/messages/"+sent.MessageID+"/feedback", `{"rating":1,"comment":"good"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, r, http.MethodPost, "/messages/"+sent.MessageID+"/feedback", `{"rating":-1}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 on duplicate feedback, got %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodPost, "/messages/missing/feedback", `{"rating":1}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown message, got %d", rec.Code)
	}
}
