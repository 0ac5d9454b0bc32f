package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chat"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chatstore"
)

// PipelineRunner is the slice of the chat pipeline the handler needs.
// *chat.Pipeline satisfies it.
type PipelineRunner interface {
	Run(ctx context.Context, query string, prior []chat.Turn) (*chat.Result, error)
}

// ChatHandler handles chat CRUD, message exchange, and feedback endpoints.
type ChatHandler struct {
	store    *chatstore.Store
	pipeline PipelineRunner
	log      *slog.Logger
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(store *chatstore.Store, pipeline PipelineRunner, log *slog.Logger) *ChatHandler {
	return &ChatHandler{store: store, pipeline: pipeline, log: log}
}

// ChatResponse is the wire shape of a chat.
type ChatResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageResponse is the wire shape of a stored message.
type MessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateChatRequest is the request body for POST /chats.
type CreateChatRequest struct {
	Title string `json:"title"`
}

// SendMessageRequest is the request body for POST /chats/{id}/messages.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessageResponse carries the assistant's reply plus routing metadata.
type SendMessageResponse struct {
	MessageID string `json:"messageId"`
	Response  string `json:"response"`
	Intent    string `json:"intent"`
	Degraded  bool   `json:"degraded,omitempty"`
}

// FeedbackRequest is the request body for POST /messages/{id}/feedback.
type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateChat handles POST /api/v1/chats.
func (h *ChatHandler) CreateChat(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateChatRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	c, err := h.store.CreateChat(r.Context(), userID, req.Title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create chat")
		return
	}
	writeJSON(w, http.StatusCreated, toChatResponse(*c))
}

// ListChats handles GET /api/v1/chats.
func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	chats, err := h.store.ListChats(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}
	out := make([]ChatResponse, len(chats))
	for i, c := range chats {
		out[i] = toChatResponse(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"chats": out})
}

// GetChatMessages handles GET /api/v1/chats/{id}/messages.
func (h *ChatHandler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	msgs, err := h.store.GetMessages(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, chatstore.ErrChatNotFound) {
			writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	out := make([]MessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = MessageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			Intent:    m.Intent,
			CreatedAt: m.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}

// DeleteChat handles DELETE /api/v1/chats/{id}.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.store.DeleteChat(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, chatstore.ErrChatNotFound) {
			writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage handles POST /api/v1/chats/{id}/messages.
// It loads the stored history, runs the query pipeline, and persists the
// user/assistant pair only when the pipeline succeeds.
//
// Response codes:
//   - 200 OK: assistant replied
//   - 400 Bad Request: invalid JSON or empty message
//   - 404 Not Found: chat does not exist or belongs to another user
//   - 429 Too Many Requests: upstream model rate-limited the request
//   - 504 Gateway Timeout: upstream model timed out
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	chatID := chi.URLParam(r, "id")
	prior, err := h.store.History(r.Context(), userID, chatID)
	if err != nil {
		if errors.Is(err, chatstore.ErrChatNotFound) {
			writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	result, err := h.pipeline.Run(r.Context(), req.Message, prior)
	if err != nil {
		h.log.Error("pipeline run failed", "chat_id", chatID, "error", err)
		writeError(w, pipelineErrorStatus(err), "assistant is unavailable, please retry")
		return
	}

	assistant, err := h.store.AppendExchange(r.Context(), userID, chatID, req.Message, result.Response, string(result.Intent))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist exchange")
		return
	}

	writeJSON(w, http.StatusOK, SendMessageResponse{
		MessageID: assistant.ID,
		Response:  result.Response,
		Intent:    string(result.Intent),
		Degraded:  result.Degraded,
	})
}

// AddFeedback handles POST /api/v1/messages/{id}/feedback.
func (h *ChatHandler) AddFeedback(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fb, err := h.store.AddFeedback(r.Context(), userID, chi.URLParam(r, "id"), req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, chatstore.ErrMessageNotFound):
			writeError(w, http.StatusNotFound, "message not found")
		case errors.Is(err, chatstore.ErrFeedbackExists):
			writeError(w, http.StatusConflict, "feedback already recorded")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": fb.ID})
}

// pipelineErrorStatus maps pipeline failures to HTTP status codes.
func pipelineErrorStatus(err error) int {
	var rl *chat.RateLimitedError
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests
	}
	var to *chat.UpstreamTimeoutError
	if errors.As(err, &to) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func toChatResponse(c chatstore.Chat) ChatResponse {
	return ChatResponse{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}
