package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/api/ctxkeys"
)

func TestRequestLogger_RecordsStatusAndUser(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats", nil)
	req = req.WithContext(ctxkeys.WithValue(req.Context(), ctxkeys.UserID, "user-9"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"status=201", "method=POST", "path=/api/v1/chats", "user_id=user-9"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %q, got %q", want, out)
		}
	}
}

func TestRequestLogger_ServerErrorLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if !strings.Contains(buf.String(), "level=ERROR") {
		t.Errorf("expected ERROR level for 5xx, got %q", buf.String())
	}
}

func TestRequestLogger_DefaultStatusOK(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok")) //nolint:errcheck
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "status=200") {
		t.Errorf("expected implicit 200, got %q", buf.String())
	}
}
