package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/api/ctxkeys"
)

// RequestLogger logs every request with method, path, status, duration and,
// when present, the authenticated user. Mounted inside AuthMiddleware on
// protected routes so the user id is in context by the time it logs.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", recorder.statusCode),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			if userID, ok := r.Context().Value(ctxkeys.UserID).(string); ok && userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}

			if recorder.statusCode >= http.StatusInternalServerError {
				log.Error("request", attrs...)
			} else {
				log.Info("request", attrs...)
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
