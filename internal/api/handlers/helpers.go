// Package handlers translates HTTP requests into domain calls and maps
// domain errors to HTTP status codes.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/api/ctxkeys"
)

// getUserID retrieves the authenticated user id from context.
// Uses ctxkeys.UserID — same type+value as AuthMiddleware injection.
func getUserID(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(ctxkeys.UserID).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id not found in context")
	}
	return userID, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// writeError writes a JSON error response with a consistent shape.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
