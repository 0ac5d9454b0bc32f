// Package middleware provides HTTP middleware for the API: Bearer JWT
// authentication and structured request logging.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/api/ctxkeys"
	pkgauth "github.com/Nsralla/HRNexus-AI-assistant/pkg/auth"
)

// AuthMiddleware validates the Bearer JWT token and injects the user id
// into context. Used on all /api/v1/* routes except /auth/register and
// /auth/login.
//
// Flow:
//  1. Read "Authorization: Bearer <token>" header
//  2. Reject if missing or not Bearer scheme → 401
//  3. Parse + validate JWT → 401 on invalid/expired
//  4. Inject ctxkeys.UserID into context
//  5. Call next handler
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractBearerToken(r)
		if tokenString == "" {
			writeUnauthorized(w, "missing or invalid Authorization header")
			return
		}

		claims, err := pkgauth.ParseJWT(tokenString)
		if err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := ctxkeys.WithValue(r.Context(), ctxkeys.UserID, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
// Returns empty string if header is missing, wrong scheme, or token is empty.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	// Must start with "Bearer " (case-sensitive per RFC 7235)
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// writeUnauthorized writes a 401 JSON response.
// Uses consistent format with writeError in handlers package.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message}) //nolint:errcheck
}
