// Route registration and go-chi router setup.
// Public routes (/health, /auth/*) vs JWT-protected routes (/api/v1/*).
package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/api/handlers"
	apmiddleware "github.com/Nsralla/HRNexus-AI-assistant/internal/api/middleware"
	domainauth "github.com/Nsralla/HRNexus-AI-assistant/internal/domain/auth"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chatstore"
)

// NewRouter creates and configures the chi router with all routes.
// The pipeline is constructed by the caller (cmd wiring) because it owns
// the model provider, tool registry, and knowledge index lifecycles.
func NewRouter(db *sql.DB, pipeline handlers.PipelineRunner, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// ===== PUBLIC ROUTES (no auth required) =====

	// Health check — unauthenticated, used by load balancers and probes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	authHandler := handlers.NewAuthHandler(domainauth.NewService(db))
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register) // POST /auth/register
		r.Post("/login", authHandler.Login)       // POST /auth/login
	})

	// ===== PROTECTED ROUTES (JWT required via AuthMiddleware) =====

	chatHandler := handlers.NewChatHandler(chatstore.NewStore(db), pipeline, log)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.AuthMiddleware)
		r.Use(apmiddleware.RequestLogger(log))

		r.Route("/chats", func(r chi.Router) {
			r.Post("/", chatHandler.CreateChat)                 // POST /api/v1/chats
			r.Get("/", chatHandler.ListChats)                   // GET /api/v1/chats
			r.Delete("/{id}", chatHandler.DeleteChat)           // DELETE /api/v1/chats/{id}
			r.Get("/{id}/messages", chatHandler.GetChatMessages) // GET /api/v1/chats/{id}/messages
			r.Post("/{id}/messages", chatHandler.SendMessage)    // POST /api/v1/chats/{id}/messages
		})

		r.Route("/messages", func(r chi.Router) {
			r.Post("/{id}/feedback", chatHandler.AddFeedback) // POST /api/v1/messages/{id}/feedback
		})
	})

	return r
}
