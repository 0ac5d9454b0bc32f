// Package server owns HTTP server initialization and lifecycle management.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/api"
	"github.com/Nsralla/HRNexus-AI-assistant/internal/api/handlers"
)

// Config holds HTTP server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns default HTTP server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // pipeline turns wait on upstream models
		IdleTimeout:  60 * time.Second,
	}
}

// Server wraps the HTTP server and database.
type Server struct {
	config Config
	db     *sql.DB
	http   *http.Server
	log    *slog.Logger
}

// NewServer creates the HTTP server with routing wired to the given
// database and chat pipeline.
func NewServer(db *sql.DB, pipeline handlers.PipelineRunner, log *slog.Logger, config Config) *Server {
	router := api.NewRouter(db, pipeline, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		config: config,
		db:     db,
		http:   httpServer,
		log:    log,
	}
}

// Start starts the HTTP server and blocks until an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("starting HTTP server", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server and closes the database connection.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("database close error: %w", err)
	}

	s.log.Info("server shutdown complete")
	return nil
}
