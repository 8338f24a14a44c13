// Package api exposes the HTTP surface: plan drafting, validation, and
// CRUD, campaign rescheduling, and segment management.
package api

import (
	"context"
	"net/http"
	"time"
)

// Server wraps the HTTP server and its routed handlers.
type Server struct {
	handler  http.Handler
	handlers *Handlers
	server   *http.Server
}

// NewServer creates the API server around the plan service.
func NewServer(h *Handlers, allowedOrigins []string) *Server {
	return &Server{
		handler:  SetupRoutes(h, allowedOrigins),
		handlers: h,
	}
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Draft generation holds the request open for the full LLM retry
		// loop, so the write timeout must outlast it.
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
