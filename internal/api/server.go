package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/founders-outreach/internal/config"
	"github.com/ignite/founders-outreach/internal/pkg/logger"
)

// Server represents the API server
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server over the given handlers.
func NewServer(cfg config.ServerConfig, h *Handlers) *Server {
	return &Server{
		config:  cfg,
		handler: SetupRoutes(h, cfg.AllowedOrigins),
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.handler,
		ReadTimeout:       2 * time.Minute, // multipart CSV uploads
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute, // drip runs triggered over HTTP
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("api server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Handler returns the HTTP handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}
