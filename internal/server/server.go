// Package server provides the HTTP API around the answering agent.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"docs-agent/internal/config"
	"docs-agent/internal/models"
)

const chatTimeout = 120 * time.Second

// ChatService is the answering core as seen by the HTTP surface.
type ChatService interface {
	Chat(ctx context.Context, messages []models.ChatMessage, threadID string) (*models.ChatResult, error)
	Mode() string
}

// RefreshTrigger runs one on-demand refresh cycle.
type RefreshTrigger interface {
	RefreshAll(ctx context.Context) error
}

// Server is the HTTP server for the chat API.
type Server struct {
	agent     ChatService
	refresher RefreshTrigger
	cfg       *config.ServerConfig
	server    *http.Server
}

// NewServer creates a server with the given dependencies. refresher may
// be nil when no refresh scheduler is running.
func NewServer(agent ChatService, refresher RefreshTrigger, cfg *config.ServerConfig) *Server {
	return &Server{agent: agent, refresher: refresher, cfg: cfg}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(req).Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", status).
			Dur("duration", duration).
			Msg("Request")
	}))

	r.With(middleware.Timeout(chatTimeout)).Post("/chat", s.handleChat)
	r.Get("/health", s.handleHealth)
	r.Post("/admin/refresh", s.handleRefresh)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().Str("addr", addr).Str("mode", s.agent.Mode()).Msg("Starting server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
