package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"docs-agent/internal/models"
	"docs-agent/internal/refresh"
)

// manual refreshes get the scheduled job's deadline, not the chat timeout
const refreshTimeout = 30 * time.Minute

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		s.respondError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = models.DefaultThreadID
	}

	result, err := s.agent.Chat(r.Context(), req.Messages, threadID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Chat failed")
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"mode":   s.agent.Mode(),
	})
}

// handleRefresh triggers the same cycle as the scheduled job. A cycle
// already in progress is rejected, never run concurrently.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refresher == nil {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "refresher_not_running"})
		return
	}

	// detached from the request context so a client disconnect cannot
	// abort a rebuild midway
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.refresher.RefreshAll(ctx); err != nil {
		if errors.Is(err, refresh.ErrRefreshInProgress) {
			s.respondJSON(w, http.StatusConflict, map[string]string{"status": "refresh_in_progress"})
			return
		}
		hlog.FromRequest(r).Error().Err(err).Msg("Manual refresh failed")
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "refresh_completed"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
