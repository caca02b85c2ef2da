package api

import (
	"context"
	"net/http"

	"github.com/mbrennan/marginalia/internal/llm"
	"github.com/mbrennan/marginalia/internal/logger"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.intel == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model":        s.intel.Model(),
		"availability": s.intel.Availability(r.Context()),
		"stats":        s.intel.StatsSnapshot(),
	})
}

// handlePullModel starts downloading the configured model. The pull runs in
// the background; clients watch /api/stats/llm for the availability to move
// from downloading to available.
func (s *Server) handlePullModel(w http.ResponseWriter, r *http.Request) {
	if s.intel == nil || s.intel.Model() == "" {
		jsonError(w, "no model configured", http.StatusServiceUnavailable)
		return
	}

	switch avail := s.intel.Availability(r.Context()); avail {
	case llm.Available:
		writeJSON(w, http.StatusOK, map[string]any{"availability": avail})
	case llm.Downloading:
		writeJSON(w, http.StatusAccepted, map[string]any{"availability": avail})
	case llm.Unavailable:
		jsonError(w, "model server unreachable", http.StatusServiceUnavailable)
	default: // downloadable
		go func() {
			if err := s.intel.Pull(context.Background()); err != nil {
				logger.L().Errorw("model pull failed", "model", s.intel.Model(), "error", err)
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]any{"availability": llm.Downloading})
	}
}
