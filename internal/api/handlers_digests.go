package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mbrennan/marginalia/internal/pipeline"
	"github.com/mbrennan/marginalia/internal/reader"
)

type digestRequest struct {
	URL     string `json:"url"`
	Content string `json:"content"`
	Format  string `json:"format"`
}

// handleCreateDigest queues a page snapshot for background digestion and
// returns the job id to poll.
func (s *Server) handleCreateDigest(w http.ResponseWriter, r *http.Request) {
	var req digestRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" || strings.TrimSpace(req.Content) == "" {
		jsonError(w, "url and content are required", http.StatusBadRequest)
		return
	}
	format := reader.Format(req.Format)
	if req.Format != "" && !format.Valid() {
		jsonError(w, fmt.Sprintf("unsupported format %q", req.Format), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(req.URL, []byte(req.Content), format)
	if err := s.orch.Submit(job); err != nil {
		s.countDigestJob("rejected")
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.countDigestJob("queued")

	snap := job.Snapshot()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   snap.ID,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/digests/%s", snap.ID),
	})
}

func (s *Server) handleDigestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orch.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) countDigestJob(status string) {
	if s.metrics != nil {
		s.metrics.DigestJobs.WithLabelValues(status).Inc()
	}
}
