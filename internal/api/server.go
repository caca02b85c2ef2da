// Package api is the HTTP surface of the annotation service: record CRUD,
// stateless highlight/restore over posted page snapshots, text
// intelligence, and the asynchronous digest pipeline.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mbrennan/marginalia/internal/annotate"
	"github.com/mbrennan/marginalia/internal/config"
	"github.com/mbrennan/marginalia/internal/llm"
	"github.com/mbrennan/marginalia/internal/logger"
	"github.com/mbrennan/marginalia/internal/metrics"
	"github.com/mbrennan/marginalia/internal/pipeline"
	"github.com/mbrennan/marginalia/internal/record"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router

	store   record.Store
	annot   *annotate.Service
	intel   *llm.Service
	orch    *pipeline.Orchestrator
	metrics *metrics.Metrics
	cfg     config.Config
}

// NewServer wires the services into a routed handler. metrics may be nil.
func NewServer(store record.Store, annot *annotate.Service, intel *llm.Service, orch *pipeline.Orchestrator, m *metrics.Metrics, cfg config.Config) *Server {
	s := &Server{
		store:   store,
		annot:   annot,
		intel:   intel,
		orch:    orch,
		metrics: m,
		cfg:     cfg,
	}
	if cfg.APIKey == "" {
		logger.L().Warnw("api key not configured, authentication disabled")
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.metrics))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey))

		r.Route("/api/records", func(r chi.Router) {
			r.Get("/", s.handleListRecords)
			r.Post("/", s.handleCreateRecord)
			r.Delete("/", s.handleClearRecords)
			r.Get("/{recordID}", s.handleGetRecord)
			r.Patch("/{recordID}", s.handleUpdateRecord)
			r.Delete("/{recordID}", s.handleDeleteRecord)
		})

		r.Post("/api/highlight", s.handleHighlight)
		r.Post("/api/annotate", s.handleAnnotate)
		r.Post("/api/unhighlight", s.handleUnhighlight)

		r.Post("/api/summarize", s.handleSummarize)
		r.Post("/api/keywords", s.handleKeywords)
		r.Post("/api/define", s.handleDefine)
		r.Post("/api/related", s.handleRelated)
		r.Post("/api/translate", s.handleTranslate)

		r.Post("/api/digests", s.handleCreateDigest)
		r.Get("/api/digests/{jobID}", s.handleDigestStatus)

		r.Get("/api/stats/llm", s.handleLLMStats)
		r.Post("/api/llm/pull", s.handlePullModel)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
