package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mbrennan/marginalia/internal/record"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	var (
		recs []record.Record
		err  error
	)
	if url := r.URL.Query().Get("url"); url != "" {
		recs, err = s.store.ListByURL(r.Context(), url)
	} else {
		recs, err = s.store.LoadAll(r.Context())
	}
	if err != nil {
		jsonError(w, "load records: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []record.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": recs, "count": len(recs)})
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var rec record.Record
	if !s.decodeJSON(w, r, &rec) {
		return
	}
	if err := rec.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := s.store.Add(r.Context(), rec)
	if err != nil {
		jsonError(w, "save record: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.countRecordOp("add")
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordID")
	recs, err := s.store.LoadAll(r.Context())
	if err != nil {
		jsonError(w, "load records: "+err.Error(), http.StatusInternalServerError)
		return
	}
	for _, rec := range recs {
		if rec.ID == id {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	jsonError(w, "record not found", http.StatusNotFound)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordID")
	var patch record.Patch
	if !s.decodeJSON(w, r, &patch) {
		return
	}

	updated, err := s.store.Update(r.Context(), id, patch)
	switch {
	case errors.Is(err, record.ErrNotFound):
		jsonError(w, "record not found", http.StatusNotFound)
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.countRecordOp("update")
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordID")
	deleted, err := s.store.Delete(r.Context(), id)
	if err != nil {
		jsonError(w, "delete record: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !deleted {
		jsonError(w, "record not found", http.StatusNotFound)
		return
	}
	s.countRecordOp("delete")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearRecords(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		jsonError(w, "url query parameter is required", http.StatusBadRequest)
		return
	}
	removed, err := s.store.ClearByURL(r.Context(), url)
	if err != nil {
		jsonError(w, "clear records: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if removed > 0 {
		s.countRecordOp("clear")
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (s *Server) countRecordOp(op string) {
	if s.metrics != nil {
		s.metrics.RecordOps.WithLabelValues(op).Inc()
	}
}
