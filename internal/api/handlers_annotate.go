package api

import (
	"errors"
	"net/http"

	"github.com/mbrennan/marginalia/internal/anchor"
	"github.com/mbrennan/marginalia/internal/record"
)

type highlightRequest struct {
	URL   string `json:"url"`
	HTML  string `json:"html"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
	Note  string `json:"note"`
	Color string `json:"color"`
}

// handleHighlight creates a highlight from flat text offsets into the
// posted snapshot and returns the mutated document.
func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" || req.HTML == "" {
		jsonError(w, "url and html are required", http.StatusBadRequest)
		return
	}
	typ := record.Type(req.Type)
	if req.Type == "" {
		typ = record.TypeImportant
	}
	if !typ.Valid() {
		jsonError(w, "type must be important or confused", http.StatusBadRequest)
		return
	}

	doc, err := parseHTML(req.HTML)
	if err != nil {
		jsonError(w, "parse html: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.annot.HighlightOffsets(r.Context(), doc, req.URL, req.Start, req.End, typ, req.Note, req.Color)
	switch {
	case errors.Is(err, anchor.ErrInvalidSelection) || errors.Is(err, anchor.ErrEmptySelection):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rendered, err := renderHTML(doc)
	if err != nil {
		jsonError(w, "render html: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"record": res.Record,
		"marked": res.Marked,
		"html":   rendered,
	})
}

type annotateRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

// handleAnnotate restores every stored highlight for the page onto the
// posted snapshot.
func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	var req annotateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.URL == "" || req.HTML == "" {
		jsonError(w, "url and html are required", http.StatusBadRequest)
		return
	}

	doc, err := parseHTML(req.HTML)
	if err != nil {
		jsonError(w, "parse html: "+err.Error(), http.StatusBadRequest)
		return
	}

	outcomes, err := s.annot.Restore(r.Context(), doc, req.URL)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rendered, err := renderHTML(doc)
	if err != nil {
		jsonError(w, "render html: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"html":     rendered,
		"outcomes": outcomes,
	})
}

type unhighlightRequest struct {
	RecordID string `json:"record_id"`
	HTML     string `json:"html"`
}

// handleUnhighlight deletes a record and strips its markers from the
// posted snapshot.
func (s *Server) handleUnhighlight(w http.ResponseWriter, r *http.Request) {
	var req unhighlightRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.RecordID == "" || req.HTML == "" {
		jsonError(w, "record_id and html are required", http.StatusBadRequest)
		return
	}

	doc, err := parseHTML(req.HTML)
	if err != nil {
		jsonError(w, "parse html: "+err.Error(), http.StatusBadRequest)
		return
	}

	removed, err := s.annot.RemoveRecord(r.Context(), doc, req.RecordID)
	switch {
	case errors.Is(err, record.ErrNotFound):
		jsonError(w, "record not found", http.StatusNotFound)
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rendered, err := renderHTML(doc)
	if err != nil {
		jsonError(w, "render html: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"removed": removed,
		"html":    rendered,
	})
}
