package api

import (
	"net/http"
	"strings"

	"github.com/mbrennan/marginalia/internal/llm"
)

type textRequest struct {
	Text string `json:"text"`
	Max  int    `json:"max"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}
	res := s.intel.Summarize(r.Context(), req.Text)
	s.countLLMRequest("summarize", res.Source)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}
	res := s.intel.Keywords(r.Context(), req.Text, req.Max)
	s.countLLMRequest("keywords", res.Source)
	writeJSON(w, http.StatusOK, res)
}

type defineRequest struct {
	Term    string `json:"term"`
	Passage string `json:"passage"`
}

func (s *Server) handleDefine(w http.ResponseWriter, r *http.Request) {
	var req defineRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Term) == "" {
		jsonError(w, "term is required", http.StatusBadRequest)
		return
	}
	res := s.intel.Define(r.Context(), req.Term, req.Passage)
	s.countLLMRequest("define", res.Source)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}
	res := s.intel.Related(r.Context(), req.Text, req.Max)
	s.countLLMRequest("related", res.Source)
	writeJSON(w, http.StatusOK, res)
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		jsonError(w, "target_lang is required", http.StatusBadRequest)
		return
	}
	res := s.intel.Translate(r.Context(), req.Text, req.TargetLang)
	s.countLLMRequest("translate", res.Source)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) countLLMRequest(op string, source llm.Source) {
	if s.metrics != nil {
		s.metrics.LLMRequests.WithLabelValues(op, string(source)).Inc()
	}
}
