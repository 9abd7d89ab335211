package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/logger"
)

type errorBody struct {
	Error string `json:"error"`
}

type reindexSampleRequest struct {
	Count int `json:"count"`
}

type vectorizationStatusRequest struct {
	GraphIDs []string `json:"graphIds"`
}

func (s *Server) handleIndexGraph(w http.ResponseWriter, r *http.Request) {
	var req domain.IndexRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.ports.Index.IndexGraph(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	resp, err := s.ports.Search.Search(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReindexAll(w http.ResponseWriter, r *http.Request) {
	summary, err := s.ports.Reindex.ReindexAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReindexSample(w http.ResponseWriter, r *http.Request) {
	var req reindexSampleRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.ports.Reindex.ReindexSample(r.Context(), req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleVectorizationStatus(w http.ResponseWriter, r *http.Request) {
	var req vectorizationStatusRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, err)
		return
	}

	status, err := s.ports.Status.VectorizationStatus(r.Context(), req.GraphIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleAnalyzeContent(w http.ResponseWriter, r *http.Request) {
	sampleSize := 0
	if raw := r.URL.Query().Get("sampleSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, fmt.Errorf("%w: sampleSize must be a non-negative integer", domain.ErrValidation))
			return
		}
		sampleSize = n
	}

	analysis, err := s.ports.Status.AnalyzeContent(r.Context(), sampleSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ports.Status.Health(r.Context()))
}

// decodeBody decodes a JSON request body into v. An empty body is accepted
// only when allowEmpty is set.
func decodeBody(r *http.Request, v any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: request body is required", domain.ErrValidation)
	default:
		return fmt.Errorf("%w: invalid JSON body: %w", domain.ErrValidation, err)
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed: %v", err)
	} else {
		logger.Debug("Request rejected (%d): %v", status, err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response: %v", err)
	}
}
