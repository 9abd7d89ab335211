// Package httpapi reads knowledge graphs from the content API.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.GraphSource = (*Source)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://knowledge.vegvisr.org"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the content API client.
type Config struct {
	// BaseURL is the content API root (default: https://knowledge.vegvisr.org).
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Source lists and fetches graphs over HTTP.
type Source struct {
	client  *http.Client
	baseURL string
}

// New creates a content API source.
func New(cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Source{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// ListGraphs returns the corpus listing from /getknowgraphs.
// The API wraps the listing in {"results": [...]}; a bare array is accepted too.
func (s *Source) ListGraphs(ctx context.Context) ([]domain.GraphSummary, error) {
	raw, err := s.get(ctx, s.baseURL+"/getknowgraphs")
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var graphs []domain.GraphSummary
		if err := json.Unmarshal(raw, &graphs); err != nil {
			return nil, fmt.Errorf("%w: decode graph listing: %w", domain.ErrUpstreamFetch, err)
		}
		return graphs, nil
	}

	var listing struct {
		Results []domain.GraphSummary `json:"results"`
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("%w: decode graph listing: %w", domain.ErrUpstreamFetch, err)
	}
	if listing.Results == nil {
		return []domain.GraphSummary{}, nil
	}
	return listing.Results, nil
}

// GetGraph fetches one full graph from /getknowgraph.
// The API omits the ID from the document body, so it is filled from the request.
func (s *Source) GetGraph(ctx context.Context, id string) (*domain.GraphDocument, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: graph id is required", domain.ErrValidation)
	}

	raw, err := s.get(ctx, s.baseURL+"/getknowgraph?id="+url.QueryEscape(id))
	if err != nil {
		return nil, fmt.Errorf("get graph %s: %w", id, err)
	}

	var doc domain.GraphDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode graph %s: %w", domain.ErrUpstreamFetch, id, err)
	}
	if doc.ID == "" {
		doc.ID = id
	}
	return &doc, nil
}

// Close releases resources.
func (s *Source) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Source) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrUpstreamFetch, err)
	}
	return body, nil
}
