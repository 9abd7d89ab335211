// Package vectorize provides a similarity index adapter for Cloudflare
// Vectorize (v2 REST API).
package vectorize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/vegvisr/graphvec/internal/adapters/driven/vector"
	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/logger"
)

// Ensure SimilarityIndex implements the interface.
var _ driven.SimilarityIndex = (*SimilarityIndex)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.cloudflare.com/client/v4"
	DefaultTimeout = 30 * time.Second

	// MaxUpsertBatch is the most vectors Vectorize accepts per upsert request.
	MaxUpsertBatch = 1000
)

// Config holds configuration for the Vectorize index.
type Config struct {
	AccountID string
	APIToken  string

	// Index is the Vectorize index name.
	Index string

	// BaseURL overrides the Cloudflare API root.
	BaseURL string

	Timeout time.Duration
}

// SimilarityIndex stores vector records in a Vectorize index.
type SimilarityIndex struct {
	client    *http.Client
	indexURL  string
	indexName string
}

type ndjsonVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type queryRequest struct {
	Vector         []float32 `json:"vector"`
	TopK           int       `json:"topK"`
	ReturnValues   bool      `json:"returnValues"`
	ReturnMetadata string    `json:"returnMetadata"`
}

type apiResponse struct {
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type queryResult struct {
	Count   int `json:"count"`
	Matches []struct {
		ID       string         `json:"id"`
		Score    float64        `json:"score"`
		Metadata map[string]any `json:"metadata"`
	} `json:"matches"`
}

// New creates a Vectorize index client.
func New(cfg Config) (*SimilarityIndex, error) {
	if cfg.AccountID == "" || cfg.APIToken == "" || cfg.Index == "" {
		return nil, fmt.Errorf("%w: vectorize: account ID, API token and index name are required", domain.ErrValidation)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIToken}))
	client.Timeout = cfg.Timeout

	return &SimilarityIndex{
		client: client,
		indexURL: fmt.Sprintf("%s/accounts/%s/vectorize/v2/indexes/%s",
			strings.TrimRight(cfg.BaseURL, "/"), url.PathEscape(cfg.AccountID), url.PathEscape(cfg.Index)),
		indexName: cfg.Index,
	}, nil
}

// Upsert inserts or replaces records by ID, in batches of MaxUpsertBatch.
func (s *SimilarityIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	for start := 0; start < len(records); start += MaxUpsertBatch {
		end := min(start+MaxUpsertBatch, len(records))
		if err := s.upsertBatch(ctx, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SimilarityIndex) upsertBatch(ctx context.Context, records []domain.VectorRecord) error {
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, r := range records {
		if err := enc.Encode(ndjsonVector{
			ID:       r.ID,
			Values:   r.Values,
			Metadata: vector.EncodeMetadata(r.Metadata),
		}); err != nil {
			return fmt.Errorf("encode vector %s: %w", r.ID, err)
		}
	}

	if _, err := s.do(ctx, "/upsert", "application/x-ndjson", &body); err != nil {
		return err
	}
	logger.Debug("vectorize: upserted %d vectors into %s", len(records), s.indexName)
	return nil
}

// Query returns up to opts.TopK matches ordered by descending score.
func (s *SimilarityIndex) Query(ctx context.Context, vec []float32, opts driven.QueryOptions) ([]driven.VectorMatch, error) {
	if opts.TopK <= 0 {
		return nil, nil
	}

	returnMetadata := "none"
	if opts.ReturnMetadata {
		returnMetadata = "all"
	}
	body, err := json.Marshal(queryRequest{Vector: vec, TopK: opts.TopK, ReturnMetadata: returnMetadata})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	raw, err := s.do(ctx, "/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result queryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: vectorize: decode query result: %w", domain.ErrUpstreamFetch, err)
	}

	matches := make([]driven.VectorMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		match := driven.VectorMatch{ID: m.ID, Score: m.Score}
		if opts.ReturnMetadata {
			match.Metadata = vector.DecodeMetadata(m.Metadata)
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// Close releases resources.
func (s *SimilarityIndex) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// do posts to an index endpoint and returns the envelope's result.
func (s *SimilarityIndex) do(ctx context.Context, path, contentType string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.indexURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: vectorize %s: %w", domain.ErrUpstreamFetch, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: vectorize %s: read response: %w", domain.ErrUpstreamFetch, path, err)
	}

	var envelope apiResponse
	decodeErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode != http.StatusOK || decodeErr != nil || !envelope.Success {
		msg := strings.TrimSpace(string(raw))
		if len(envelope.Errors) > 0 {
			msg = envelope.Errors[0].Message
		}
		return nil, fmt.Errorf("%w: vectorize %s: status %d: %s", domain.ErrUpstreamFetch, path, resp.StatusCode, msg)
	}
	return envelope.Result, nil
}
