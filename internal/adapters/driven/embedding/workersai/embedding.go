// Package workersai provides an embedding service adapter for Cloudflare Workers AI.
package workersai

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

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.cloudflare.com/client/v4"
	DefaultModel      = "@cf/baai/bge-base-en-v1.5"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768
)

// Config holds configuration for the Workers AI embedding service.
type Config struct {
	// AccountID is the Cloudflare account that owns the AI binding (required).
	AccountID string

	// APIToken is a Cloudflare API token with Workers AI access (required).
	APIToken string

	// BaseURL overrides the Cloudflare API root.
	BaseURL string

	// Model is the Workers AI model (default: @cf/baai/bge-base-en-v1.5).
	Model string

	Timeout    time.Duration
	Dimensions int
}

// EmbeddingService generates embeddings with Workers AI text embedding models.
type EmbeddingService struct {
	client     *http.Client
	runURL     string
	verifyURL  string
	model      string
	dimensions int
}

type runRequest struct {
	Text string `json:"text"`
}

// NewEmbeddingService creates a new Workers AI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("%w: workersai: account ID is required", domain.ErrValidation)
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("%w: workersai: API token is required", domain.ErrValidation)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		if d, ok := domain.EmbeddingDimensions()[cfg.Model]; ok {
			cfg.Dimensions = d
		} else {
			cfg.Dimensions = DefaultDimensions
		}
	}

	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIToken}))
	client.Timeout = cfg.Timeout

	base := strings.TrimRight(cfg.BaseURL, "/")
	return &EmbeddingService{
		client:     client,
		runURL:     fmt.Sprintf("%s/accounts/%s/ai/run/%s", base, url.PathEscape(cfg.AccountID), cfg.Model),
		verifyURL:  base + "/user/tokens/verify",
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(runRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.runURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: workersai: %w", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: workersai: status %d: %s",
			domain.ErrUpstreamFetch, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return ParseEmbedding(raw)
}

// ParseEmbedding extracts the first vector from a Workers AI response.
//
// Accepted shapes, in order: {"result":{"data":[[...]]}}, {"data":[[...]]},
// [[...]] and a bare [...] of numbers.
func ParseEmbedding(raw []byte) ([]float32, error) {
	var envelope struct {
		Result *struct {
			Data json.RawMessage `json:"data"`
		} `json:"result"`
		Data json.RawMessage `json:"data"`
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("%w: workersai: decode response: %w", domain.ErrInvalidVector, err)
		}
		switch {
		case envelope.Result != nil && len(envelope.Result.Data) > 0:
			return firstVector(envelope.Result.Data)
		case len(envelope.Data) > 0:
			return firstVector(envelope.Data)
		default:
			return nil, fmt.Errorf("%w: workersai: response has no data", domain.ErrInvalidVector)
		}
	}
	return firstVector(trimmed)
}

func firstVector(data json.RawMessage) ([]float32, error) {
	var nested []domain.RawVector
	if err := json.Unmarshal(data, &nested); err == nil {
		if len(nested) == 0 {
			return nil, fmt.Errorf("%w: workersai: empty data", domain.ErrInvalidVector)
		}
		return nested[0].Values()
	}

	var flat domain.RawVector
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("%w: workersai: unexpected embedding format", domain.ErrInvalidVector)
	}
	return flat.Values()
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping verifies the API token, which needs no inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.verifyURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("workersai: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: workersai: ping failed: %w", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: workersai: token verification returned status %d", domain.ErrUpstreamFetch, resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
