// Package openai embeds text through the OpenAI embeddings endpoint or any
// API that speaks the same protocol.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 60 * time.Second

	fallbackDimensions = 1536
	maxErrorBody       = 4096
)

// Config configures the adapter. Only APIKey is required.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions requests shortened vectors from text-embedding-3 models.
	// Other models ignore it and report their native size.
	Dimensions int
}

// EmbeddingService calls POST {base}/embeddings with one input per request.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
	shortens   bool
}

type embeddingRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	EncodingFormat string `json:"encoding_format"`
	Dimensions     int    `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int              `json:"index"`
		Embedding domain.RawVector `json:"embedding"`
	} `json:"data"`
}

// apiError is the {"error": {...}} envelope returned on failure.
type apiError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *apiError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("openai: status %d (%s): %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("openai: status %d: %s", e.Status, e.Message)
}

// Unwrap classifies every API failure as an upstream failure.
func (e *apiError) Unwrap() error {
	return domain.ErrUpstreamFetch
}

// NewEmbeddingService builds the adapter. The key is sent as a bearer token
// by an oauth2 static token source.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrValidation)
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

	shortens := strings.HasPrefix(cfg.Model, "text-embedding-3-")
	dims := cfg.Dimensions
	if dims == 0 || !shortens {
		if known, ok := domain.EmbeddingDimensions()[cfg.Model]; ok {
			dims = known
		} else if dims == 0 {
			dims = fallbackDimensions
		}
	}

	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey}))
	client.Timeout = cfg.Timeout

	return &EmbeddingService{
		client:     client,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: dims,
		shortens:   shortens,
	}, nil
}

// Embed returns the embedding for text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	in := embeddingRequest{Model: s.model, Input: text, EncodingFormat: "float"}
	if s.shortens {
		in.Dimensions = s.dimensions
	}

	var out embeddingResponse
	if err := s.call(ctx, http.MethodPost, "/embeddings", in, &out); err != nil {
		return nil, err
	}
	for _, d := range out.Data {
		if d.Index == 0 {
			return d.Embedding.Values()
		}
	}
	return nil, fmt.Errorf("%w: openai: no embedding returned", domain.ErrInvalidVector)
}

// Dimensions returns the vector size requests produce.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the configured model.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists models, which checks the key without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.call(ctx, http.MethodGet, "/models", nil, nil)
}

// Close drops idle connections.
func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// call sends in as JSON (when non-nil) and decodes a 200 response into out
// (when non-nil). Non-200 responses become *apiError.
func (s *EmbeddingService) call(ctx context.Context, method, path string, in, out any) error {
	body := io.Reader(http.NoBody)
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("openai: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: openai: %w", domain.ErrUpstreamFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: openai: decode response: %w", domain.ErrUpstreamFetch, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil {
		envelope.Error.Status = resp.StatusCode
		return envelope.Error
	}
	return &apiError{Status: resp.StatusCode, Message: strings.TrimSpace(http.StatusText(resp.StatusCode))}
}
