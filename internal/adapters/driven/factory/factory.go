// Package factory builds driven adapters from application settings.
package factory

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vegvisr/graphvec/internal/adapters/driven/embedding/cache"
	ollamaembed "github.com/vegvisr/graphvec/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/vegvisr/graphvec/internal/adapters/driven/embedding/openai"
	"github.com/vegvisr/graphvec/internal/adapters/driven/embedding/workersai"
	"github.com/vegvisr/graphvec/internal/adapters/driven/knowledge/filesystem"
	"github.com/vegvisr/graphvec/internal/adapters/driven/knowledge/httpapi"
	"github.com/vegvisr/graphvec/internal/adapters/driven/storage/sqlite"
	"github.com/vegvisr/graphvec/internal/adapters/driven/vector/local"
	"github.com/vegvisr/graphvec/internal/adapters/driven/vector/qdrant"
	"github.com/vegvisr/graphvec/internal/adapters/driven/vector/vectorize"
	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// vectorDir is the local index directory inside the data directory.
const vectorDir = "vectors"

// Result holds the adapters built from settings.
type Result struct {
	// EmbeddingService is nil when no provider is configured or it is unreachable.
	EmbeddingService driven.EmbeddingService
	VectorIndex      driven.SimilarityIndex
	GraphSource      driven.GraphSource

	// GraphWatcher is set for the filesystem content provider only.
	GraphWatcher driven.GraphWatcher

	Store *sqlite.Store

	Warnings []string // Non-fatal issues that caused fallback.
	FellBack bool     // True if fell back to keyword-only search.
}

// Close releases all resources held by Result.
func (r *Result) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if c, ok := r.GraphSource.(io.Closer); ok {
		c.Close()
	}
	if r.Store != nil {
		r.Store.Close()
	}
}

// Build creates every adapter the services need. An unreachable embedding
// provider is not fatal: search falls back to keywords and a warning is recorded.
func Build(settings *domain.AppSettings) (*Result, error) {
	result := &Result{}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: opening metadata store: %w", domain.ErrPersistence, err)
	}
	result.Store = store

	source, err := CreateGraphSource(&settings.Content)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.GraphSource = source
	if w, ok := source.(driven.GraphWatcher); ok {
		result.GraphWatcher = w
	}

	index, err := CreateSimilarityIndex(settings, filepath.Join(filepath.Dir(store.Path()), vectorDir))
	if err != nil {
		result.Close()
		return nil, err
	}
	result.VectorIndex = index

	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		result.FellBack = true
	} else if embedder == nil {
		result.Warnings = append(result.Warnings,
			"no embedding provider configured; vector search is disabled")
		result.FellBack = true
	}
	result.EmbeddingService = embedder

	if embedder != nil && embedder.Dimensions() != settings.VectorIndex.Dimensions {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"embedding model %s produces %d dimensions but vector_index.dimensions is %d",
			embedder.ModelName(), embedder.Dimensions(), settings.VectorIndex.Dimensions))
	}

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil without error if no provider is configured.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'graphvec config set' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'graphvec config set' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := createProviderService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service for the configured
// provider, wrapped in the embedding cache when enabled.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := createProviderService(settings)
	if err != nil {
		return nil, err
	}
	if !settings.CacheEnabled {
		return svc, nil
	}

	cached, err := cache.New(svc, cache.Config{Dir: settings.CacheDir})
	if err != nil {
		svc.Close()
		return nil, err
	}
	return cached, nil
}

func createProviderService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[settings.Model]

	switch settings.Provider {
	case domain.EmbeddingProviderWorkersAI:
		svc, err := workersai.NewEmbeddingService(workersai.Config{
			AccountID:  settings.AccountID,
			APIToken:   settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: dimensions,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	case domain.EmbeddingProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: dimensions,
		}), nil

	case domain.EmbeddingProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    settings.Timeout,
			Dimensions: dimensions,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateSimilarityIndex creates the configured similarity index. Vectorize
// credentials fall back to the embedding credentials. The memory provider
// keeps its records under dir; an empty dir keeps them in process only.
func CreateSimilarityIndex(settings *domain.AppSettings, dir string) (driven.SimilarityIndex, error) {
	v := settings.EffectiveVectorIndex()

	switch v.Provider {
	case domain.VectorIndexMemory:
		idx, err := local.Open(dir, v.Dimensions)
		if err != nil {
			return nil, err
		}
		return idx, nil

	case domain.VectorIndexQdrant:
		idx, err := qdrant.New(qdrant.Config{
			Address:    v.Address,
			Collection: v.Name,
			APIKey:     v.APIKey,
			Dimensions: v.Dimensions,
			Timeout:    v.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil

	case domain.VectorIndexVectorize:
		idx, err := vectorize.New(vectorize.Config{
			AccountID: v.AccountID,
			APIToken:  v.APIKey,
			Index:     v.Name,
			BaseURL:   v.Address,
			Timeout:   v.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("%w: vector index provider %q", domain.ErrUnsupportedType, v.Provider)
	}
}

// CreateGraphSource creates the configured graph source.
func CreateGraphSource(settings *domain.ContentSettings) (driven.GraphSource, error) {
	switch settings.Provider {
	case domain.ContentProviderHTTP:
		return httpapi.New(httpapi.Config{
			BaseURL: settings.BaseURL,
			Timeout: settings.Timeout,
		}), nil

	case domain.ContentProviderFilesystem:
		if settings.Dir == "" {
			return nil, fmt.Errorf("%w: content.dir is required for the filesystem provider", domain.ErrValidation)
		}
		info, err := os.Stat(settings.Dir)
		if err != nil {
			return nil, fmt.Errorf("%w: content.dir: %w", domain.ErrValidation, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: content.dir %s is not a directory", domain.ErrValidation, settings.Dir)
		}
		return filesystem.New(settings.Dir), nil

	default:
		return nil, fmt.Errorf("%w: content provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}
