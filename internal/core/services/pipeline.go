package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/logger"
)

// defaultEmbedTimeout bounds a single embedding call when none is configured.
const defaultEmbedTimeout = 30 * time.Second

// PipelineResult holds the vectors produced from a batch of chunks and the
// chunks that failed.
type PipelineResult struct {
	Records  []domain.VectorRecord
	Failures []domain.ChunkFailure
}

// EmbeddingPipeline turns content chunks into vector records.
// Chunks are embedded one at a time; a failing chunk is recorded and skipped.
type EmbeddingPipeline struct {
	embedder driven.EmbeddingService
	timeout  time.Duration
	now      func() time.Time
}

// NewEmbeddingPipeline creates a pipeline. A non-positive timeout uses the default.
func NewEmbeddingPipeline(embedder driven.EmbeddingService, timeout time.Duration) *EmbeddingPipeline {
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}
	return &EmbeddingPipeline{
		embedder: embedder,
		timeout:  timeout,
		now:      time.Now,
	}
}

// SetClock replaces the clock used for record timestamps.
func (p *EmbeddingPipeline) SetClock(now func() time.Time) {
	p.now = now
}

// Generate embeds each chunk and builds its vector record.
func (p *EmbeddingPipeline) Generate(ctx context.Context, chunks []domain.ContentChunk) PipelineResult {
	result := PipelineResult{
		Records: make([]domain.VectorRecord, 0, len(chunks)),
	}

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			for _, rest := range chunks[i:] {
				result.Failures = append(result.Failures, chunkFailure(rest, err))
			}
			logger.Warn("Embedding interrupted for graph %s: %d chunks not processed", chunk.GraphID, len(chunks)-i)
			break
		}

		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}

		values, err := p.embed(ctx, chunk.Text)
		if err != nil {
			logger.Warn("Failed to vectorize %s chunk of graph %s (node %q): %v",
				chunk.Kind, chunk.GraphID, chunk.NodeID, err)
			result.Failures = append(result.Failures, chunkFailure(chunk, err))
			continue
		}

		result.Records = append(result.Records, p.record(chunk, values))
	}

	logger.Debug("Generated %d vectors from %d chunks (%d failed)",
		len(result.Records), len(chunks), len(result.Failures))
	return result
}

func (p *EmbeddingPipeline) embed(ctx context.Context, text string) ([]float32, error) {
	if p.embedder == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingGeneration, domain.ErrEmbeddingUnavailable)
	}

	embedCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	values, err := p.embedder.Embed(embedCtx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingGeneration, err)
	}
	if err := validateVector(values); err != nil {
		return nil, err
	}
	return values, nil
}

func (p *EmbeddingPipeline) record(chunk domain.ContentChunk, values []float32) domain.VectorRecord {
	extra := make(map[string]any, len(chunk.Metadata))
	for k, v := range chunk.Metadata {
		extra[k] = v
	}

	return domain.VectorRecord{
		ID:     AllocateVectorID(chunk.GraphID, chunk.Kind.String(), chunk.NodeID),
		Values: values,
		Metadata: domain.VectorMetadata{
			GraphID:     chunk.GraphID,
			NodeID:      chunk.NodeID,
			ContentType: chunk.Kind,
			Snippet:     truncateRunes(chunk.Text, domain.MaxSnippetChars),
			CreatedAt:   p.now().UTC(),
			Extra:       extra,
		},
	}
}

func chunkFailure(chunk domain.ContentChunk, err error) domain.ChunkFailure {
	return domain.ChunkFailure{
		GraphID: chunk.GraphID,
		NodeID:  chunk.NodeID,
		Kind:    chunk.Kind,
		Reason:  err.Error(),
	}
}

// validateVector rejects empty embeddings and embeddings with NaN or ±Inf components.
func validateVector(values []float32) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: empty embedding", domain.ErrInvalidVector)
	}
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: component %d is %v", domain.ErrInvalidVector, i, v)
		}
	}
	return nil
}
