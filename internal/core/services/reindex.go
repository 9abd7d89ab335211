package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/core/ports/driving"
	"github.com/vegvisr/graphvec/internal/logger"
)

// Ensure ReindexOrchestrator implements the interface.
var _ driving.ReindexService = (*ReindexOrchestrator)(nil)

// Default reindex throttle: one document per 100ms.
const (
	DefaultReindexRPS   = 10.0
	DefaultReindexBurst = 1
	DefaultSampleSize   = 5
)

// ReindexConfig holds the reindex throttle and sample defaults.
type ReindexConfig struct {
	RequestsPerSecond float64
	Burst             int
	SampleSize        int
}

// ReindexOrchestrator rebuilds the index over the whole corpus.
//
// Documents are processed strictly one after another, throttled by a token
// bucket. A graph that already has vectors is skipped. A failure at any step
// is counted against that document and the run moves on.
type ReindexOrchestrator struct {
	source     driven.GraphSource
	store      driven.EmbeddingStore
	pipeline   *EmbeddingPipeline
	writer     *vectorWriter
	limiter    *rate.Limiter
	sampleSize int
	now        func() time.Time
}

// NewReindexOrchestrator creates a new reindex orchestrator.
func NewReindexOrchestrator(
	source driven.GraphSource,
	store driven.EmbeddingStore,
	index driven.SimilarityIndex,
	pipeline *EmbeddingPipeline,
	cfg ReindexConfig,
) *ReindexOrchestrator {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultReindexRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultReindexBurst
	}
	sample := cfg.SampleSize
	if sample <= 0 {
		sample = DefaultSampleSize
	}

	return &ReindexOrchestrator{
		source:     source,
		store:      store,
		pipeline:   pipeline,
		writer:     &vectorWriter{index: index, store: store},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		sampleSize: sample,
		now:        time.Now,
	}
}

// ReindexAll processes every graph in the listing.
func (o *ReindexOrchestrator) ReindexAll(ctx context.Context) (*domain.ReindexSummary, error) {
	logger.Info("Starting batch reindexing")
	return o.run(ctx, 0, "Batch reindexing")
}

// ReindexSample processes the first count graphs of the listing.
// A non-positive count uses the configured sample size.
func (o *ReindexOrchestrator) ReindexSample(ctx context.Context, count int) (*domain.ReindexSummary, error) {
	if count <= 0 {
		count = o.sampleSize
	}
	logger.Info("Starting sample reindexing of %d graphs", count)
	return o.run(ctx, count, "Sample reindexing")
}

// run reindexes the listing. A positive limit truncates the listing.
func (o *ReindexOrchestrator) run(ctx context.Context, limit int, label string) (*domain.ReindexSummary, error) {
	start := o.now()

	if o.source == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, domain.ErrContentSourceUnavailable)
	}
	graphs, err := o.source.ListGraphs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list graphs: %w", domain.ErrUpstreamFetch, err)
	}
	if limit > 0 && len(graphs) > limit {
		graphs = graphs[:limit]
	}

	summary := &domain.ReindexSummary{TotalConsidered: len(graphs)}

	for i, g := range graphs {
		if i > 0 {
			if err := o.limiter.Wait(ctx); err != nil {
				summary.Interrupted = true
				break
			}
		}
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		o.processGraph(ctx, g.ID, summary)
	}

	summary.Duration = o.now().Sub(start)
	summary.ComputeSuccessRate()
	summary.Success = !summary.Interrupted

	status := "complete"
	if summary.Interrupted {
		status = "interrupted"
		logger.Warn("%s interrupted after %d of %d graphs", label,
			summary.Processed+summary.Skipped+summary.Empty+summary.Errors, summary.TotalConsidered)
	}
	summary.Message = fmt.Sprintf("%s %s", label, status)

	logger.Info("%s %s: %d processed, %d skipped, %d empty, %d errors of %d (%d%%) in %s",
		label, status, summary.Processed, summary.Skipped, summary.Empty, summary.Errors,
		summary.TotalConsidered, summary.SuccessRatePercent, summary.Duration.Round(time.Millisecond))

	return summary, nil
}

// processGraph runs one graph through lookup, fetch, extraction, embedding
// and persistence, updating the summary counters.
func (o *ReindexOrchestrator) processGraph(ctx context.Context, graphID string, summary *domain.ReindexSummary) {
	exists, err := o.store.ExistsForGraph(ctx, graphID)
	if err != nil {
		logger.Warn("Lookup failed for graph %s: %v", graphID, err)
		summary.Steps.Lookup++
		summary.Errors++
		return
	}
	if exists {
		logger.Debug("Graph %s already indexed, skipping", graphID)
		summary.Skipped++
		return
	}

	logger.Debug("Processing graph %s", graphID)

	doc, err := o.source.GetGraph(ctx, graphID)
	if err != nil {
		logger.Warn("Failed to fetch graph %s: %v", graphID, err)
		summary.Steps.Fetch++
		summary.Errors++
		return
	}
	if doc.ID == "" {
		doc.ID = graphID
	}

	chunks, err := ExtractChunks(doc)
	if err != nil {
		logger.Warn("Failed to extract graph %s: %v", graphID, err)
		summary.Steps.Extraction++
		summary.Errors++
		return
	}
	if len(chunks) == 0 {
		logger.Debug("No content to index in graph %s", graphID)
		summary.Empty++
		return
	}

	result := o.pipeline.Generate(ctx, chunks)
	summary.Steps.Embedding += len(result.Failures)
	if len(result.Records) == 0 {
		logger.Warn("No vectors generated for graph %s", graphID)
		summary.Errors++
		return
	}

	written, err := o.writer.write(ctx, result.Records)
	if err != nil {
		logger.Warn("Vector upsert failed for graph %s: %v", graphID, err)
		summary.Steps.VectorUpsert++
		summary.Errors++
		return
	}
	summary.Steps.MetadataInsert += len(written.rowErrors)

	logger.Info("Indexed graph %s: %d/%d vectors stored", graphID, written.rowsStored, len(result.Records))
	summary.Processed++
}
