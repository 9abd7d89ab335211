package driving

import (
	"context"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// IndexService vectorizes a single graph.
type IndexService interface {
	// IndexGraph extracts, embeds and persists one graph.
	IndexGraph(ctx context.Context, req domain.IndexRequest) (*domain.IndexSummary, error)
}

// ReindexService rebuilds the index over the whole corpus.
type ReindexService interface {
	// ReindexAll processes every graph that has no vectors yet.
	ReindexAll(ctx context.Context) (*domain.ReindexSummary, error)

	// ReindexSample processes at most count graphs from the listing.
	ReindexSample(ctx context.Context, count int) (*domain.ReindexSummary, error)
}
