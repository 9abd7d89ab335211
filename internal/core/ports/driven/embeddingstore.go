package driven

import (
	"context"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// EmbeddingStore persists the metadata row kept for each stored vector.
// Rows are upserted by ID and never deleted.
type EmbeddingStore interface {
	// Insert upserts a single row.
	Insert(ctx context.Context, entry domain.EmbeddingIndexEntry) error

	// ExistsForGraph reports whether any row exists for the graph.
	ExistsForGraph(ctx context.Context, graphID string) (bool, error)

	// CountForGraph returns the number of rows for the graph.
	CountForGraph(ctx context.Context, graphID string) (int, error)

	// CountByGraphs returns row counts keyed by graph ID.
	// Graphs without rows are absent from the map.
	CountByGraphs(ctx context.Context, graphIDs []string) (map[string]int, error)

	// Count returns the total number of rows.
	Count(ctx context.Context) (int, error)

	// CountDistinctGraphs returns the number of graphs with at least one row.
	CountDistinctGraphs(ctx context.Context) (int, error)
}

// AnalyticsStore records executed searches.
type AnalyticsStore interface {
	// RecordSearch saves one search record.
	RecordSearch(ctx context.Context, record domain.SearchAnalytics) error
}
