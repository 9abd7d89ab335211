package driven

import (
	"context"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// SimilarityIndex stores vector records and answers nearest-neighbour queries.
// Upserts are idempotent on record ID. The index is append-only; stale
// records are overwritten by re-indexing, never deleted.
type SimilarityIndex interface {
	// Upsert inserts or replaces records by ID.
	Upsert(ctx context.Context, records []domain.VectorRecord) error

	// Query returns up to opts.TopK matches ordered by descending score.
	Query(ctx context.Context, vector []float32, opts QueryOptions) ([]VectorMatch, error)

	// Close releases resources.
	Close() error
}

// QueryOptions controls a similarity query.
type QueryOptions struct {
	// TopK is the maximum number of matches.
	TopK int

	// ReturnMetadata requests the stored metadata with each match.
	ReturnMetadata bool
}

// VectorMatch is one similarity query hit.
type VectorMatch struct {
	// ID is the vector record ID.
	ID string

	// Score is the similarity (higher is closer).
	Score float64

	// Metadata is populated when QueryOptions.ReturnMetadata is set.
	Metadata domain.VectorMetadata
}
