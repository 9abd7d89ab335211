package driven

import (
	"context"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// GraphSource provides read access to the knowledge-graph corpus.
type GraphSource interface {
	// ListGraphs returns every graph in the corpus.
	// Listings may omit nodes.
	ListGraphs(ctx context.Context) ([]domain.GraphSummary, error)

	// GetGraph returns the full document for a graph.
	// Returns domain.ErrNotFound if the graph does not exist.
	GetGraph(ctx context.Context, id string) (*domain.GraphDocument, error)
}

// GraphWatcher reports changes to the corpus as they happen.
type GraphWatcher interface {
	// Watch streams changes until ctx is cancelled, then closes the channel.
	Watch(ctx context.Context) (<-chan domain.GraphChange, error)
}
