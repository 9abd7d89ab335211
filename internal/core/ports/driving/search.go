package driving

import (
	"context"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
type SearchService interface {
	// Search runs a vector, keyword or hybrid search over the corpus.
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}
