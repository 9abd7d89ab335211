package driving

import (
	"context"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// StatusService reports on the state of the index.
type StatusService interface {
	// VectorizationStatus reports vector counts for the given graphs.
	VectorizationStatus(ctx context.Context, graphIDs []string) (*domain.VectorizationStatus, error)

	// AnalyzeContent samples the corpus and estimates the indexing workload.
	AnalyzeContent(ctx context.Context, sampleSize int) (*domain.ContentAnalysis, error)

	// Health returns the service health.
	Health(ctx context.Context) domain.HealthStatus
}
