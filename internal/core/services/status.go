package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/core/ports/driving"
	"github.com/vegvisr/graphvec/internal/logger"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// ServiceName identifies this service in health responses.
const ServiceName = "graphvec"

// Content analysis limits.
const (
	maxContentSamples   = 5
	samplePreviewLength = 100
)

// StatusService reports on vectorization state and corpus shape.
type StatusService struct {
	source     driven.GraphSource
	store      driven.EmbeddingStore
	sampleSize int
	now        func() time.Time
}

// NewStatusService creates a new status service.
func NewStatusService(source driven.GraphSource, store driven.EmbeddingStore, sampleSize int) *StatusService {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &StatusService{
		source:     source,
		store:      store,
		sampleSize: sampleSize,
		now:        time.Now,
	}
}

// VectorizationStatus reports vector counts for the given graphs.
func (s *StatusService) VectorizationStatus(
	ctx context.Context, graphIDs []string,
) (*domain.VectorizationStatus, error) {
	ids := make([]string, 0, len(graphIDs))
	seen := make(map[string]bool, len(graphIDs))
	for _, id := range graphIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: graph IDs array is required", domain.ErrValidation)
	}

	counts, err := s.store.CountByGraphs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count vectors: %w", err)
	}

	status := &domain.VectorizationStatus{
		StatusMap:   make(map[string]domain.GraphVectorStatus, len(ids)),
		TotalGraphs: len(ids),
	}
	for _, id := range ids {
		n := counts[id]
		status.StatusMap[id] = domain.GraphVectorStatus{IsVectorized: n > 0, VectorCount: n}
		if n > 0 {
			status.VectorizedCount++
		}
	}
	return status, nil
}

// AnalyzeContent fetches the first sampleSize graphs in full and projects
// node and vector totals over the whole corpus.
func (s *StatusService) AnalyzeContent(ctx context.Context, sampleSize int) (*domain.ContentAnalysis, error) {
	if sampleSize <= 0 {
		sampleSize = s.sampleSize
	}
	if s.source == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, domain.ErrContentSourceUnavailable)
	}

	graphs, err := s.source.ListGraphs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list graphs: %w", domain.ErrUpstreamFetch, err)
	}

	sample := graphs
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	analysis := &domain.ContentAnalysis{
		TotalGraphs:   len(graphs),
		SampleSize:    len(sample),
		ContentTypes:  make(map[string]int),
		SampleContent: []domain.ContentSample{},
	}

	for _, g := range sample {
		doc, err := s.source.GetGraph(ctx, g.ID)
		if err != nil {
			logger.Warn("Failed to fetch graph %s: %v", g.ID, err)
			analysis.FetchErrors++
			continue
		}
		analysis.SampledNodes += len(doc.Nodes)

		for _, node := range doc.Nodes {
			if !node.Info.IsPresent() {
				continue
			}
			text, contentType, err := nodeInfoText(node.Info)
			if err != nil {
				continue
			}
			analysis.ContentTypes[contentType]++
			analysis.EstimatedVectors++

			if len(analysis.SampleContent) < maxContentSamples {
				analysis.SampleContent = append(analysis.SampleContent, domain.ContentSample{
					GraphID:        doc.ID,
					NodeID:         node.ID,
					NodeLabel:      node.Label,
					ContentPreview: truncateRunes(text, samplePreviewLength) + "...",
					ContentType:    contentType,
				})
			}
		}
		logger.Debug("Graph %s: %d nodes", g.ID, len(doc.Nodes))
	}

	if analysis.SampleSize > 0 && analysis.SampledNodes > 0 {
		perGraph := float64(analysis.TotalGraphs) / float64(analysis.SampleSize)
		analysis.EstimatedTotalNodes = int(math.Round(float64(analysis.SampledNodes) * perGraph))
		analysis.EstimatedTotalVectors = int(math.Round(float64(analysis.EstimatedVectors) * perGraph))
	}

	vectorized, err := s.store.CountDistinctGraphs(ctx)
	if err != nil {
		return nil, fmt.Errorf("count vectorized graphs: %w", err)
	}
	analysis.CurrentlyVectorized = vectorized
	analysis.NeedsVectorization = max(0, analysis.TotalGraphs-vectorized)

	return analysis, nil
}

// Health returns the service health.
func (s *StatusService) Health(_ context.Context) domain.HealthStatus {
	return domain.HealthStatus{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}
}
