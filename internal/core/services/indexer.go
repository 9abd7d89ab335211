package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
	"github.com/vegvisr/graphvec/internal/core/ports/driving"
	"github.com/vegvisr/graphvec/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService vectorizes a single graph on demand.
type IndexService struct {
	source   driven.GraphSource
	store    driven.EmbeddingStore
	pipeline *EmbeddingPipeline
	writer   *vectorWriter
}

// NewIndexService creates a new index service.
// The source is optional when callers always supply the graph.
func NewIndexService(
	source driven.GraphSource,
	store driven.EmbeddingStore,
	index driven.SimilarityIndex,
	pipeline *EmbeddingPipeline,
) *IndexService {
	return &IndexService{
		source:   source,
		store:    store,
		pipeline: pipeline,
		writer:   &vectorWriter{index: index, store: store},
	}
}

// IndexGraph extracts, embeds and persists one graph.
//
// With the upsert action a graph that already has vectors is left alone.
// The force action re-embeds it; records keep their IDs, so this overwrites
// rather than duplicates.
func (s *IndexService) IndexGraph(ctx context.Context, req domain.IndexRequest) (*domain.IndexSummary, error) {
	graphID := strings.TrimSpace(req.GraphID)
	if graphID == "" {
		return nil, fmt.Errorf("%w: graphId is required", domain.ErrValidation)
	}

	action := req.Action
	if action == "" {
		action = domain.IndexActionUpsert
	}
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", domain.ErrValidation, action)
	}
	if req.Graph != nil && req.Graph.ID != "" && req.Graph.ID != graphID {
		return nil, fmt.Errorf("%w: graph data id %q does not match graphId %q",
			domain.ErrValidation, req.Graph.ID, graphID)
	}

	logger.Info("%s indexing graph: %s", action, graphID)

	summary := &domain.IndexSummary{GraphID: graphID}

	if action == domain.IndexActionUpsert {
		count, err := s.store.CountForGraph(ctx, graphID)
		if err != nil {
			return nil, fmt.Errorf("count existing vectors: %w", err)
		}
		if count > 0 {
			summary.Success = true
			summary.AlreadyVectorized = true
			summary.ExistingVectors = count
			summary.Message = fmt.Sprintf("Graph already vectorized with %d vectors", count)
			return summary, nil
		}
	}

	var doc *domain.GraphDocument
	if req.Graph != nil {
		cp := *req.Graph
		cp.ID = graphID
		doc = &cp
	} else {
		fetched, err := s.fetch(ctx, graphID)
		if err != nil {
			return nil, err
		}
		if fetched.ID == "" {
			fetched.ID = graphID
		}
		doc = fetched
	}

	chunks, err := ExtractChunks(doc)
	if err != nil {
		return nil, err
	}
	summary.ContentChunks = len(chunks)

	if len(chunks) == 0 {
		summary.Success = true
		summary.Message = "No content to vectorize"
		return summary, nil
	}

	result := s.pipeline.Generate(ctx, chunks)
	for _, f := range result.Failures {
		summary.Failures = append(summary.Failures, fmt.Sprintf("%s/%s: %s", f.Kind, f.NodeID, f.Reason))
	}

	if len(result.Records) == 0 {
		summary.Success = false
		summary.Message = "Failed to generate vectors"
		return summary, nil
	}

	written, err := s.writer.write(ctx, result.Records)
	if err != nil {
		return nil, err
	}
	summary.VectorsCreated = len(result.Records)
	summary.MetadataStored = written.rowsStored
	summary.Failures = append(summary.Failures, written.rowErrors...)

	summary.Success = true
	summary.Message = fmt.Sprintf("Successfully indexed %d content chunks", summary.VectorsCreated)
	logger.Info("Indexed graph %s: %d/%d vectors stored", graphID, written.rowsStored, len(result.Records))

	return summary, nil
}

func (s *IndexService) fetch(ctx context.Context, graphID string) (*domain.GraphDocument, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamFetch, domain.ErrContentSourceUnavailable)
	}
	logger.Debug("Fetching graph data for: %s", graphID)
	doc, err := s.source.GetGraph(ctx, graphID)
	if err != nil {
		return nil, fetchError(graphID, err)
	}
	logger.Debug("Fetched graph with %d nodes", len(doc.Nodes))
	return doc, nil
}

// fetchError wraps a graph source failure. Not-found passes through untouched.
func fetchError(graphID string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get graph %s: %w", graphID, err)
	}
	return fmt.Errorf("%w: get graph %s: %w", domain.ErrUpstreamFetch, graphID, err)
}
