package memory

import (
	"context"
	"sync"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

// Ensure EmbeddingStore implements the interface.
var _ driven.EmbeddingStore = (*EmbeddingStore)(nil)

// EmbeddingStore is an in-memory implementation of driven.EmbeddingStore.
type EmbeddingStore struct {
	mu      sync.RWMutex
	entries map[string]domain.EmbeddingIndexEntry
	byGraph map[string]map[string]struct{}
}

// NewEmbeddingStore creates a new in-memory embedding store.
func NewEmbeddingStore() *EmbeddingStore {
	return &EmbeddingStore{
		entries: make(map[string]domain.EmbeddingIndexEntry),
		byGraph: make(map[string]map[string]struct{}),
	}
}

// Insert upserts a row by ID.
func (s *EmbeddingStore) Insert(_ context.Context, entry domain.EmbeddingIndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A row keeps its ID when its graph changes; drop the stale graph link.
	if old, ok := s.entries[entry.ID]; ok && old.GraphID != entry.GraphID {
		delete(s.byGraph[old.GraphID], entry.ID)
		if len(s.byGraph[old.GraphID]) == 0 {
			delete(s.byGraph, old.GraphID)
		}
	}

	s.entries[entry.ID] = entry
	ids, ok := s.byGraph[entry.GraphID]
	if !ok {
		ids = make(map[string]struct{})
		s.byGraph[entry.GraphID] = ids
	}
	ids[entry.ID] = struct{}{}
	return nil
}

// ExistsForGraph reports whether any row exists for the graph.
func (s *EmbeddingStore) ExistsForGraph(_ context.Context, graphID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byGraph[graphID]) > 0, nil
}

// CountForGraph returns the number of rows for the graph.
func (s *EmbeddingStore) CountForGraph(_ context.Context, graphID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byGraph[graphID]), nil
}

// CountByGraphs returns row counts for the graphs that have rows.
func (s *EmbeddingStore) CountByGraphs(_ context.Context, graphIDs []string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, id := range graphIDs {
		if n := len(s.byGraph[id]); n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

// Count returns the total number of rows.
func (s *EmbeddingStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// CountDistinctGraphs returns the number of graphs with rows.
func (s *EmbeddingStore) CountDistinctGraphs(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byGraph), nil
}

// Get returns a row by ID.
func (s *EmbeddingStore) Get(_ context.Context, id string) (domain.EmbeddingIndexEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return domain.EmbeddingIndexEntry{}, domain.ErrNotFound
	}
	return entry, nil
}
