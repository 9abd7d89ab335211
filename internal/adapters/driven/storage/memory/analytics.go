package memory

import (
	"context"
	"sync"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

// Ensure AnalyticsStore implements the interface.
var _ driven.AnalyticsStore = (*AnalyticsStore)(nil)

// AnalyticsStore is an in-memory implementation of driven.AnalyticsStore.
type AnalyticsStore struct {
	mu      sync.RWMutex
	records []domain.SearchAnalytics
}

// NewAnalyticsStore creates a new in-memory analytics store.
func NewAnalyticsStore() *AnalyticsStore {
	return &AnalyticsStore{}
}

// RecordSearch appends a search record.
func (s *AnalyticsStore) RecordSearch(_ context.Context, record domain.SearchAnalytics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Records returns a copy of all recorded searches.
func (s *AnalyticsStore) Records() []domain.SearchAnalytics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SearchAnalytics, len(s.records))
	copy(out, s.records)
	return out
}
