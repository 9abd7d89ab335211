package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

// Ensure SimilarityIndex implements the interface.
var _ driven.SimilarityIndex = (*SimilarityIndex)(nil)

// SimilarityIndex is an exact in-memory cosine index.
// It scans every record on query and suits development corpora and tests.
type SimilarityIndex struct {
	mu         sync.RWMutex
	dimensions int
	records    map[string]domain.VectorRecord
}

// NewSimilarityIndex creates an empty index. A positive dimensions value
// rejects records of any other size.
func NewSimilarityIndex(dimensions int) *SimilarityIndex {
	return &SimilarityIndex{
		dimensions: dimensions,
		records:    make(map[string]domain.VectorRecord),
	}
}

// Upsert inserts or replaces records by ID.
func (s *SimilarityIndex) Upsert(_ context.Context, records []domain.VectorRecord) error {
	for _, r := range records {
		if s.dimensions > 0 && len(r.Values) != s.dimensions {
			return fmt.Errorf("record %s: expected %d dimensions, got %d", r.ID, s.dimensions, len(r.Values))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		values := make([]float32, len(r.Values))
		copy(values, r.Values)
		r.Values = values
		s.records[r.ID] = r
	}
	return nil
}

// Query returns the top K records by cosine similarity.
func (s *SimilarityIndex) Query(
	_ context.Context, vector []float32, opts driven.QueryOptions,
) ([]driven.VectorMatch, error) {
	if opts.TopK <= 0 {
		return nil, nil
	}
	if s.dimensions > 0 && len(vector) != s.dimensions {
		return nil, fmt.Errorf("query: expected %d dimensions, got %d", s.dimensions, len(vector))
	}

	s.mu.RLock()
	matches := make([]driven.VectorMatch, 0, len(s.records))
	for _, r := range s.records {
		if len(r.Values) != len(vector) {
			continue
		}
		m := driven.VectorMatch{ID: r.ID, Score: cosine(vector, r.Values)}
		if opts.ReturnMetadata {
			m.Metadata = r.Metadata
		}
		matches = append(matches, m)
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > opts.TopK {
		matches = matches[:opts.TopK]
	}
	return matches, nil
}

// Len returns the number of stored records.
func (s *SimilarityIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close releases resources.
func (s *SimilarityIndex) Close() error {
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
