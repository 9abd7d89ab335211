package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"

	"github.com/vegvisr/graphvec/internal/adapters/driven/storage/memory"
	"github.com/vegvisr/graphvec/internal/core/domain"
	"github.com/vegvisr/graphvec/internal/core/ports/driven"
)

const testDims = 256

// --- Mock implementations ---

// hashEmbedder implements driven.EmbeddingService with a bag-of-words hash.
// Texts sharing words get positive cosine similarity.
type hashEmbedder struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]error
	// override replaces the vector for a given text.
	override map[string][]float32
	// block makes Embed wait for context cancellation.
	block bool
}

func (m *hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err, ok := m.failOn[text]; ok {
		return nil, err
	}
	if v, ok := m.override[text]; ok {
		return v, nil
	}
	return hashVector(text), nil
}

func (m *hashEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *hashEmbedder) Dimensions() int { return testDims }
func (m *hashEmbedder) ModelName() string { return "hash-embed" }
func (m *hashEmbedder) Ping(_ context.Context) error { return nil }
func (m *hashEmbedder) Close() error { return nil }

func hashVector(text string) []float32 {
	v := make([]float32, testDims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%testDims]++
	}
	return v
}

// mockGraphSource implements driven.GraphSource for testing.
type mockGraphSource struct {
	graphs  []domain.GraphSummary
	docs    map[string]*domain.GraphDocument
	listErr error
	getErr  map[string]error

	mu   sync.Mutex
	gets []string
}

func newMockGraphSource(docs ...*domain.GraphDocument) *mockGraphSource {
	src := &mockGraphSource{docs: make(map[string]*domain.GraphDocument)}
	for _, d := range docs {
		src.graphs = append(src.graphs, domain.GraphSummary{
			ID:       d.ID,
			Metadata: d.Metadata,
			Nodes:    d.Nodes,
		})
		src.docs[d.ID] = d
	}
	return src
}

func (m *mockGraphSource) ListGraphs(_ context.Context) ([]domain.GraphSummary, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.graphs, nil
}

func (m *mockGraphSource) GetGraph(_ context.Context, id string) (*domain.GraphDocument, error) {
	m.mu.Lock()
	m.gets = append(m.gets, id)
	m.mu.Unlock()

	if err, ok := m.getErr[id]; ok {
		return nil, err
	}
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	// Callers may fill in a missing ID; hand out a copy.
	cp := *doc
	return &cp, nil
}

// mockIndex wraps the memory index with injectable failures.
type mockIndex struct {
	*memory.SimilarityIndex
	upsertErr error
	queryErr  error
	lastOpts  driven.QueryOptions
	upserts   int
	matches   []driven.VectorMatch
}

func newMockIndex() *mockIndex {
	return &mockIndex{SimilarityIndex: memory.NewSimilarityIndex(testDims)}
}

func (m *mockIndex) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	return m.SimilarityIndex.Upsert(ctx, records)
}

func (m *mockIndex) Query(ctx context.Context, vector []float32, opts driven.QueryOptions) ([]driven.VectorMatch, error) {
	m.lastOpts = opts
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.matches != nil {
		return m.matches, nil
	}
	return m.SimilarityIndex.Query(ctx, vector, opts)
}

// mockStore wraps the memory embedding store with injectable failures.
type mockStore struct {
	*memory.EmbeddingStore
	insertErr map[string]error
	existsErr error
	countErr  error
}

func newMockStore() *mockStore {
	return &mockStore{EmbeddingStore: memory.NewEmbeddingStore()}
}

func (m *mockStore) Insert(ctx context.Context, entry domain.EmbeddingIndexEntry) error {
	if err, ok := m.insertErr[entry.ID]; ok {
		return err
	}
	return m.EmbeddingStore.Insert(ctx, entry)
}

func (m *mockStore) ExistsForGraph(ctx context.Context, graphID string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.EmbeddingStore.ExistsForGraph(ctx, graphID)
}

func (m *mockStore) Count(ctx context.Context) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.EmbeddingStore.Count(ctx)
}

// failingAnalytics implements driven.AnalyticsStore and always fails.
type failingAnalytics struct {
	calls int
}

func (f *failingAnalytics) RecordSearch(_ context.Context, _ domain.SearchAnalytics) error {
	f.calls++
	return errors.New("analytics table missing")
}

// --- Fixtures ---

func boolPtr(b bool) *bool { return &b }

func norseGraph() *domain.GraphDocument {
	return &domain.GraphDocument{
		ID: "g1",
		Metadata: domain.GraphMetadata{
			Title:       "Norse Mythology",
			Description: "Gods of the north",
			Category:    "#Mythology #Norse",
			CreatedBy:   "tor@vegvisr.org",
		},
		Nodes: []domain.Node{
			{
				ID:    "n1",
				Label: "Odin",
				Info:  domain.TextInfo("Odin is the Allfather of the Norse gods"),
				Type:  "fulltext",
				Color: "#f4e2d8",
			},
		},
	}
}

func greekGraph() *domain.GraphDocument {
	return &domain.GraphDocument{
		ID: "g2",
		Metadata: domain.GraphMetadata{
			Title:       "Greek Mythology",
			Description: "Olympians and titans",
		},
		Nodes: []domain.Node{
			{ID: "z1", Label: "Zeus", Info: domain.TextInfo("Zeus rules Olympus with thunder")},
		},
	}
}
