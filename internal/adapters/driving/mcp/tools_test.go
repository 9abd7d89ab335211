package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			resp: &domain.SearchResponse{
				Query:        "odin",
				SearchType:   domain.SearchTypeHybrid,
				TotalResults: 1,
				Results: []domain.SearchResult{{
					GraphID:        "g1",
					RelevanceScore: 0.91,
					MatchType:      domain.MatchHybrid,
					MatchedContent: []domain.MatchedContent{
						{NodeID: "n1", ContentType: "node_label", Snippet: "Odin", Score: 0.91},
					},
				}},
			},
		}
		server := newTestServer(t, &Ports{Search: mockSearch})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "odin", SearchType: "hybrid", Limit: 5})

		require.NoError(t, err)
		assert.Equal(t, domain.SearchTypeHybrid, mockSearch.lastReq.SearchType)
		assert.Equal(t, 5, mockSearch.lastReq.Limit)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "g1", output.Results[0].GraphID)
		assert.Equal(t, "hybrid", output.Results[0].MatchType)
		require.Len(t, output.Results[0].Matches, 1)
		assert.Equal(t, "n1", output.Results[0].Matches[0].NodeID)
	})

	t.Run("passes empty index notice through", func(t *testing.T) {
		mockSearch := &mockSearchService{
			resp: &domain.SearchResponse{
				SearchType:  domain.SearchTypeVector,
				Message:     "No vectorized content found",
				Suggestions: domain.EmptyIndexSuggestions(),
			},
		}
		server := newTestServer(t, &Ports{Search: mockSearch})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "odin", SearchType: "vector"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotEmpty(t, output.Message)
		assert.NotEmpty(t, output.Suggestions)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{err: errors.New("search failed")}})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleIndexGraph(t *testing.T) {
	ctx := context.Background()

	t.Run("upsert by default", func(t *testing.T) {
		mockIndex := &mockIndexService{summary: &domain.IndexSummary{
			Success: true, GraphID: "g1", ContentChunks: 3, VectorsCreated: 3,
		}}
		server := newTestServer(t, &Ports{Search: &mockSearchService{}, Index: mockIndex})

		_, output, err := server.handleIndexGraph(ctx, nil, IndexGraphInput{GraphID: "g1"})

		require.NoError(t, err)
		assert.Equal(t, domain.IndexActionUpsert, mockIndex.lastReq.Action)
		assert.Equal(t, 3, output.VectorsCreated)
	})

	t.Run("force", func(t *testing.T) {
		mockIndex := &mockIndexService{summary: &domain.IndexSummary{GraphID: "g1"}}
		server := newTestServer(t, &Ports{Search: &mockSearchService{}, Index: mockIndex})

		_, _, err := server.handleIndexGraph(ctx, nil, IndexGraphInput{GraphID: "g1", Force: true})

		require.NoError(t, err)
		assert.Equal(t, domain.IndexActionForce, mockIndex.lastReq.Action)
	})

	t.Run("error", func(t *testing.T) {
		mockIndex := &mockIndexService{err: domain.ErrValidation}
		server := newTestServer(t, &Ports{Search: &mockSearchService{}, Index: mockIndex})

		_, _, err := server.handleIndexGraph(ctx, nil, IndexGraphInput{})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestServer_handleReindexAll(t *testing.T) {
	ctx := context.Background()
	summary := &domain.ReindexSummary{Processed: 2, Skipped: 1, TotalConsidered: 3}

	t.Run("full run", func(t *testing.T) {
		mockReindex := &mockReindexService{summary: summary}
		server := newTestServer(t, &Ports{Search: &mockSearchService{}, Reindex: mockReindex})

		_, output, err := server.handleReindexAll(ctx, nil, ReindexInput{})

		require.NoError(t, err)
		assert.Equal(t, 1, mockReindex.allCalls)
		assert.Equal(t, 0, mockReindex.sampleCalls)
		assert.Equal(t, 2, output.Processed)
		assert.Equal(t, 3, output.Total)
	})

	t.Run("sample", func(t *testing.T) {
		mockReindex := &mockReindexService{summary: summary}
		server := newTestServer(t, &Ports{Search: &mockSearchService{}, Reindex: mockReindex})

		_, _, err := server.handleReindexAll(ctx, nil, ReindexInput{Sample: 4})

		require.NoError(t, err)
		assert.Equal(t, 0, mockReindex.allCalls)
		assert.Equal(t, 4, mockReindex.lastCount)
	})
}

func TestServer_handleVectorizationStatus(t *testing.T) {
	mockStatus := &mockStatusService{status: &domain.VectorizationStatus{
		StatusMap: map[string]domain.GraphVectorStatus{
			"g1": {IsVectorized: true, VectorCount: 3},
			"g2": {},
		},
		TotalGraphs:     2,
		VectorizedCount: 1,
	}}
	server := newTestServer(t, &Ports{Search: &mockSearchService{}, Status: mockStatus})

	_, output, err := server.handleVectorizationStatus(context.Background(), nil,
		StatusInput{GraphIDs: []string{"g2", "g1", "g2"}})

	require.NoError(t, err)
	require.Len(t, output.Graphs, 2)
	assert.Equal(t, "g2", output.Graphs[0].GraphID)
	assert.Equal(t, "g1", output.Graphs[1].GraphID)
	assert.Equal(t, 3, output.Graphs[1].VectorCount)
	assert.Equal(t, 1, output.VectorizedCount)
}
