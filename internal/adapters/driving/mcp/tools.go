package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the search query"`
	SearchType string `json:"search_type,omitempty" jsonschema:"vector, keyword or hybrid (default hybrid)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of graphs to return (default 10, max 100)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results     []SearchResultOutput `json:"results"`
	Count       int                  `json:"count"`
	SearchType  string               `json:"search_type"`
	Message     string               `json:"message,omitempty"`
	Suggestions []string             `json:"suggestions,omitempty"`
}

// SearchResultOutput is one ranked graph.
type SearchResultOutput struct {
	GraphID   string          `json:"graph_id"`
	Score     float64         `json:"score"`
	MatchType string          `json:"match_type"`
	Matches   []MatchedOutput `json:"matches"`
}

// MatchedOutput is one piece of evidence for a result.
type MatchedOutput struct {
	NodeID      string  `json:"node_id,omitempty"`
	ContentType string  `json:"content_type"`
	Snippet     string  `json:"snippet"`
	Score       float64 `json:"score"`
}

// IndexGraphInput is the input schema for the index_graph tool.
type IndexGraphInput struct {
	GraphID string `json:"graph_id" jsonschema:"ID of the graph to index"`
	Force   bool   `json:"force,omitempty" jsonschema:"re-embed even if the graph already has vectors"`
}

// IndexGraphOutput is the output schema for the index_graph tool.
type IndexGraphOutput struct {
	GraphID           string   `json:"graph_id"`
	Message           string   `json:"message"`
	ContentChunks     int      `json:"content_chunks"`
	VectorsCreated    int      `json:"vectors_created"`
	AlreadyVectorized bool     `json:"already_vectorized"`
	Failures          []string `json:"failures,omitempty"`
}

// ReindexInput is the input schema for the reindex_all tool.
type ReindexInput struct {
	Sample int `json:"sample,omitempty" jsonschema:"only process the first N graphs of the listing"`
}

// ReindexOutput is the output schema for the reindex_all tool.
type ReindexOutput struct {
	Message     string `json:"message"`
	Processed   int    `json:"processed"`
	Skipped     int    `json:"skipped"`
	Empty       int    `json:"empty"`
	Errors      int    `json:"errors"`
	Total       int    `json:"total"`
	Interrupted bool   `json:"interrupted"`
}

// StatusInput is the input schema for the vectorization_status tool.
type StatusInput struct {
	GraphIDs []string `json:"graph_ids" jsonschema:"graph IDs to check"`
}

// StatusOutput is the output schema for the vectorization_status tool.
type StatusOutput struct {
	Graphs          []GraphStatusOutput `json:"graphs"`
	TotalGraphs     int                 `json:"total_graphs"`
	VectorizedCount int                 `json:"vectorized_count"`
}

// GraphStatusOutput is the state of one graph.
type GraphStatusOutput struct {
	GraphID      string `json:"graph_id"`
	IsVectorized bool   `json:"is_vectorized"`
	VectorCount  int    `json:"vector_count"`
}

// registerTools registers tool handlers for the configured ports.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search knowledge graphs by meaning and keywords",
	}, s.handleSearch)

	if s.ports.Index != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "index_graph",
			Description: "Vectorize a single knowledge graph",
		}, s.handleIndexGraph)
	}

	if s.ports.Reindex != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reindex_all",
			Description: "Vectorize every knowledge graph that has no vectors yet",
		}, s.handleReindexAll)
	}

	if s.ports.Status != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "vectorization_status",
			Description: "Report how many vectors each graph has",
		}, s.handleVectorizationStatus)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	resp, err := s.ports.Search.Search(ctx, domain.SearchRequest{
		Query:      input.Query,
		SearchType: domain.SearchType(input.SearchType),
		Limit:      input.Limit,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:     make([]SearchResultOutput, len(resp.Results)),
		Count:       resp.TotalResults,
		SearchType:  resp.SearchType.String(),
		Message:     resp.Message,
		Suggestions: resp.Suggestions,
	}

	for i, r := range resp.Results {
		matches := make([]MatchedOutput, len(r.MatchedContent))
		for j, m := range r.MatchedContent {
			matches[j] = MatchedOutput{
				NodeID:      m.NodeID,
				ContentType: m.ContentType,
				Snippet:     m.Snippet,
				Score:       m.Score,
			}
		}
		output.Results[i] = SearchResultOutput{
			GraphID:   r.GraphID,
			Score:     r.RelevanceScore,
			MatchType: string(r.MatchType),
			Matches:   matches,
		}
	}

	return nil, output, nil
}

// handleIndexGraph handles the index_graph tool invocation.
func (s *Server) handleIndexGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexGraphInput,
) (*mcp.CallToolResult, IndexGraphOutput, error) {
	action := domain.IndexActionUpsert
	if input.Force {
		action = domain.IndexActionForce
	}

	summary, err := s.ports.Index.IndexGraph(ctx, domain.IndexRequest{
		GraphID: input.GraphID,
		Action:  action,
	})
	if err != nil {
		return nil, IndexGraphOutput{}, err
	}

	return nil, IndexGraphOutput{
		GraphID:           summary.GraphID,
		Message:           summary.Message,
		ContentChunks:     summary.ContentChunks,
		VectorsCreated:    summary.VectorsCreated,
		AlreadyVectorized: summary.AlreadyVectorized,
		Failures:          summary.Failures,
	}, nil
}

// handleReindexAll handles the reindex_all tool invocation.
func (s *Server) handleReindexAll(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	var (
		summary *domain.ReindexSummary
		err     error
	)
	if input.Sample > 0 {
		summary, err = s.ports.Reindex.ReindexSample(ctx, input.Sample)
	} else {
		summary, err = s.ports.Reindex.ReindexAll(ctx)
	}
	if err != nil {
		return nil, ReindexOutput{}, err
	}

	return nil, ReindexOutput{
		Message:     summary.Message,
		Processed:   summary.Processed,
		Skipped:     summary.Skipped,
		Empty:       summary.Empty,
		Errors:      summary.Errors,
		Total:       summary.TotalConsidered,
		Interrupted: summary.Interrupted,
	}, nil
}

// handleVectorizationStatus handles the vectorization_status tool invocation.
func (s *Server) handleVectorizationStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	status, err := s.ports.Status.VectorizationStatus(ctx, input.GraphIDs)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	output := StatusOutput{
		Graphs:          make([]GraphStatusOutput, 0, len(status.StatusMap)),
		TotalGraphs:     status.TotalGraphs,
		VectorizedCount: status.VectorizedCount,
	}
	// Report in request order.
	seen := make(map[string]bool, len(input.GraphIDs))
	for _, id := range input.GraphIDs {
		st, ok := status.StatusMap[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		output.Graphs = append(output.Graphs, GraphStatusOutput{
			GraphID:      id,
			IsVectorized: st.IsVectorized,
			VectorCount:  st.VectorCount,
		})
	}

	return nil, output, nil
}
