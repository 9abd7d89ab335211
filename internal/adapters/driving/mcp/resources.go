package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for graphvec resources.
const uriScheme = "graphvec://"

// registerResources registers resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Status == nil {
		return
	}

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "health",
		Name:        "health",
		Description: "Service health",
		MIMEType:    "application/json",
	}, s.handleHealthResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "analysis",
		Name:        "content-analysis",
		Description: "Sampled estimate of the corpus indexing workload",
		MIMEType:    "application/json",
	}, s.handleAnalysisResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "graphs/{graphId}/status",
		Name:        "graph-status",
		Description: "Vectorization state of a single graph",
		MIMEType:    "application/json",
	}, s.handleGraphStatusResource)
}

// handleHealthResource returns the service health.
func (s *Server) handleHealthResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Status.Health(ctx))
}

// handleAnalysisResource returns a content analysis with the default sample size.
func (s *Server) handleAnalysisResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	analysis, err := s.ports.Status.AnalyzeContent(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("analysing content: %w", err)
	}
	return jsonResource(req.Params.URI, analysis)
}

// handleGraphStatusResource returns the vectorization state of one graph.
func (s *Server) handleGraphStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	graphID := extractGraphID(req.Params.URI)
	if graphID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	status, err := s.ports.Status.VectorizationStatus(ctx, []string{graphID})
	if err != nil {
		return nil, fmt.Errorf("getting graph status: %w", err)
	}

	st := status.StatusMap[graphID]
	return jsonResource(req.Params.URI, GraphStatusOutput{
		GraphID:      graphID,
		IsVectorized: st.IsVectorized,
		VectorCount:  st.VectorCount,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractGraphID extracts the graph ID from a URI like graphvec://graphs/{graphId}/status.
func extractGraphID(uri string) string {
	const prefix = uriScheme + "graphs/"
	const suffix = "/status"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(uri, suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
