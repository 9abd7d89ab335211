// Package mcp provides an MCP (Model Context Protocol) server adapter for graphvec.
// It lets AI assistants search the knowledge-graph index and trigger indexing.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
