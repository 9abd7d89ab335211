package mcp

import (
	"github.com/vegvisr/graphvec/internal/core/ports/driving"
)

// Ports aggregates the driving ports exposed over MCP.
type Ports struct {
	// Search runs vector, keyword and hybrid searches.
	Search driving.SearchService

	// Index vectorizes a single graph.
	Index driving.IndexService

	// Reindex rebuilds the index over the corpus.
	Reindex driving.ReindexService

	// Status reports vectorization state.
	Status driving.StatusService
}

// Validate ensures all required ports are set.
// Only Search is required; tools for missing ports are not registered.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
