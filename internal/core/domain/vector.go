package domain

import (
	"fmt"
	"time"
)

// Storage limits for vector records.
const (
	// MaxVectorIDBytes is the similarity index's key length limit.
	MaxVectorIDBytes = 63

	// MaxSnippetChars bounds the snippet stored with each vector.
	MaxSnippetChars = 500

	// MaxPreviewChars bounds the content preview in the metadata store.
	MaxPreviewChars = 200
)

// RawVector is an embedding as decoded from a provider response. JSON null
// components decode to nil instead of silently becoming zero.
type RawVector []*float32

// Values returns the components, rejecting empty vectors and null components.
func (r RawVector) Values() ([]float32, error) {
	if len(r) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrInvalidVector)
	}
	out := make([]float32, len(r))
	for i, v := range r {
		if v == nil {
			return nil, fmt.Errorf("%w: component %d is null", ErrInvalidVector, i)
		}
		out[i] = *v
	}
	return out, nil
}

// VectorRecord is one embedding as stored in the similarity index.
type VectorRecord struct {
	// ID is derived deterministically from graph, content type and node.
	ID       string
	Values   []float32
	Metadata VectorMetadata
}

// VectorMetadata is stored alongside each vector and returned on query.
type VectorMetadata struct {
	GraphID     string
	NodeID      string
	ContentType ChunkKind
	Snippet     string
	CreatedAt   time.Time

	// Extra holds chunk metadata (titles, node types, ...).
	Extra map[string]any
}

// EmbeddingIndexEntry is the metadata-store row for a stored vector.
// ID and VectorID are both the vector record's ID.
type EmbeddingIndexEntry struct {
	ID             string
	GraphID        string
	NodeID         string
	EmbeddingType  ChunkKind
	ContentHash    string
	ContentPreview string
	VectorID       string
	MetadataJSON   string
	CreatedAt      time.Time
}

// ChunkFailure records why a single chunk produced no vector.
type ChunkFailure struct {
	GraphID string
	NodeID  string
	Kind    ChunkKind
	Reason  string
}
