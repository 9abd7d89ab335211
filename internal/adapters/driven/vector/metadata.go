// Package vector holds what the similarity index adapters share: the flat
// metadata layout stored next to every vector.
package vector

import (
	"time"

	"github.com/vegvisr/graphvec/internal/core/domain"
)

// Reserved metadata keys. Extra fields never override them.
const (
	KeyGraphID         = "graphId"
	KeyNodeID          = "nodeId"
	KeyContentType     = "contentType"
	KeyOriginalContent = "originalContent"
	KeyCreatedAt       = "createdAt"
)

var reserved = map[string]bool{
	KeyGraphID:         true,
	KeyNodeID:          true,
	KeyContentType:     true,
	KeyOriginalContent: true,
	KeyCreatedAt:       true,
}

// EncodeMetadata flattens metadata into the stored key/value layout.
func EncodeMetadata(meta domain.VectorMetadata) map[string]any {
	out := make(map[string]any, len(meta.Extra)+len(reserved))
	for k, v := range meta.Extra {
		if !reserved[k] {
			out[k] = v
		}
	}
	out[KeyGraphID] = meta.GraphID
	out[KeyNodeID] = meta.NodeID
	out[KeyContentType] = meta.ContentType.String()
	out[KeyOriginalContent] = meta.Snippet
	out[KeyCreatedAt] = meta.CreatedAt.UTC().Format(time.RFC3339Nano)
	return out
}

// DecodeMetadata rebuilds metadata from the stored layout.
// Missing or mistyped reserved keys decode to zero values.
func DecodeMetadata(stored map[string]any) domain.VectorMetadata {
	meta := domain.VectorMetadata{
		GraphID:     stringOf(stored[KeyGraphID]),
		NodeID:      stringOf(stored[KeyNodeID]),
		ContentType: domain.ChunkKind(stringOf(stored[KeyContentType])),
		Snippet:     stringOf(stored[KeyOriginalContent]),
	}
	if ts, err := time.Parse(time.RFC3339Nano, stringOf(stored[KeyCreatedAt])); err == nil {
		meta.CreatedAt = ts
	}

	for k, v := range stored {
		if reserved[k] {
			continue
		}
		if meta.Extra == nil {
			meta.Extra = make(map[string]any)
		}
		meta.Extra[k] = v
	}
	return meta
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
