package domain

// ChunkKind identifies what part of a graph a chunk was extracted from.
type ChunkKind string

// Chunk kinds.
const (
	ChunkGraphSummary ChunkKind = "graph_summary"
	ChunkNodeLabel    ChunkKind = "node_label"
	ChunkNodeContent  ChunkKind = "node_content"
)

// IsValid returns true if the kind is recognised.
func (k ChunkKind) IsValid() bool {
	switch k {
	case ChunkGraphSummary, ChunkNodeLabel, ChunkNodeContent:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ChunkKind) String() string {
	return string(k)
}

// ContentChunk is the smallest unit of text submitted for embedding.
// Chunks are ephemeral and never persisted directly.
type ContentChunk struct {
	GraphID string

	// NodeID is empty only for the graph summary chunk.
	NodeID string

	Kind ChunkKind
	Text string

	// Metadata carries kind-specific descriptive fields into the vector record.
	Metadata map[string]any
}
