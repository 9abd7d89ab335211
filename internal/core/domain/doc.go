// Package domain defines the core business entities for graphvec.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - GraphDocument: A knowledge graph read from the content API
//   - ContentChunk: A unit of graph text submitted for embedding
//   - VectorRecord: An embedding as stored in the similarity index
//   - EmbeddingIndexEntry: The metadata row kept for each stored vector
//   - SearchResult: A ranked graph with the evidence that matched
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
