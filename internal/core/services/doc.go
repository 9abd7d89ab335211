// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The indexing path is ExtractChunks -> EmbeddingPipeline -> SimilarityIndex
// and EmbeddingStore. SearchService reads the same state at query time.
//
// Services are pure Go with no CGO.
package services
