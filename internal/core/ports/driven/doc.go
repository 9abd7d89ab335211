// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - GraphSource: Reads graph documents from the content API or a directory
//   - EmbeddingStore: Metadata rows for stored vectors (SQLite)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it, only keyword search runs.
//   - SimilarityIndex: Vector storage/search (Vectorize, Qdrant, memory).
//   - AnalyticsStore: Search analytics. Without it, searches are not recorded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
