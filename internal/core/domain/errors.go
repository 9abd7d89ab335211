package domain

import "errors"

// Domain errors represent business logic failures.
// Adapters wrap them with context using fmt.Errorf("%w: ...").
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotImplemented indicates functionality is not available in this build.
	ErrNotImplemented = errors.New("not implemented")

	// ErrUnsupportedType indicates an unknown provider name.
	ErrUnsupportedType = errors.New("unsupported type")

	// Request errors.

	// ErrValidation indicates missing or invalid request fields.
	// Rejected immediately, never retried.
	ErrValidation = errors.New("validation failed")

	// Pipeline errors.

	// ErrUpstreamFetch indicates the content API, embedding service or
	// similarity index was unreachable or answered with a non-success status.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrExtraction indicates a graph document could not be turned into chunks.
	ErrExtraction = errors.New("content extraction failed")

	// ErrEmbeddingGeneration indicates a single chunk could not be embedded.
	ErrEmbeddingGeneration = errors.New("embedding generation failed")

	// ErrInvalidVector indicates an embedding that is empty or has NaN/Inf components.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrPersistence indicates a vector upsert or metadata insert failed.
	ErrPersistence = errors.New("persistence failed")

	// Service availability.

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the similarity index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrContentSourceUnavailable indicates no graph source is configured.
	ErrContentSourceUnavailable = errors.New("content source unavailable")
)
