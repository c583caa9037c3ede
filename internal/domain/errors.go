package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrChunkNotFound signals a missing chunk.
	ErrChunkNotFound = errors.New("chunk not found")
	// ErrChunkNotEmbedded signals a chunk without an attached embedding vector.
	ErrChunkNotEmbedded = errors.New("chunk has no embedding")
	// ErrInvalidArgument signals malformed caller input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmbeddingCountMismatch signals that a batch embedding call returned
	// a different number of vectors than texts submitted.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")

	// ErrRetrievalFailed signals an embedding or index failure during search.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrGenerationFailed signals that the generation model errored or
	// returned no candidate output.
	ErrGenerationFailed = errors.New("generation failed")
)
