package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or processor type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDimensionMismatch indicates an embedding whose length differs from
	// the dimensionality already established by the store.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Embedding Errors.

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector retrieval is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEmptyInput indicates empty text was passed to an embedding call.
	// It is never retried.
	ErrEmptyInput = errors.New("empty embedding input")

	// ErrProviderFailure indicates the embedding provider failed
	// (connectivity, timeout, server error, malformed response).
	ErrProviderFailure = errors.New("embedding provider failure")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
