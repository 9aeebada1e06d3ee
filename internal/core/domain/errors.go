package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or out-of-bounds input.
	// Configuration outside its allowed range is rejected with this
	// error before any write happens.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtraction indicates text extraction from a source failed.
	// The ingestion job is marked errored; the queue continues.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates the embedding provider failed.
	// Non-fatal: the processor substitutes a hashed fallback vector.
	ErrEmbedding = errors.New("embedding failed")

	// ErrTransaction indicates an atomic store write failed partway.
	// The whole transaction is rolled back; stored state is unchanged.
	ErrTransaction = errors.New("store transaction failed")

	// ErrEmbeddingUnavailable indicates no embedding service is
	// configured. Vector and hybrid search are disabled without one.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrQueueClosed indicates the ingestion worker has been stopped.
	ErrQueueClosed = errors.New("ingestion queue closed")
)
