package domain

import "time"

// DocumentStatus describes where a document is in its ingestion lifecycle.
type DocumentStatus string

// Document lifecycle states.
const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusError      DocumentStatus = "error"
)

// Document represents an ingested source.
// Its ID is the canonicalised source path, so re-ingesting the same
// source replaces the existing document rather than creating a sibling.
type Document struct {
	// ID is the canonicalised source path.
	ID string

	// Name is the human-readable display name.
	Name string

	// Type is the source type or file extension (e.g. "txt", "md").
	Type string

	// SizeBytes is the byte size of the extracted source text.
	SizeBytes int64

	// Status is the ingestion lifecycle state.
	Status DocumentStatus

	// IngestedAt is when the document was first ingested.
	IngestedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// Chunk is a bounded slice of a document's text, the atomic unit of
// ranking. Chunks for a document carry contiguous 0-based positions
// after any (re)processing.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the 0-based ordinal within the document.
	Position int

	// Embedding is the vector representation for semantic search.
	// Nil when embedding generation failed and no fallback was applied.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the chunk was produced.
	CreatedAt time.Time
}

// StoreStats summarises the persistent store for telemetry and display.
type StoreStats struct {
	DocumentCount int
	ChunkCount    int
	TotalBytes    int64
}
