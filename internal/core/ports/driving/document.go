package driving

import (
	"context"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
)

// DocumentService exposes read-only document and chunk queries.
type DocumentService interface {
	// GetDocuments returns all documents.
	GetDocuments(ctx context.Context) ([]domain.Document, error)

	// GetDocumentChunks returns a document's chunks in position order.
	GetDocumentChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a single chunk by id.
	GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error)

	// GetContent reassembles a document's text from its chunks.
	GetContent(ctx context.Context, documentID string) (string, error)

	// GetStats returns store-wide counts and sizes.
	GetStats(ctx context.Context) (*domain.StoreStats, error)
}
