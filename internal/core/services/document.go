package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driven"
)

// DocumentService exposes read-only document and chunk queries over
// the store.
type DocumentService struct {
	store driven.VectorStore
}

// NewDocumentService creates a document query service.
func NewDocumentService(store driven.VectorStore) *DocumentService {
	return &DocumentService{store: store}
}

// GetDocuments returns all documents.
func (s *DocumentService) GetDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx)
}

// GetDocumentChunks returns a document's chunks in position order.
func (s *DocumentService) GetDocumentChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.GetChunks(ctx, documentID)
}

// GetChunk retrieves a single chunk by id.
func (s *DocumentService) GetChunk(ctx context.Context, chunkID string) (*domain.Chunk, error) {
	return s.store.GetChunk(ctx, chunkID)
}

// GetContent reassembles a document's text from its chunks in
// position order. Overlap between adjacent chunks is not deduplicated;
// the result is the chunked view of the document, not the original
// byte-for-byte source.
func (s *DocumentService) GetContent(ctx context.Context, documentID string) (string, error) {
	chunks, err := s.GetDocumentChunks(ctx, documentID)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("document %s has no chunks: %w", documentID, domain.ErrNotFound)
	}

	var b strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(chunk.Content)
	}
	return b.String(), nil
}

// GetStats returns store-wide counts and sizes.
func (s *DocumentService) GetStats(ctx context.Context) (*domain.StoreStats, error) {
	return s.store.Stats(ctx)
}
