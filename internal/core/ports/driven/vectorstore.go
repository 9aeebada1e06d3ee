package driven

import (
	"context"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
)

// ScanOptions selects the payload and pre-filter for a batch scan.
// Excluding payload keeps large streaming scans cheap.
type ScanOptions struct {
	// IncludeContent loads chunk text.
	IncludeContent bool

	// IncludeMetadata loads and decodes the metadata map.
	IncludeMetadata bool

	// IncludeEmbedding loads the embedding vector.
	IncludeEmbedding bool

	// EmbeddingView returns embeddings as views over the stored blob
	// bytes instead of freshly allocated slices. Views alias driver
	// memory and must not be retained past the batch.
	EmbeddingView bool

	// ContainsAny keeps only chunks whose content contains at least
	// one of the given substrings. The match is a cheap containment
	// check pushed into the store, intended as a correctness-preserving
	// pre-filter for lexical ranking. Empty means no filter.
	ContainsAny []string
}

// ScanBatch is one page of a cursor-based chunk scan.
type ScanBatch struct {
	// Chunks are the matching chunks, ordered by internal row id.
	Chunks []domain.Chunk

	// NextCursor resumes the scan after the last row of this batch.
	NextCursor int64

	// Done reports that no further rows exist.
	Done bool
}

// VectorStore is the durable record of documents and chunks, plus the
// derived document-frequency cache. Multi-row writes are atomic; reads
// of a missing id return domain.ErrNotFound, never a partial object.
type VectorStore interface {
	// SaveDocument inserts or replaces a document by id.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by id.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and all of its chunks in one
	// transaction and invalidates the term index.
	DeleteDocument(ctx context.Context, id string) error

	// Clear removes every document, chunk, and cached index.
	Clear(ctx context.Context) error

	// ReplaceChunks deletes all prior chunks for the document and
	// inserts the given ones inside a single transaction, then
	// invalidates the term index.
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// SaveDocumentWithChunks upserts the document and replaces its
	// chunks in one transaction, so a reader never observes the new
	// document with the old generation of chunks.
	SaveDocumentWithChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// DeleteChunks removes all chunks for a document and invalidates
	// the term index.
	DeleteChunks(ctx context.Context, documentID string) error

	// GetChunk retrieves a chunk by id.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunksByIDs retrieves the chunks for the given ids. Missing
	// ids are skipped, not errors.
	GetChunksByIDs(ctx context.Context, ids []string) ([]domain.Chunk, error)

	// GetChunks returns a document's chunks ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// AllChunks materialises the whole chunk set. Intended for small
	// corpora; large corpora should use ScanChunks.
	AllChunks(ctx context.Context) ([]domain.Chunk, error)

	// CountChunks returns the corpus chunk count.
	CountChunks(ctx context.Context) (int, error)

	// ScanChunks returns the next batch of chunks after cursor,
	// ordered by internal row id. Keyset pagination: total work is
	// O(n) over a full scan regardless of batch count.
	ScanChunks(ctx context.Context, cursor int64, batchSize int, opts ScanOptions) (*ScanBatch, error)

	// TermIndex returns the cached document-frequency index. ok is
	// false when the cache is absent or stale.
	TermIndex(ctx context.Context) (idx *domain.TermIndex, ok bool, err error)

	// StoreTermIndex atomically replaces the cached index and its
	// corpus statistics. The index is stamped with idx.Generation when
	// non-zero, otherwise with the live generation.
	StoreTermIndex(ctx context.Context, idx *domain.TermIndex) error

	// InvalidateTermIndex clears the cached index.
	InvalidateTermIndex(ctx context.Context) error

	// Generation returns the live cache generation. Every
	// chunk-mutating write bumps it.
	Generation(ctx context.Context) (int64, error)

	// Stats returns document count, chunk count, and summed byte size.
	Stats(ctx context.Context) (*domain.StoreStats, error)
}
