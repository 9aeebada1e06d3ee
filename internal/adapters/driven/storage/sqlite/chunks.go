package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"unsafe"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driven"
)

// ReplaceChunks deletes all prior chunks for the document and inserts
// the given ones inside a single transaction, then invalidates the
// term index. Re-ingestion therefore never mixes chunk generations.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("%w: deleting prior chunks: %w", domain.ErrTransaction, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %w", domain.ErrTransaction, err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, documentID, chunk.Content,
			chunk.Position, embeddingBlob, string(metadataJSON), chunk.CreatedAt); err != nil {
			return fmt.Errorf("%w: saving chunk: %w", domain.ErrTransaction, err)
		}
	}

	if err := invalidateTx(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrTransaction, err)
	}
	return nil
}

// SaveDocumentWithChunks upserts the document and replaces its chunks
// in one transaction. A concurrent reader sees either the prior
// document and chunks or the new ones, never a mixture.
func (s *Store) SaveDocumentWithChunks(
	ctx context.Context, doc *domain.Document, chunks []domain.Chunk,
) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is empty", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, type, size_bytes, status, ingested_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			size_bytes = excluded.size_bytes,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Name, doc.Type, doc.SizeBytes, string(doc.Status),
		doc.IngestedAt, doc.UpdatedAt); err != nil {
		return fmt.Errorf("%w: saving document: %w", domain.ErrTransaction, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("%w: deleting prior chunks: %w", domain.ErrTransaction, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %w", domain.ErrTransaction, err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, doc.ID, chunk.Content,
			chunk.Position, float32SliceToBytes(chunk.Embedding),
			string(metadataJSON), chunk.CreatedAt); err != nil {
			return fmt.Errorf("%w: saving chunk: %w", domain.ErrTransaction, err)
		}
	}

	if err := invalidateTx(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrTransaction, err)
	}
	return nil
}

// DeleteChunks removes all chunks for a document and invalidates the
// term index.
func (s *Store) DeleteChunks(ctx context.Context, documentID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("%w: deleting chunks: %w", domain.ErrTransaction, err)
	}

	if err := invalidateTx(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrTransaction, err)
	}
	return nil
}

// GetChunk retrieves a chunk by id.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, content, position, embedding, metadata, created_at
		FROM chunks WHERE id = ?
	`, id)

	return scanChunkRow(row)
}

// GetChunksByIDs retrieves the chunks for the given ids. Missing ids
// are skipped. Results are ordered by internal row id.
func (s *Store) GetChunksByIDs(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, document_id, content, position, embedding, metadata, created_at
		FROM chunks WHERE id IN (%s) ORDER BY rowid
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks by ids: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// GetChunks returns a document's chunks ordered by position.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, position, embedding, metadata, created_at
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// AllChunks materialises the whole chunk set, ordered by row id.
// Intended for small corpora; large corpora should use ScanChunks.
func (s *Store) AllChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, position, embedding, metadata, created_at
		FROM chunks ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying all chunks: %w", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// CountChunks returns the corpus chunk count.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// ScanChunks returns the next batch of chunks after cursor, ordered by
// internal row id. Keyset pagination keeps a full scan O(n) in total
// regardless of batch count, unlike OFFSET which re-reads skipped rows.
func (s *Store) ScanChunks(
	ctx context.Context, cursor int64, batchSize int, opts driven.ScanOptions,
) (*driven.ScanBatch, error) {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}

	contentCol := "''"
	if opts.IncludeContent || len(opts.ContainsAny) > 0 {
		contentCol = "content"
	}
	metadataCol := "'{}'"
	if opts.IncludeMetadata {
		metadataCol = "metadata"
	}
	embeddingCol := "NULL"
	if opts.IncludeEmbedding {
		embeddingCol = "embedding"
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT rowid, id, document_id, %s, position, %s, %s, created_at
		FROM chunks WHERE rowid > ?
		ORDER BY rowid LIMIT ?
	`, contentCol, embeddingCol, metadataCol), cursor, batchSize)
	if err != nil {
		return nil, fmt.Errorf("scanning chunks: %w", err)
	}
	defer rows.Close()

	batch := &driven.ScanBatch{NextCursor: cursor}
	scanned := 0

	for rows.Next() {
		var rowid int64
		var chunk domain.Chunk
		var embeddingBlob []byte
		var metadataJSON string

		if err := rows.Scan(&rowid, &chunk.ID, &chunk.DocumentID, &chunk.Content,
			&chunk.Position, &embeddingBlob, &metadataJSON, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk batch: %w", err)
		}

		scanned++
		batch.NextCursor = rowid

		if len(opts.ContainsAny) > 0 && !containsAnyFold(chunk.Content, opts.ContainsAny) {
			continue
		}
		if !opts.IncludeContent {
			chunk.Content = ""
		}

		if opts.IncludeEmbedding {
			if opts.EmbeddingView {
				chunk.Embedding = float32View(embeddingBlob)
			} else {
				chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
			}
		}

		if opts.IncludeMetadata && metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}

		batch.Chunks = append(batch.Chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunk batch: %w", err)
	}

	batch.Done = scanned < batchSize
	return batch, nil
}

// containsAnyFold reports whether content contains at least one of the
// given lowercase substrings, case-insensitively.
func containsAnyFold(content string, terms []string) bool {
	lower := strings.ToLower(content)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// float32View reinterprets the stored little-endian blob as a float32
// slice without copying. The view aliases the scan buffer and must not
// be retained past the batch. Falls back to a copy when the blob is
// not 4-byte aligned.
func float32View(data []byte) []float32 {
	if len(data) < 4 {
		return nil
	}
	if uintptr(unsafe.Pointer(&data[0]))%4 != 0 {
		return bytesToFloat32Slice(data)
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), len(data)/4)
}

// collectChunks scans all rows into chunks.
func collectChunks(rows *sql.Rows) ([]domain.Chunk, error) {
	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	var metadataJSON string

	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
		&chunk.Position, &embeddingBlob, &metadataJSON, &chunk.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}

// scanChunkRow scans a chunk from *sql.Row.
func scanChunkRow(row *sql.Row) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	var metadataJSON string

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
		&chunk.Position, &embeddingBlob, &metadataJSON, &chunk.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}
