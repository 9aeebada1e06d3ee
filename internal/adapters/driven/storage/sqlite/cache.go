package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
)

// df_stats keys for the corpus-wide scalar statistics.
const (
	statTotalChunks = "total_chunks"
	statAvgTokens   = "avg_chunk_tokens"
	statGeneration  = "generation"
)

// Generation returns the live cache generation. Every chunk-mutating
// write bumps it, so cache consumers compare generations instead of
// re-deriving invalidation logic per call site.
func (s *Store) Generation(ctx context.Context) (int64, error) {
	var gen int64
	row := s.db.QueryRowContext(ctx,
		"SELECT value FROM store_meta WHERE key = 'generation'")
	if err := row.Scan(&gen); err != nil {
		return 0, fmt.Errorf("reading generation: %w", err)
	}
	return gen, nil
}

// TermIndex returns the cached document-frequency index. ok is false
// when the cache is absent or was built against an older generation.
func (s *Store) TermIndex(ctx context.Context) (*domain.TermIndex, bool, error) {
	live, err := s.Generation(ctx)
	if err != nil {
		return nil, false, err
	}

	idx := &domain.TermIndex{DocFreq: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM df_stats")
	if err != nil {
		return nil, false, fmt.Errorf("querying cache stats: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var key string
		var value float64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, false, fmt.Errorf("scanning cache stat: %w", err)
		}
		found = true
		switch key {
		case statTotalChunks:
			idx.TotalChunks = int(value)
		case statAvgTokens:
			idx.AvgChunkTokens = value
		case statGeneration:
			idx.Generation = int64(value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating cache stats: %w", err)
	}

	if !found || idx.Generation != live {
		return nil, false, nil
	}

	termRows, err := s.db.QueryContext(ctx, "SELECT term, freq FROM df_cache")
	if err != nil {
		return nil, false, fmt.Errorf("querying cache terms: %w", err)
	}
	defer termRows.Close()

	for termRows.Next() {
		var term string
		var freq int
		if err := termRows.Scan(&term, &freq); err != nil {
			return nil, false, fmt.Errorf("scanning cache term: %w", err)
		}
		idx.DocFreq[term] = freq
	}
	if err := termRows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating cache terms: %w", err)
	}

	return idx, true, nil
}

// StoreTermIndex atomically replaces the cached index and its corpus
// statistics. The index is stamped with idx.Generation when set, so a
// rebuild that started before a concurrent write stays marked stale;
// otherwise the live generation is used. Rebuilds are idempotent
// replace-all writes, so a concurrent rebuild race resolves as last
// writer wins.
func (s *Store) StoreTermIndex(ctx context.Context, idx *domain.TermIndex) error {
	live := idx.Generation
	if live == 0 {
		var err error
		if live, err = s.Generation(ctx); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM df_cache"); err != nil {
		return fmt.Errorf("%w: clearing cache terms: %w", domain.ErrTransaction, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM df_stats"); err != nil {
		return fmt.Errorf("%w: clearing cache stats: %w", domain.ErrTransaction, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO df_cache (term, freq) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("%w: preparing cache insert: %w", domain.ErrTransaction, err)
	}
	defer stmt.Close()

	for term, freq := range idx.DocFreq {
		if _, err := stmt.ExecContext(ctx, term, freq); err != nil {
			return fmt.Errorf("%w: inserting cache term: %w", domain.ErrTransaction, err)
		}
	}

	for key, value := range map[string]float64{
		statTotalChunks: float64(idx.TotalChunks),
		statAvgTokens:   idx.AvgChunkTokens,
		statGeneration:  float64(live),
	} {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO df_stats (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("%w: inserting cache stat: %w", domain.ErrTransaction, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrTransaction, err)
	}

	idx.Generation = live
	return nil
}

// InvalidateTermIndex clears the cached index.
func (s *Store) InvalidateTermIndex(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %w", domain.ErrTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := invalidateTx(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %w", domain.ErrTransaction, err)
	}
	return nil
}

// invalidateTx clears the cache tables and bumps the generation inside
// an existing transaction.
func invalidateTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM df_cache"); err != nil {
		return fmt.Errorf("%w: clearing cache terms: %w", domain.ErrTransaction, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM df_stats"); err != nil {
		return fmt.Errorf("%w: clearing cache stats: %w", domain.ErrTransaction, err)
	}
	return bumpGenerationTx(ctx, tx)
}

// bumpGenerationTx increments the live cache generation.
func bumpGenerationTx(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx,
		"UPDATE store_meta SET value = value + 1 WHERE key = 'generation'"); err != nil {
		return fmt.Errorf("%w: bumping generation: %w", domain.ErrTransaction, err)
	}
	return nil
}
