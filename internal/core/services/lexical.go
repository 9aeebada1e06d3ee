package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driven"
	"github.com/deepblue523/froggy-mcp-rag/internal/logger"
	"github.com/deepblue523/froggy-mcp-rag/internal/tokeniser"
)

// BM25 parameters.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// ensureTermIndex returns the document-frequency cache, rebuilding it
// from a streaming scan when absent or stale and persisting the result.
func (s *SearchService) ensureTermIndex(ctx context.Context) (*domain.TermIndex, error) {
	idx, ok, err := s.store.TermIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading term index: %w", err)
	}
	if ok {
		return idx, nil
	}

	logger.Debug("Term index absent or stale, rebuilding")
	return s.rebuildTermIndex(ctx)
}

// rebuildTermIndex derives per-term chunk counts and corpus statistics
// from a batch scan, then persists them. The index is stamped with the
// generation observed before the scan, so a write landing mid-rebuild
// leaves the stored index stale rather than wrongly fresh.
func (s *SearchService) rebuildTermIndex(ctx context.Context) (*domain.TermIndex, error) {
	generation, err := s.store.Generation(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading generation: %w", err)
	}

	idx := &domain.TermIndex{
		DocFreq:    make(map[string]int),
		Generation: generation,
	}

	var tokenSum int64
	cursor := int64(0)
	for {
		batch, err := s.store.ScanChunks(ctx, cursor, s.batchSize, driven.ScanOptions{
			IncludeContent: true,
		})
		if err != nil {
			return nil, fmt.Errorf("scanning chunks for term index: %w", err)
		}

		for _, chunk := range batch.Chunks {
			terms := tokeniser.UniqueTerms(chunk.Content)
			for _, term := range terms {
				idx.DocFreq[term]++
			}
			tokenSum += int64(tokeniser.CountTokens(chunk.Content))
			idx.TotalChunks++
		}

		cursor = batch.NextCursor
		if batch.Done {
			break
		}
	}

	if idx.TotalChunks > 0 {
		idx.AvgChunkTokens = float64(tokenSum) / float64(idx.TotalChunks)
	}

	if err := s.store.StoreTermIndex(ctx, idx); err != nil {
		return nil, fmt.Errorf("persisting term index: %w", err)
	}

	logger.Debug("Term index rebuilt: %d terms over %d chunks (avg %.1f tokens)",
		len(idx.DocFreq), idx.TotalChunks, idx.AvgChunkTokens)
	return idx, nil
}

// lexicalSearch ranks chunks against the query terms with BM25 or
// TF-IDF, over a materialised chunk list or a streaming scan.
func (s *SearchService) lexicalSearch(
	ctx context.Context,
	algorithm domain.SearchAlgorithm,
	terms []string,
	limit int,
	streaming bool,
	cutoff time.Time,
) ([]scoredChunk, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	idx, err := s.ensureTermIndex(ctx)
	if err != nil {
		return nil, err
	}
	if idx.Empty() {
		return nil, nil
	}

	if streaming {
		return s.lexicalStream(ctx, algorithm, terms, limit, idx, cutoff)
	}

	chunks, err := s.store.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	top := newTopK(limit)
	for _, chunk := range chunks {
		scoreLexical(top, chunk, algorithm, terms, idx, cutoff)
	}
	return top.results(), nil
}

// lexicalStream is the batch-scan form of lexicalSearch. BM25 pushes a
// cheap substring containment pre-filter into the scan: a chunk that
// contains no query term as a substring scores zero, so skipping it
// preserves correctness while avoiding tokenisation.
func (s *SearchService) lexicalStream(
	ctx context.Context,
	algorithm domain.SearchAlgorithm,
	terms []string,
	limit int,
	idx *domain.TermIndex,
	cutoff time.Time,
) ([]scoredChunk, error) {
	opts := driven.ScanOptions{
		IncludeContent:  true,
		IncludeMetadata: true,
	}
	if algorithm == domain.AlgorithmBM25 {
		opts.ContainsAny = terms
	}

	top := newTopK(limit)
	cursor := int64(0)
	for {
		batch, err := s.store.ScanChunks(ctx, cursor, s.batchSize, opts)
		if err != nil {
			return nil, fmt.Errorf("scanning chunks: %w", err)
		}

		for _, chunk := range batch.Chunks {
			scoreLexical(top, chunk, algorithm, terms, idx, cutoff)
		}

		cursor = batch.NextCursor
		if batch.Done {
			break
		}
	}
	return top.results(), nil
}

// scoreLexical scores one chunk and records it when at least one query
// term matched. Chunks older than the cutoff are skipped.
func scoreLexical(
	top *topK,
	chunk domain.Chunk,
	algorithm domain.SearchAlgorithm,
	terms []string,
	idx *domain.TermIndex,
	cutoff time.Time,
) {
	if !cutoff.IsZero() && chunk.CreatedAt.Before(cutoff) {
		return
	}

	var score float64
	var matched bool
	if algorithm == domain.AlgorithmTFIDF {
		score, matched = tfidfScore(chunk.Content, terms, idx)
	} else {
		score, matched = bm25Score(chunk.Content, terms, idx)
	}
	if matched {
		top.add(scoredChunk{chunk: chunk, score: score})
	}
}

// bm25Score computes the classic BM25 score of content for the query
// terms. matched is false when no term occurs, which is distinct from
// a genuine zero score.
func bm25Score(content string, terms []string, idx *domain.TermIndex) (float64, bool) {
	freqs, total := tokeniser.TermFrequencies(content)
	if total == 0 {
		return 0, false
	}

	avgLen := idx.AvgChunkTokens
	if avgLen <= 0 {
		avgLen = float64(total)
	}

	n := float64(idx.TotalChunks)
	var score float64
	matched := false

	for _, term := range terms {
		tf := float64(freqs[term])
		if tf == 0 {
			continue
		}
		df := float64(idx.DocFreq[term])
		if df == 0 {
			continue
		}
		matched = true

		idf := math.Log((n - df + 0.5) / (df + 0.5))
		norm := bm25K1 * (1 - bm25B + bm25B*float64(total)/avgLen)
		score += idf * tf * (bm25K1 + 1) / (tf + norm)
	}
	return score, matched
}

// tfidfScore computes a length-unnormalised TF-IDF score: the sum over
// query terms of (tf/|tokens|) * ln(N/df).
func tfidfScore(content string, terms []string, idx *domain.TermIndex) (float64, bool) {
	freqs, total := tokeniser.TermFrequencies(content)
	if total == 0 {
		return 0, false
	}

	n := float64(idx.TotalChunks)
	var score float64
	matched := false

	for _, term := range terms {
		tf := float64(freqs[term])
		if tf == 0 {
			continue
		}
		df := float64(idx.DocFreq[term])
		if df == 0 {
			continue
		}
		matched = true

		score += (tf / float64(total)) * math.Log(n/df)
	}
	return score, matched
}
