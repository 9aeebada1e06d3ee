package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driven"
	"github.com/deepblue523/froggy-mcp-rag/internal/logger"
	"github.com/deepblue523/froggy-mcp-rag/internal/tokeniser"
)

// SearchService ranks stored chunks against a query using BM25,
// TF-IDF, cosine similarity, or a hybrid fusion of BM25 and cosine.
type SearchService struct {
	store     driven.VectorStore
	embedder  driven.EmbeddingService
	batchSize int
	now       func() time.Time
}

// SearchOption configures a SearchService.
type SearchOption func(*SearchService)

// WithSearchClock overrides the time source. Used in tests.
func WithSearchClock(now func() time.Time) SearchOption {
	return func(s *SearchService) { s.now = now }
}

// NewSearchService creates a search service backed by the given store.
// embedder may be nil; vector search then requires a caller-supplied
// query embedding, and hybrid degrades to BM25 without one.
func NewSearchService(store driven.VectorStore, embedder driven.EmbeddingService, opts ...SearchOption) *SearchService {
	s := &SearchService{
		store:     store,
		embedder:  embedder,
		batchSize: domain.DefaultBatchSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the selected ranking algorithm and post-processing
// pipeline. An empty or whitespace-only query returns empty results.
func (s *SearchService) Search(
	ctx context.Context,
	query string,
	queryEmbedding []float32,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}

	algorithm := opts.Algorithm
	if algorithm == "" {
		algorithm = domain.AlgorithmHybrid
	}
	if !algorithm.Valid() {
		return nil, fmt.Errorf("%w: unknown algorithm %q", domain.ErrInvalidInput, opts.Algorithm)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultLimit
	}

	batchSize := s.batchSize
	if opts.Retrieval.BatchSize > 0 {
		batchSize = opts.Retrieval.BatchSize
	}
	search := *s
	search.batchSize = batchSize

	streaming, err := search.useStreaming(ctx, opts.Retrieval)
	if err != nil {
		return nil, err
	}

	queryEmbedding, algorithm, err = search.resolveEmbedding(ctx, query, queryEmbedding, algorithm)
	if err != nil {
		return nil, err
	}

	cutoff := sinceCutoff(opts.Time, s.now())
	terms := tokeniser.Tokenise(query)

	// Post-processing can only shrink the set, so rank a wider slice
	// and trim to the limit after the pipeline has run.
	rankLimit := limit
	if postProcessingActive(opts.Retrieval, opts.Time) {
		rankLimit = limit * domain.DefaultCandidateMultiplier
	}

	logger.Section("search")
	logger.Debug("Searching %q with %s (limit %d, streaming %t)", query, algorithm, limit, streaming)

	var ranked []scoredChunk
	switch algorithm {
	case domain.AlgorithmBM25, domain.AlgorithmTFIDF:
		ranked, err = search.lexicalSearch(ctx, algorithm, terms, rankLimit, streaming, cutoff)
	case domain.AlgorithmVector:
		ranked, err = search.vectorSearch(ctx, queryEmbedding, rankLimit, streaming, cutoff)
	case domain.AlgorithmHybrid:
		ranked, err = search.hybridSearch(ctx, terms, queryEmbedding, rankLimit, opts.Retrieval.CandidateMultiplier, streaming, cutoff)
	}
	if err != nil {
		return nil, err
	}

	ranked = postProcess(ranked, opts.Retrieval, opts.Time, s.now())
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]domain.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, domain.SearchResult{
			ChunkID:    r.chunk.ID,
			DocumentID: r.chunk.DocumentID,
			Score:      r.score,
			Algorithm:  algorithm,
			Content:    r.chunk.Content,
			Metadata:   r.chunk.Metadata,
		})
	}
	logger.Debug("Search returned %d results", len(results))
	return results, nil
}

// useStreaming decides between materialising all chunks and batch
// scanning, based on corpus size against the streaming threshold.
func (s *SearchService) useStreaming(ctx context.Context, cfg domain.RetrievalConfig) (bool, error) {
	if cfg.ForceStreaming {
		return true, nil
	}
	threshold := cfg.StreamingThreshold
	if threshold <= 0 {
		threshold = domain.DefaultStreamingThreshold
	}
	count, err := s.store.CountChunks(ctx)
	if err != nil {
		return false, fmt.Errorf("counting chunks: %w", err)
	}
	return count > threshold, nil
}

// resolveEmbedding produces the query embedding for vector and hybrid
// search. When no embedding is available, hybrid degrades to BM25 and
// vector search fails.
func (s *SearchService) resolveEmbedding(
	ctx context.Context,
	query string,
	queryEmbedding []float32,
	algorithm domain.SearchAlgorithm,
) ([]float32, domain.SearchAlgorithm, error) {
	if algorithm != domain.AlgorithmVector && algorithm != domain.AlgorithmHybrid {
		return nil, algorithm, nil
	}
	if len(queryEmbedding) > 0 {
		return queryEmbedding, algorithm, nil
	}

	if s.embedder != nil {
		embedding, err := s.embedder.Embed(ctx, query)
		if err == nil && len(embedding) > 0 {
			return embedding, algorithm, nil
		}
		if err != nil {
			logger.Warn("Query embedding failed: %v", err)
		}
	}

	if algorithm == domain.AlgorithmHybrid {
		logger.Debug("No query embedding available, degrading hybrid to bm25")
		return nil, domain.AlgorithmBM25, nil
	}
	return nil, algorithm, fmt.Errorf("%w: vector search requires a query embedding", domain.ErrEmbeddingUnavailable)
}

func sinceCutoff(cfg domain.TimeConfig, now time.Time) time.Time {
	if cfg.SinceDays <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -cfg.SinceDays)
}

func postProcessingActive(retrieval domain.RetrievalConfig, timeCfg domain.TimeConfig) bool {
	return retrieval.ScoreThreshold > 0 ||
		retrieval.MaxChunksPerDoc > 0 ||
		retrieval.GroupByDoc ||
		retrieval.MaxContextTokens > 0 ||
		(timeCfg.DecayEnabled && timeCfg.HalfLifeDays > 0)
}
