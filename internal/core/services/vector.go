package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driven"
	"github.com/deepblue523/froggy-mcp-rag/internal/logger"
)

// Weights for hybrid score fusion.
const (
	hybridLexicalWeight = 0.5
	hybridVectorWeight  = 0.5
)

// vectorSearch ranks chunks by cosine similarity against the query
// embedding. Chunks without an embedding are excluded.
func (s *SearchService) vectorSearch(
	ctx context.Context,
	queryEmbedding []float32,
	limit int,
	streaming bool,
	cutoff time.Time,
) ([]scoredChunk, error) {
	if len(queryEmbedding) == 0 {
		return nil, nil
	}

	if streaming {
		return s.vectorStream(ctx, queryEmbedding, limit, cutoff)
	}

	chunks, err := s.store.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chunks: %w", err)
	}

	top := newTopK(limit)
	for _, chunk := range chunks {
		scoreVector(top, chunk, queryEmbedding, cutoff, false)
	}
	return top.results(), nil
}

func (s *SearchService) vectorStream(
	ctx context.Context,
	queryEmbedding []float32,
	limit int,
	cutoff time.Time,
) ([]scoredChunk, error) {
	opts := driven.ScanOptions{
		IncludeContent:   true,
		IncludeMetadata:  true,
		IncludeEmbedding: true,
		EmbeddingView:    true,
	}

	top := newTopK(limit)
	cursor := int64(0)
	for {
		batch, err := s.store.ScanChunks(ctx, cursor, s.batchSize, opts)
		if err != nil {
			return nil, fmt.Errorf("scanning chunks: %w", err)
		}

		for _, chunk := range batch.Chunks {
			scoreVector(top, chunk, queryEmbedding, cutoff, true)
		}

		cursor = batch.NextCursor
		if batch.Done {
			break
		}
	}
	return top.results(), nil
}

// scoreVector scores one chunk and offers it to the top-k buffer.
// dropEmbedding releases the embedding before buffering; streaming
// scans hand out views that are only valid within the current batch,
// and the buffer outlives every batch.
func scoreVector(top *topK, chunk domain.Chunk, queryEmbedding []float32, cutoff time.Time, dropEmbedding bool) {
	if len(chunk.Embedding) == 0 {
		return
	}
	if !cutoff.IsZero() && chunk.CreatedAt.Before(cutoff) {
		return
	}
	score := cosineSimilarity(queryEmbedding, chunk.Embedding)
	if dropEmbedding {
		chunk.Embedding = nil
	}
	top.add(scoredChunk{chunk: chunk, score: score})
}

// hybridSearch fuses BM25 and cosine rankings over a shared candidate
// set. BM25 selects limit*multiplier candidates; both scores are
// min-max normalised over the candidates and combined at equal weight.
// A candidate missing from one side contributes zero for that side.
func (s *SearchService) hybridSearch(
	ctx context.Context,
	terms []string,
	queryEmbedding []float32,
	limit int,
	multiplier int,
	streaming bool,
	cutoff time.Time,
) ([]scoredChunk, error) {
	if multiplier <= 0 {
		multiplier = domain.DefaultCandidateMultiplier
	}
	candidateLimit := limit * multiplier

	lexical, err := s.lexicalSearch(ctx, domain.AlgorithmBM25, terms, candidateLimit, streaming, cutoff)
	if err != nil {
		return nil, err
	}

	var candidates []scoredChunk
	if len(lexical) > 0 {
		candidates = lexical
	} else {
		// No lexical matches: fall back to ranking the whole corpus
		// by similarity so purely semantic queries still resolve.
		logger.Debug("Hybrid search: no lexical candidates, ranking by similarity only")
		vec, err := s.vectorSearch(ctx, queryEmbedding, candidateLimit, streaming, cutoff)
		if err != nil {
			return nil, err
		}
		candidates = vec
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	lexicalScores := make(map[string]float64, len(lexical))
	for _, sc := range lexical {
		lexicalScores[sc.chunk.ID] = sc.score
	}

	vectorScores, err := s.candidateVectorScores(ctx, candidates, queryEmbedding)
	if err != nil {
		return nil, err
	}

	lexNorm := minMaxNormalise(lexicalScores)
	vecNorm := minMaxNormalise(vectorScores)

	fused := make([]scoredChunk, 0, len(candidates))
	for _, sc := range candidates {
		score := hybridLexicalWeight*lexNorm[sc.chunk.ID] + hybridVectorWeight*vecNorm[sc.chunk.ID]
		fused = append(fused, scoredChunk{chunk: sc.chunk, score: score})
	}
	sortScored(fused)

	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

// candidateVectorScores computes cosine similarity for each candidate.
// Lexical candidates may have been scanned without their embedding
// column, so embeddings are fetched by ID rather than trusted in place.
func (s *SearchService) candidateVectorScores(
	ctx context.Context,
	candidates []scoredChunk,
	queryEmbedding []float32,
) (map[string]float64, error) {
	scores := make(map[string]float64, len(candidates))
	if len(queryEmbedding) == 0 {
		return scores, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, sc := range candidates {
		if len(sc.chunk.Embedding) > 0 {
			scores[sc.chunk.ID] = cosineSimilarity(queryEmbedding, sc.chunk.Embedding)
		} else {
			ids = append(ids, sc.chunk.ID)
		}
	}
	if len(ids) == 0 {
		return scores, nil
	}

	fetched, err := s.store.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetching candidate embeddings: %w", err)
	}
	for _, chunk := range fetched {
		if len(chunk.Embedding) > 0 {
			scores[chunk.ID] = cosineSimilarity(queryEmbedding, chunk.Embedding)
		}
	}
	return scores, nil
}

// minMaxNormalise rescales scores into [0,1]. When all scores are
// equal and non-zero every entry maps to 1.0, so a uniformly-scored
// side neither dominates nor vanishes; an all-zero side stays zero
// (mismatched or missing embeddings score 0 and must not contribute).
// Keys absent from the map stay absent and read back as zero.
func minMaxNormalise(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}

	min := math.Inf(1)
	max := math.Inf(-1)
	for _, v := range scores {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make(map[string]float64, len(scores))
	if max == min {
		fill := 1.0
		if max == 0 {
			fill = 0
		}
		for k := range scores {
			out[k] = fill
		}
		return out
	}
	for k, v := range scores {
		out[k] = (v - min) / (max - min)
	}
	return out
}

// cosineSimilarity returns the cosine of the angle between a and b,
// or 0 when the vectors differ in length or either has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
