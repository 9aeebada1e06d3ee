package services

import (
	"math"
	"time"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/logger"
	"github.com/deepblue523/froggy-mcp-rag/internal/tokeniser"
)

// postProcess applies the post-ranking pipeline in a fixed order:
// score threshold, per-document cap, time decay, token budget, then
// grouping. Each stage preserves rank order; decay re-sorts because it
// can reorder results.
func postProcess(results []scoredChunk, retrieval domain.RetrievalConfig, timeCfg domain.TimeConfig, now time.Time) []scoredChunk {
	if retrieval.ScoreThreshold > 0 {
		results = applyScoreThreshold(results, retrieval.ScoreThreshold)
	}
	if retrieval.MaxChunksPerDoc > 0 {
		results = applyPerDocCap(results, retrieval.MaxChunksPerDoc)
	}
	if timeCfg.DecayEnabled && timeCfg.HalfLifeDays > 0 {
		results = applyTimeDecay(results, timeCfg.HalfLifeDays, now)
	}
	if retrieval.MaxContextTokens > 0 {
		results = applyTokenBudget(results, retrieval.MaxContextTokens)
	}
	if retrieval.GroupByDoc {
		results = groupByDocument(results)
	}
	return results
}

func applyScoreThreshold(results []scoredChunk, threshold float64) []scoredChunk {
	kept := results[:0]
	for _, r := range results {
		if r.score >= threshold {
			kept = append(kept, r)
		}
	}
	if len(kept) < len(results) {
		logger.Debug("Score threshold %.3f dropped %d results", threshold, len(results)-len(kept))
	}
	return kept
}

// applyPerDocCap keeps at most maxPerDoc chunks per document. Results
// arrive ranked, so the first occurrences of a document are its best.
func applyPerDocCap(results []scoredChunk, maxPerDoc int) []scoredChunk {
	counts := make(map[string]int)
	kept := results[:0]
	for _, r := range results {
		if counts[r.chunk.DocumentID] >= maxPerDoc {
			continue
		}
		counts[r.chunk.DocumentID]++
		kept = append(kept, r)
	}
	return kept
}

// applyTimeDecay multiplies every score by 2^(-ageDays/halfLifeDays)
// and re-sorts, since decay can reorder results.
func applyTimeDecay(results []scoredChunk, halfLifeDays float64, now time.Time) []scoredChunk {
	for i := range results {
		age := now.Sub(results[i].chunk.CreatedAt).Hours() / 24
		if age < 0 {
			age = 0
		}
		results[i].score *= math.Exp2(-age / halfLifeDays)
	}
	sortScored(results)
	return results
}

// applyTokenBudget truncates the ranked list once the running
// estimated token total would exceed the budget.
func applyTokenBudget(results []scoredChunk, budget int) []scoredChunk {
	total := 0
	for i, r := range results {
		total += tokeniser.EstimateTokens(r.chunk.Content)
		if total > budget {
			logger.Debug("Token budget %d reached after %d results", budget, i)
			return results[:i]
		}
	}
	return results
}

// groupByDocument collapses each document's chunks into one entry
// carrying the document's best-scoring chunk.
func groupByDocument(results []scoredChunk) []scoredChunk {
	seen := make(map[string]bool)
	grouped := results[:0]
	for _, r := range results {
		if seen[r.chunk.DocumentID] {
			continue
		}
		seen[r.chunk.DocumentID] = true
		grouped = append(grouped, r)
	}
	return grouped
}
