package services

import (
	"sort"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
)

// scoredChunk is an intermediate ranking result.
type scoredChunk struct {
	chunk domain.Chunk
	score float64
}

// trimFactor bounds the top-K buffer at trimFactor*limit entries
// before it is sorted and trimmed.
const trimFactor = 3

// topK keeps the best `limit` scored chunks seen during a batch scan
// without materialising the whole corpus. Entries accumulate until the
// buffer exceeds trimFactor*limit, then it is sorted and cut back to
// limit, so memory stays bounded regardless of corpus size.
type topK struct {
	limit int
	items []scoredChunk
}

func newTopK(limit int) *topK {
	return &topK{limit: limit}
}

// add records one scored chunk, trimming when the buffer overflows.
func (t *topK) add(sc scoredChunk) {
	t.items = append(t.items, sc)
	if len(t.items) > trimFactor*t.limit {
		sortScored(t.items)
		t.items = t.items[:t.limit]
	}
}

// results returns the final top entries, sorted and truncated.
func (t *topK) results() []scoredChunk {
	sortScored(t.items)
	if len(t.items) > t.limit {
		t.items = t.items[:t.limit]
	}
	return t.items
}

// sortScored orders by score descending, breaking ties by chunk id
// ascending. The in-memory and streaming paths share this ordering so
// both return identical results for the same corpus and query.
func sortScored(items []scoredChunk) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].chunk.ID < items[j].chunk.ID
	})
}
