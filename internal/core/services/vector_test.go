package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0.0},
		{"both empty", nil, nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestMinMaxNormalise(t *testing.T) {
	scores := map[string]float64{"a": 2, "b": 6, "c": 4}
	norm := minMaxNormalise(scores)

	assert.InDelta(t, 0.0, norm["a"], 1e-9)
	assert.InDelta(t, 1.0, norm["b"], 1e-9)
	assert.InDelta(t, 0.5, norm["c"], 1e-9)
}

func TestMinMaxNormalise_UniformScores(t *testing.T) {
	norm := minMaxNormalise(map[string]float64{"a": 3, "b": 3})

	assert.InDelta(t, 1.0, norm["a"], 1e-9)
	assert.InDelta(t, 1.0, norm["b"], 1e-9)
}

func TestMinMaxNormalise_AllZeroStaysZero(t *testing.T) {
	norm := minMaxNormalise(map[string]float64{"a": 0, "b": 0})

	assert.InDelta(t, 0.0, norm["a"], 1e-9)
	assert.InDelta(t, 0.0, norm["b"], 1e-9)
}

func TestMinMaxNormalise_NegativeScores(t *testing.T) {
	norm := minMaxNormalise(map[string]float64{"a": -4, "b": -2})

	assert.InDelta(t, 0.0, norm["a"], 1e-9)
	assert.InDelta(t, 1.0, norm["b"], 1e-9)
}

func TestMinMaxNormalise_Empty(t *testing.T) {
	assert.Empty(t, minMaxNormalise(nil))
}

func TestVectorStream_ReleasesScannedEmbeddings(t *testing.T) {
	store := setupStore(t)
	c1 := textChunk("c1", "/docs/a.txt", "alpha", 0)
	c1.Embedding = []float32{1, 0}
	c2 := textChunk("c2", "/docs/a.txt", "beta", 1)
	c2.Embedding = []float32{0, 1}
	seedDocument(t, store, "/docs/a.txt", []domain.Chunk{c1, c2})

	// Scanned embeddings are views into the current batch, so the
	// buffered results must not hold on to them once scored.
	svc := NewSearchService(store, nil)
	results, err := svc.vectorStream(context.Background(), []float32{1, 0}, 10, time.Time{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "c1", results[0].chunk.ID)
	assert.InDelta(t, 1.0, results[0].score, 1e-6)
	for _, sc := range results {
		assert.Nil(t, sc.chunk.Embedding)
	}
}

func TestTopK_TrimsAndOrders(t *testing.T) {
	top := newTopK(2)
	for i, score := range []float64{0.1, 0.9, 0.5, 0.7, 0.3, 0.8, 0.2, 0.6} {
		top.add(scoredChunk{
			chunk: textChunk(string(rune('a'+i)), "/docs/a.txt", "x", i),
			score: score,
		})
	}

	results := top.results()
	assert.Len(t, results, 2)
	assert.InDelta(t, 0.9, results[0].score, 1e-9)
	assert.InDelta(t, 0.8, results[1].score, 1e-9)
}
