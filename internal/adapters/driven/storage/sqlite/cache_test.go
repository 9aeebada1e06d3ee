package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
)

func TestTermIndex_AbsentOnFreshStore(t *testing.T) {
	store := setupTestStore(t)

	idx, ok, err := store.TermIndex(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	_ = idx
}

func TestStoreTermIndex_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	want := &domain.TermIndex{
		DocFreq:        map[string]int{"cat": 2, "dog": 1, "ran": 2},
		TotalChunks:    3,
		AvgChunkTokens: 2.0,
	}
	require.NoError(t, store.StoreTermIndex(ctx, want))

	got, ok, err := store.TermIndex(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.DocFreq, got.DocFreq)
	assert.Equal(t, 3, got.TotalChunks)
	assert.InDelta(t, 2.0, got.AvgChunkTokens, 1e-9)
	assert.False(t, got.Empty())
}

func TestStoreTermIndex_ReplaceAll(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := &domain.TermIndex{
		DocFreq:     map[string]int{"old": 7},
		TotalChunks: 1, AvgChunkTokens: 1,
	}
	require.NoError(t, store.StoreTermIndex(ctx, first))

	second := &domain.TermIndex{
		DocFreq:     map[string]int{"new": 1},
		TotalChunks: 2, AvgChunkTokens: 4,
	}
	require.NoError(t, store.StoreTermIndex(ctx, second))

	got, ok, err := store.TermIndex(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"new": 1}, got.DocFreq)
	assert.NotContains(t, got.DocFreq, "old")
}

func TestChunkWrites_InvalidateTermIndex(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestDocument(t, store, "/docs/a.txt")
	require.NoError(t, store.StoreTermIndex(ctx, &domain.TermIndex{
		DocFreq: map[string]int{"cat": 1}, TotalChunks: 1, AvgChunkTokens: 2,
	}))

	_, ok, err := store.TermIndex(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.ReplaceChunks(ctx, "/docs/a.txt", makeChunks("/docs/a.txt", 1)))

	_, ok, err = store.TermIndex(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "chunk writes must invalidate the cache")
}

func TestDeleteOperations_BumpGeneration(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestDocument(t, store, "/docs/a.txt")
	require.NoError(t, store.ReplaceChunks(ctx, "/docs/a.txt", makeChunks("/docs/a.txt", 2)))

	before, err := store.Generation(ctx)
	require.NoError(t, err)

	require.NoError(t, store.DeleteChunks(ctx, "/docs/a.txt"))
	mid, err := store.Generation(ctx)
	require.NoError(t, err)
	assert.Greater(t, mid, before)

	require.NoError(t, store.DeleteDocument(ctx, "/docs/a.txt"))
	after, err := store.Generation(ctx)
	require.NoError(t, err)
	assert.Greater(t, after, mid)
}

func TestInvalidateTermIndex_Explicit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreTermIndex(ctx, &domain.TermIndex{
		DocFreq: map[string]int{"x": 1}, TotalChunks: 1, AvgChunkTokens: 1,
	}))
	require.NoError(t, store.InvalidateTermIndex(ctx))

	_, ok, err := store.TermIndex(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreTermIndex_StaleAfterLaterWrite(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saveTestDocument(t, store, "/docs/a.txt")

	idx := &domain.TermIndex{
		DocFreq: map[string]int{"cat": 1}, TotalChunks: 1, AvgChunkTokens: 2,
	}
	require.NoError(t, store.StoreTermIndex(ctx, idx))

	// A later chunk write bumps the generation; the stored index,
	// built against the old generation, is now stale.
	require.NoError(t, store.ReplaceChunks(ctx, "/docs/a.txt", makeChunks("/docs/a.txt", 1)))

	_, ok, err := store.TermIndex(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
