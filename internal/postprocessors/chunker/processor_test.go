package chunker

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestProcess_EmptyContent(t *testing.T) {
	p := New(domain.DefaultChunkingConfig())
	assert.Nil(t, p.Process("doc-1", "", nil))
	assert.Nil(t, p.Process("doc-1", "   \t ", nil))
}

func TestProcess_SingleSmallChunk(t *testing.T) {
	p := New(domain.DefaultChunkingConfig(), WithClock(fixedClock()))
	chunks := p.Process("doc-1", "The cat sat on the mat.", nil)

	require.Len(t, chunks, 1)
	assert.Equal(t, "The cat sat on the mat.", chunks[0].Content)
	assert.Equal(t, "doc-1", chunks[0].DocumentID)
	assert.Equal(t, 0, chunks[0].Position)
	assert.NotEmpty(t, chunks[0].ID)
	assert.Equal(t, fixedClock()(), chunks[0].CreatedAt)
}

func TestProcess_SplitsAtChunkSize(t *testing.T) {
	cfg := domain.ChunkingConfig{ChunkSize: 40, Overlap: 0}
	p := New(cfg)

	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := p.Process("doc-1", text, nil)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Position)
		assert.NotEmpty(t, chunk.Content)
	}

	// Every sentence survives somewhere.
	joined := ""
	for _, c := range chunks {
		joined += c.Content + " "
	}
	assert.Contains(t, joined, "First sentence here.")
	assert.Contains(t, joined, "Second sentence here.")
	assert.Contains(t, joined, "Third sentence here.")
}

func TestProcess_OverlapCarriesTrailingUnits(t *testing.T) {
	cfg := domain.ChunkingConfig{ChunkSize: 50, Overlap: 25}
	p := New(cfg)

	text := "Alpha beta gamma. Delta epsilon zeta. Eta theta iota. Kappa lambda mu."
	chunks := p.Process("doc-1", text, nil)
	require.Greater(t, len(chunks), 1)

	// The second chunk starts with the tail of the first.
	first := chunks[0].Content
	lastSentence := first[strings.LastIndex(first[:len(first)-1], ".")+1:]
	lastSentence = strings.TrimSpace(lastSentence)
	if lastSentence != "" && len(lastSentence) <= cfg.Overlap {
		assert.True(t, strings.HasPrefix(chunks[1].Content, lastSentence),
			"second chunk %q should start with overlap %q", chunks[1].Content, lastSentence)
	}
}

func TestProcess_NoTerminatorsFallsBackToWholeText(t *testing.T) {
	p := New(domain.ChunkingConfig{ChunkSize: 1000})
	chunks := p.Process("doc-1", "just some words with no punctuation at all", nil)

	require.Len(t, chunks, 1)
	assert.Equal(t, "just some words with no punctuation at all", chunks[0].Content)
}

func TestProcess_MinSizeFiltersRenumber(t *testing.T) {
	cfg := domain.ChunkingConfig{ChunkSize: 30, MinChunkChars: 15}
	p := New(cfg)

	text := "Tiny.\nA considerably longer sentence body.\nNo.\nAnother acceptably long sentence."
	chunks := p.Process("doc-1", text, nil)

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Position)
		assert.GreaterOrEqual(t, len(chunk.Content), cfg.MinChunkChars)
	}
}

func TestProcess_MinTokenFilter(t *testing.T) {
	cfg := domain.ChunkingConfig{ChunkSize: 20, MinChunkTokens: 4}
	p := New(cfg)

	chunks := p.Process("doc-1", "One two.\nOne two three four five.", nil)

	require.Len(t, chunks, 1)
	assert.Equal(t, "One two three four five.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Position)
}

func TestProcess_MaxChunksTruncates(t *testing.T) {
	cfg := domain.ChunkingConfig{ChunkSize: 10, MaxChunks: 2}
	p := New(cfg)

	chunks := p.Process("doc-1", "One two.\nThree four.\nFive six.\nSeven eight.", nil)

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, 1, chunks[1].Position)
}

func TestProcess_MetadataCopiedPerChunk(t *testing.T) {
	p := New(domain.ChunkingConfig{ChunkSize: 15})
	meta := map[string]any{"source": "unit-test"}

	chunks := p.Process("doc-1", "First sentence.\nSecond sentence.", meta)
	require.Len(t, chunks, 2)

	chunks[0].Metadata["source"] = "mutated"
	assert.Equal(t, "unit-test", chunks[1].Metadata["source"], "metadata maps must not be shared")
}

func TestNew_ClampsExcessiveOverlap(t *testing.T) {
	p := New(domain.ChunkingConfig{ChunkSize: 100, Overlap: 150})
	assert.Equal(t, 25, p.cfg.Overlap)
}

func TestProcess_UnitLargerThanChunkSize(t *testing.T) {
	p := New(domain.ChunkingConfig{ChunkSize: 10})
	chunks := p.Process("doc-1", "an unbreakably long single sentence without inner stops.", nil)

	// A single oversized unit still becomes one chunk.
	require.Len(t, chunks, 1)
}
