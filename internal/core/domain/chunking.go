package domain

import "fmt"

// Chunking defaults, in characters unless noted.
const (
	DefaultChunkSize          = 1000
	DefaultChunkOverlap       = 200
	DefaultFallbackDimensions = 64
)

// Upper bounds for chunking configuration. Values outside these bounds
// are rejected before any write.
const (
	MaxChunkSize = 100000
	MaxOverlap   = MaxChunkSize / 2
)

// ChunkingConfig controls how raw text is split into chunks and how
// embeddings are requested for them.
type ChunkingConfig struct {
	// ChunkSize is the target chunk length in characters.
	ChunkSize int

	// Overlap is the tail overlap carried into the next chunk.
	Overlap int

	// MinChunkChars drops chunks shorter than this many characters.
	MinChunkChars int

	// MinChunkTokens drops chunks with fewer word tokens than this.
	MinChunkTokens int

	// MaxChunks truncates the chunk list; positions are renumbered
	// contiguously from 0. Zero means unlimited.
	MaxChunks int

	// NormaliseEmbeddings L2-normalises provider embeddings so cosine
	// similarity and dot product are interchangeable downstream.
	NormaliseEmbeddings bool

	// FallbackDimensions sizes the hashed bag-of-tokens vector used
	// when the embedding provider fails. Zero uses the default.
	FallbackDimensions int
}

// DefaultChunkingConfig returns the engine's standard chunking setup.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		ChunkSize:          DefaultChunkSize,
		Overlap:            DefaultChunkOverlap,
		FallbackDimensions: DefaultFallbackDimensions,
	}
}

// Validate checks the configuration bounds.
func (c ChunkingConfig) Validate() error {
	if c.ChunkSize <= 0 || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: chunk size %d outside (0, %d]", ErrInvalidInput, c.ChunkSize, MaxChunkSize)
	}
	if c.Overlap < 0 || c.Overlap > MaxOverlap {
		return fmt.Errorf("%w: overlap %d outside [0, %d]", ErrInvalidInput, c.Overlap, MaxOverlap)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", ErrInvalidInput, c.Overlap, c.ChunkSize)
	}
	if c.MinChunkChars < 0 || c.MinChunkTokens < 0 {
		return fmt.Errorf("%w: minimum size filters must be non-negative", ErrInvalidInput)
	}
	if c.MaxChunks < 0 {
		return fmt.Errorf("%w: max chunks must be non-negative", ErrInvalidInput)
	}
	if c.FallbackDimensions < 0 {
		return fmt.Errorf("%w: fallback dimensions must be non-negative", ErrInvalidInput)
	}
	return nil
}
