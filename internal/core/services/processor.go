package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driven"
	"github.com/deepblue523/froggy-mcp-rag/internal/logger"
	"github.com/deepblue523/froggy-mcp-rag/internal/postprocessors/chunker"
	"github.com/deepblue523/froggy-mcp-rag/internal/tokeniser"
)

// DocumentProcessor turns raw extracted text into embedded chunks.
// It has no persistence side effects; storing the result is the
// orchestrator's responsibility.
type DocumentProcessor struct {
	embedder driven.EmbeddingService
}

// NewDocumentProcessor creates a document processor. The embedding
// service is optional; without one every chunk gets the deterministic
// hashed fallback vector.
func NewDocumentProcessor(embedder driven.EmbeddingService) *DocumentProcessor {
	return &DocumentProcessor{embedder: embedder}
}

// Process splits text into chunks and attaches an embedding to each.
// Embedding failures are recovered locally with a hashed bag-of-tokens
// vector so ranking never receives a silently absent vector.
func (p *DocumentProcessor) Process(
	ctx context.Context,
	documentID, text string,
	metadata map[string]any,
	cfg domain.ChunkingConfig,
) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	chunks := chunker.New(cfg).Process(documentID, text, metadata)
	logger.Debug("Processor: %d chunks for %s", len(chunks), documentID)

	dims := cfg.FallbackDimensions
	if dims <= 0 {
		dims = domain.DefaultFallbackDimensions
	}

	for i := range chunks {
		embedding, err := p.embed(ctx, chunks[i].Content)
		if err != nil {
			logger.Warn("Processor: embedding chunk %d of %s failed: %v (using hashed fallback)",
				i, documentID, err)
			embedding = hashedEmbedding(chunks[i].Content, dims)
		}

		if cfg.NormaliseEmbeddings {
			normalise(embedding)
		}
		chunks[i].Embedding = embedding
	}

	return chunks, nil
}

// embed requests an embedding from the external model. Provider
// failures are classified as ErrEmbedding so callers can tell them
// apart from having no provider at all.
func (p *DocumentProcessor) embed(ctx context.Context, text string) ([]float32, error) {
	if p.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	embedding, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	return embedding, nil
}

// hashedEmbedding builds a deterministic low-dimensional bag-of-hashed-
// tokens vector: each lowercase token is hashed into one of dims
// buckets, counts accumulate, and the result is L2-normalised. Vector
// search degrades gracefully instead of excluding the chunk.
func hashedEmbedding(text string, dims int) []float32 {
	vec := make([]float32, dims)
	for _, token := range tokeniser.Tokenise(text) {
		h := fnv.New32a()
		h.Write([]byte(token)) //nolint:errcheck // fnv never fails
		vec[h.Sum32()%uint32(dims)]++
	}
	normalise(vec)
	return vec
}

// normalise scales the vector to unit L2 length in place, so cosine
// similarity and dot product are interchangeable downstream.
func normalise(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
