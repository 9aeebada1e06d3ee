package driven

import "context"

// EmbeddingService generates vector embeddings for text.
// Implementations call an external model; failures are reported so the
// caller can fall back to a deterministic local vector.
type EmbeddingService interface {
	// Embed generates a fixed-length embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
