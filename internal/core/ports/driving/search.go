package driving

import (
	"context"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
)

// SearchService ranks stored chunks against a query.
type SearchService interface {
	// Search returns ranked, post-processed results for the query.
	// queryEmbedding may be nil; vector and hybrid search then rely on
	// the configured embedding service, or degrade to lexical-only.
	// An empty query yields an empty result set, not an error.
	Search(
		ctx context.Context,
		query string,
		queryEmbedding []float32,
		opts domain.SearchOptions,
	) ([]domain.SearchResult, error)
}
