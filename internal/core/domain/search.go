package domain

// SearchAlgorithm selects the ranking algorithm for a search call.
type SearchAlgorithm string

// Supported ranking algorithms.
const (
	AlgorithmBM25   SearchAlgorithm = "bm25"
	AlgorithmTFIDF  SearchAlgorithm = "tfidf"
	AlgorithmVector SearchAlgorithm = "vector"
	AlgorithmHybrid SearchAlgorithm = "hybrid"
)

// Valid reports whether the algorithm is one the engine implements.
func (a SearchAlgorithm) Valid() bool {
	switch a {
	case AlgorithmBM25, AlgorithmTFIDF, AlgorithmVector, AlgorithmHybrid:
		return true
	}
	return false
}

// Tuning defaults. These are configurable constants, not invariants.
const (
	// DefaultLimit is the result count when the caller passes none.
	DefaultLimit = 20

	// DefaultStreamingThreshold is the corpus size above which search
	// reads the store in batches instead of materialising all chunks.
	DefaultStreamingThreshold = 5000

	// DefaultCandidateMultiplier sizes the hybrid candidate set as a
	// multiple of the requested limit.
	DefaultCandidateMultiplier = 4

	// DefaultBatchSize is the streaming scan batch size.
	DefaultBatchSize = 500
)

// RetrievalConfig tunes ranking and post-ranking policies for one
// search call. The zero value disables every policy.
type RetrievalConfig struct {
	// ScoreThreshold drops results scoring below it. Zero keeps all.
	ScoreThreshold float64

	// MaxChunksPerDoc caps how many chunks a single document may
	// contribute, preserving rank order. Zero means no cap.
	MaxChunksPerDoc int

	// GroupByDoc collapses a document's surviving chunks into one
	// result carrying the maximum chunk score.
	GroupByDoc bool

	// MaxContextTokens truncates ranked results once the running
	// estimated token total would exceed it. Zero means no budget.
	MaxContextTokens int

	// CandidateMultiplier sizes the hybrid vector candidate set as
	// limit*CandidateMultiplier. Zero uses DefaultCandidateMultiplier.
	CandidateMultiplier int

	// StreamingThreshold overrides the corpus size at which search
	// switches to batch scans. Zero uses DefaultStreamingThreshold.
	StreamingThreshold int

	// BatchSize overrides the streaming scan batch size.
	BatchSize int

	// ForceStreaming always takes the streaming path.
	ForceStreaming bool
}

// TimeConfig tunes recency handling for one search call.
type TimeConfig struct {
	// DecayEnabled multiplies scores by 2^(-ageDays/halfLifeDays).
	DecayEnabled bool

	// HalfLifeDays is the decay half-life. At age == half-life the
	// score is halved. Must be positive when decay is enabled.
	HalfLifeDays float64

	// SinceDays excludes chunks created more than SinceDays ago.
	// Zero disables the filter.
	SinceDays int
}

// SearchOptions configures a search call.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero uses DefaultLimit.
	Limit int

	// Algorithm selects the ranking algorithm. Empty means hybrid.
	Algorithm SearchAlgorithm

	// Retrieval tunes ranking and post-ranking policies.
	Retrieval RetrievalConfig

	// Time tunes recency filtering and decay.
	Time TimeConfig
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	// ChunkID identifies the matched chunk. For grouped results it is
	// the best-scoring chunk of the document.
	ChunkID string

	// DocumentID identifies the owning document.
	DocumentID string

	// Score is the relevance score under the chosen algorithm.
	Score float64

	// Algorithm labels which ranking produced the score.
	Algorithm SearchAlgorithm

	// Content is the chunk text.
	Content string

	// Metadata carries the chunk's metadata map.
	Metadata map[string]any
}
