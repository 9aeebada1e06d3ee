package domain

// TermIndex is the derived document-frequency cache used by lexical
// ranking: per-term chunk counts plus corpus-wide scalar statistics.
// It is either absent or fully consistent with the current chunk set;
// any chunk-mutating write invalidates it wholesale.
type TermIndex struct {
	// DocFreq maps a term to the number of chunks containing it.
	DocFreq map[string]int

	// TotalChunks is the corpus chunk count at build time.
	TotalChunks int

	// AvgChunkTokens is the mean chunk length in tokens at build time.
	AvgChunkTokens float64

	// Generation is the store's cache generation the index was built
	// against. The index is stale when it no longer matches the live
	// generation.
	Generation int64
}

// Empty reports whether the index carries no usable statistics.
func (t *TermIndex) Empty() bool {
	return t == nil || t.TotalChunks == 0 || len(t.DocFreq) == 0
}
