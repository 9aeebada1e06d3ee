package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
)

var (
	searchLimit      int
	searchAlgorithm  string
	searchJSON       bool
	searchThreshold  float64
	searchMaxPerDoc  int
	searchGroupByDoc bool
	searchMaxTokens  int
	searchSinceDays  int
	searchDecay      bool
	searchHalfLife   float64
	searchStream     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Ranks indexed chunks against the query.

The default hybrid algorithm combines keyword (BM25) and semantic
(vector) search; without an embedding provider it degrades to BM25.
Algorithms: bm25, tfidf, vector, hybrid.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultLimit, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchAlgorithm, "algorithm", "a", string(domain.AlgorithmHybrid), "ranking algorithm (bm25, tfidf, vector, hybrid)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "drop results scoring below this value")
	searchCmd.Flags().IntVar(&searchMaxPerDoc, "max-per-doc", 0, "cap chunks per document (0 = unlimited)")
	searchCmd.Flags().BoolVar(&searchGroupByDoc, "group-by-doc", false, "collapse results to one per document")
	searchCmd.Flags().IntVar(&searchMaxTokens, "max-tokens", 0, "estimated token budget for returned content (0 = unlimited)")
	searchCmd.Flags().IntVar(&searchSinceDays, "since-days", 0, "only match chunks ingested within this many days (0 = all)")
	searchCmd.Flags().BoolVar(&searchDecay, "decay", false, "apply recency decay to scores")
	searchCmd.Flags().Float64Var(&searchHalfLife, "half-life", 30, "decay half-life in days")
	searchCmd.Flags().BoolVar(&searchStream, "stream", false, "force the batch-scan search path")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchService == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		Limit:     searchLimit,
		Algorithm: domain.SearchAlgorithm(searchAlgorithm),
		Retrieval: domain.RetrievalConfig{
			ScoreThreshold:   searchThreshold,
			MaxChunksPerDoc:  searchMaxPerDoc,
			GroupByDoc:       searchGroupByDoc,
			MaxContextTokens: searchMaxTokens,
			ForceStreaming:   searchStream,
		},
		Time: domain.TimeConfig{
			DecayEnabled: searchDecay,
			HalfLifeDays: searchHalfLife,
			SinceDays:    searchSinceDays,
		},
	}

	results, err := searchService.Search(cmd.Context(), query, nil, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s (%.4f, %s)\n", i+1, results[i].DocumentID, results[i].Score, results[i].Algorithm)
		cmd.Printf("      %s\n", snippet(results[i].Content, 120))
		cmd.Println()
	}
	return nil
}

// snippet returns the first maxLen characters of text on one line.
func snippet(text string, maxLen int) string {
	out := make([]rune, 0, maxLen)
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
		if len(out) >= maxLen {
			return string(out) + "..."
		}
	}
	return string(out)
}
