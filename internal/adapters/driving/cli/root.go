// Package cli provides the cobra command tree for the froggy CLI.
// Commands are thin adapters: they parse flags, call the driving
// ports, and format output.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driving"
	"github.com/deepblue523/froggy-mcp-rag/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by the composition root before Execute.
var (
	searchService   driving.SearchService
	ingestService   driving.IngestService
	documentService driving.DocumentService
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "froggy",
	Short: "Local retrieval engine for plain-text documents",
	Long: `froggy ingests plain-text documents into a local SQLite index and
ranks them with BM25, TF-IDF, vector similarity, or a hybrid of
keyword and semantic search. Everything runs on your machine.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the driving services. Must be called before
// Execute.
func SetServices(search driving.SearchService, ingest driving.IngestService, document driving.DocumentService) {
	searchService = search
	ingestService = ingest
	documentService = document
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}
