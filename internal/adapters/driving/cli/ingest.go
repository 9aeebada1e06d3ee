package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deepblue523/froggy-mcp-rag/internal/core/domain"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driving"
)

var (
	ingestChunkSize int
	ingestOverlap   int
	ingestQueue     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest plain-text files into the index",
	Long: `Reads plain-text files, splits them into overlapping chunks,
embeds each chunk, and stores everything in the local index.

Re-ingesting a file replaces its previous chunks wholesale. With
--queue the files are enqueued for the background worker instead of
being processed synchronously; use "froggy jobs" to watch progress.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show queued ingestion jobs",
	RunE:  runJobs,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", domain.DefaultChunkSize, "target chunk size in characters")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", domain.DefaultChunkOverlap, "overlap carried into the next chunk, in characters")
	ingestCmd.Flags().BoolVar(&ingestQueue, "queue", false, "enqueue for the background worker instead of processing now")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	chunking := domain.DefaultChunkingConfig()
	chunking.ChunkSize = ingestChunkSize
	chunking.Overlap = ingestOverlap

	for _, path := range args {
		req, err := buildIngestRequest(path, chunking)
		if err != nil {
			return err
		}

		if ingestQueue {
			id, err := ingestService.Enqueue(*req)
			if err != nil {
				return fmt.Errorf("enqueueing %s: %w", path, err)
			}
			cmd.Printf("Queued %s (job %s)\n", req.DocumentID, id)
			continue
		}

		count, err := ingestService.Ingest(cmd.Context(), *req)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		cmd.Printf("Ingested %s (%d chunks)\n", req.DocumentID, count)
	}
	return nil
}

// buildIngestRequest reads a file and canonicalises its path into the
// document id.
func buildIngestRequest(path string, chunking domain.ChunkingConfig) (*driving.IngestRequest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", domain.ErrExtraction, path, err)
	}

	docType := strings.TrimPrefix(filepath.Ext(abs), ".")
	if docType == "" {
		docType = "txt"
	}

	return &driving.IngestRequest{
		DocumentID: abs,
		Name:       filepath.Base(abs),
		Type:       docType,
		Text:       string(data),
		Chunking:   chunking,
	}, nil
}

func runJobs(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	jobs := ingestService.Jobs()
	if len(jobs) == 0 {
		cmd.Println("No ingestion jobs.")
		return nil
	}

	cmd.Println("Ingestion jobs:")
	for _, job := range jobs {
		line := fmt.Sprintf("  %s  %-10s  %s", job.ID, job.State, job.DocumentID)
		if job.State == driving.JobCompleted {
			line += fmt.Sprintf("  (%d chunks)", job.ChunkCount)
		}
		if job.Error != "" {
			line += "  error: " + job.Error
		}
		cmd.Println(line)
	}
	return nil
}
