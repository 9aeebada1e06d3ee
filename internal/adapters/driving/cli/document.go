package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage indexed documents",
	Long:  `List, inspect, or remove indexed documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	RunE:  runDocumentList,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "Show a document's chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print document content",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentRemoveCmd = &cobra.Command{
	Use:   "remove [doc-id]",
	Short: "Remove a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRemove,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every document from the index",
	RunE:  runClear,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentChunksCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentRemoveCmd)
	rootCmd.AddCommand(documentCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(statsCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.GetDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	cmd.Println("Indexed documents:")
	for _, doc := range docs {
		cmd.Printf("  %s  (%s, %d bytes, ingested %s)\n",
			doc.ID, doc.Type, doc.SizeBytes, doc.IngestedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	chunks, err := documentService.GetDocumentChunks(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("loading chunks: %w", err)
	}

	cmd.Printf("%d chunks:\n", len(chunks))
	for _, chunk := range chunks {
		cmd.Printf("  [%d] %s  %s\n", chunk.Position, chunk.ID, snippet(chunk.Content, 80))
	}
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := documentService.GetContent(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("loading content: %w", err)
	}

	cmd.Println(content)
	return nil
}

func runDocumentRemove(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.RemoveDocument(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("removing document: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.RemoveAllDocuments(cmd.Context()); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	stats, err := documentService.GetStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading stats: %w", err)
	}

	cmd.Println("Index statistics:")
	cmd.Printf("  Documents: %d\n", stats.DocumentCount)
	cmd.Printf("  Chunks:    %d\n", stats.ChunkCount)
	cmd.Printf("  Bytes:     %d\n", stats.TotalBytes)
	return nil
}
