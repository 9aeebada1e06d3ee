// Command froggy is a local retrieval engine for plain-text documents.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/deepblue523/froggy-mcp-rag/internal/adapters/driven/config/file"
	"github.com/deepblue523/froggy-mcp-rag/internal/adapters/driven/embedding/ollama"
	"github.com/deepblue523/froggy-mcp-rag/internal/adapters/driven/embedding/openai"
	"github.com/deepblue523/froggy-mcp-rag/internal/adapters/driven/storage/sqlite"
	"github.com/deepblue523/froggy-mcp-rag/internal/adapters/driving/cli"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/ports/driven"
	"github.com/deepblue523/froggy-mcp-rag/internal/core/services"
	"github.com/deepblue523/froggy-mcp-rag/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A .env file is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := file.NewConfigStore(os.Getenv("FROGGY_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	store, err := sqlite.NewStore(os.Getenv("FROGGY_DATA_DIR"))
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer store.Close()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	processor := services.NewDocumentProcessor(embedder)
	ingest := services.NewIngestService(store, processor)
	ingest.Start()
	defer ingest.Stop()

	search := services.NewSearchService(store, embedder)
	documents := services.NewDocumentService(store)

	cli.SetVersion(version)
	cli.SetServices(search, ingest, documents)
	return cli.Execute()
}

// buildEmbedder selects the embedding provider from configuration.
// Provider resolution order: FROGGY_EMBEDDING_PROVIDER, then the
// embedding.provider config key. An unset or "none" provider leaves
// semantic search on hashed fallback vectors only.
func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := os.Getenv("FROGGY_EMBEDDING_PROVIDER")
	if provider == "" {
		provider = cfg.GetString("embedding.provider")
	}

	switch provider {
	case "", "none":
		logger.Debug("No embedding provider configured")
		return nil, nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			apiKey = cfg.GetString("embedding.api_key")
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     apiKey,
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})

	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:           cfg.GetString("embedding.base_url"),
			Model:             cfg.GetString("embedding.model"),
			Dimensions:        cfg.GetInt("embedding.dimensions"),
			RequestsPerSecond: cfg.GetFloat("embedding.requests_per_second"),
		}), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
