package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/seanblong/papersearch/internal/ai"
	"github.com/seanblong/papersearch/internal/chunker"
	"github.com/seanblong/papersearch/internal/config"
	"github.com/seanblong/papersearch/internal/indexer"
	"github.com/seanblong/papersearch/internal/papers"
	"github.com/seanblong/papersearch/internal/store"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("papersearch-indexer", pflag.ExitOnError)
	fs.String("query", "", "Search query for papers (required)")

	cfg, err := config.Load("", fs)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	fs.Usage = cfg.Usage

	query, _ := fs.GetString("query")
	if strings.TrimSpace(query) == "" {
		log.Fatal("--query is required")
	}

	// Refuse to start before any network call when credentials are absent,
	// and name every missing variable at once.
	if missing := cfg.MissingVars(); len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "missing environment variables: %s\n", strings.Join(missing, ", "))
		fmt.Fprintln(os.Stderr, "\nPlease add them to your .env file or environment.")
		os.Exit(1)
	}

	clientConfig, err := buildClientConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}

	client, err := ai.NewClient(clientConfig)
	if err != nil {
		log.Fatal(err)
	}
	if client.Dim() == 0 {
		log.Fatal("embedding dimension must be set")
	}

	source, err := papers.NewSource(papers.Kind(strings.ToLower(cfg.Source)), cfg.PapersDir)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	log.Printf("extracting papers matching query: %q (max %d)", query, cfg.MaxPapers)
	found, err := source.Fetch(ctx, query, cfg.MaxPapers)
	if err != nil {
		log.Fatalf("paper fetch failed: %v", err)
	}
	log.Printf("extraction complete: %d papers", len(found))
	if len(found) == 0 {
		log.Fatal("no papers found, try a different query")
	}

	splitter := chunker.NewSplitter()
	chunks := splitter.SplitPapers(found, cfg.MaxChunks)
	if len(chunks) == 0 {
		log.Fatal("no papers with abstracts produced any chunks, cannot proceed with indexing")
	}
	log.Printf("created %d text chunks", len(chunks))

	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	if err := st.Migrate(ctx, client.Dim()); err != nil {
		log.Fatal(err)
	}

	ix := indexer.New(st, client, cfg.BatchSize)
	ids, err := ix.Run(ctx, chunks)
	if err != nil {
		log.Fatalf("indexing aborted after %d chunks: %v", len(ids), err)
	}
	log.Printf("successfully indexed %d vectors", len(ids))
}

func buildClientConfig(cfg config.Specification) (*ai.ClientConfig, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return &ai.ClientConfig{
			APIKey:     cfg.APIKey,
			EmbedModel: cfg.EmbedModel,
			ChatModel:  cfg.ChatModel,
			Dim:        cfg.Dim,
			ProjectID:  cfg.ProjectID,
			Provider:   ai.ProviderOpenAI,
		}, nil
	case "vertexai", "google":
		return &ai.ClientConfig{
			APIKey:     cfg.APIKey,
			EmbedModel: cfg.EmbedModel,
			ChatModel:  cfg.ChatModel,
			Dim:        cfg.Dim,
			ProjectID:  cfg.ProjectID,
			Location:   cfg.Location,
			Provider:   ai.ProviderVertexAI,
		}, nil
	case "stub":
		return &ai.ClientConfig{
			Dim:      cfg.Dim,
			Provider: ai.ProviderStub,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
