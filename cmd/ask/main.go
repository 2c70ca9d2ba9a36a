package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/seanblong/papersearch/internal/ai"
	"github.com/seanblong/papersearch/internal/config"
	"github.com/seanblong/papersearch/internal/rag"
	"github.com/seanblong/papersearch/internal/search"
	"github.com/seanblong/papersearch/internal/store"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("papersearch-ask", pflag.ExitOnError)

	cfg, err := config.Load("", fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	fs.Usage = cfg.Usage

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level %q: %v\n", cfg.LogLevel, err)
		os.Exit(1)
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	if missing := cfg.MissingVars(); len(missing) > 0 {
		fmt.Fprintf(os.Stderr, "missing environment variables: %s\n", strings.Join(missing, ", "))
		fmt.Fprintln(os.Stderr, "\nPlease add them to your .env file and run the indexer first:")
		fmt.Fprintln(os.Stderr, "  indexer --query 'your topic' --max-papers 20")
		os.Exit(1)
	}

	clientConfig, err := buildClientConfig(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid provider configuration")
	}

	client, err := ai.NewClient(clientConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create AI client")
	}

	// Interrupts cancel in-flight work; the loop exits cleanly between
	// operations.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer st.Close()

	if err := st.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("vector store unreachable")
	}
	n, err := st.Count(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("vector store connection check failed")
	}
	if n == 0 {
		logger.Fatal().Msg("the index is empty, run the indexer first: indexer --query 'attention mechanism' --max-papers 20")
	}
	logger.Info().Int("chunks", n).Str("provider", cfg.Provider).Msg("connected to paper index")

	svc := search.NewService(client, st)
	answerer := rag.NewService(svc, client, cfg.TopK)

	fmt.Println("Interactive paper Q&A")
	fmt.Println("Commands:")
	fmt.Println("  - Type your question to get an answer")
	fmt.Println("  - Type 'search:<query>' to test retrieval only")
	fmt.Println("  - Type 'quit' to exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		if ctx.Err() != nil {
			fmt.Println("\nGoodbye!")
			return
		}

		fmt.Print("\n> ")
		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return
		}
		input := strings.TrimSpace(scanner.Text())

		switch {
		case input == "":
			fmt.Println("Please enter a question or command.")
		case input == "quit" || input == "exit" || input == "q":
			fmt.Println("Goodbye!")
			return
		case strings.HasPrefix(input, "search:"):
			query := strings.TrimSpace(strings.TrimPrefix(input, "search:"))
			showRetrieval(ctx, svc, query, cfg.TopK)
		default:
			answer(ctx, answerer, input)
		}
	}
}

// showRetrieval runs retrieval only, without answer generation.
func showRetrieval(ctx context.Context, svc *search.Service, query string, k int) {
	results := svc.Retrieve(ctx, query, k)
	if len(results) == 0 {
		fmt.Println("No documents found for this query.")
		return
	}

	fmt.Printf("Found %d relevant documents:\n", len(results))
	for i, r := range results {
		fmt.Printf("\n%d. %s (score: %.4f)\n", i+1, orUntitled(r.Chunk.Paper.Title), r.Score)
		if len(r.Chunk.Paper.Authors) > 0 {
			fmt.Printf("   Authors: %s\n", strings.Join(r.Chunk.Paper.Authors, ", "))
		}
		fmt.Printf("   %s\n", preview(r.Chunk.Text, 200))
	}
}

// answer runs the full pipeline, streaming tokens as they arrive.
func answer(ctx context.Context, svc *rag.Service, question string) {
	sink := ai.NewConsoleSink(os.Stdout)
	pred := svc.Answer(ctx, question, sink)
	fmt.Println()

	if !pred.OK() {
		// The sink already surfaced the error; show the user-facing text.
		fmt.Println(pred.Answer)
		return
	}

	if len(pred.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, r := range pred.Sources {
			fmt.Printf("%d. %s (score: %.3f)\n", i+1, orUntitled(r.Chunk.Paper.Title), r.Score)
		}
	}
}

func orUntitled(title string) string {
	if strings.TrimSpace(title) == "" {
		return "Untitled"
	}
	return title
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
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
