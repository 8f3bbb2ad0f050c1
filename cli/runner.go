// Command execution for CLI commands.

package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/mlevans/coursepilot/api"
	"github.com/mlevans/coursepilot/config"
	"github.com/mlevans/coursepilot/embeddings"
	"github.com/mlevans/coursepilot/ingest"
	"github.com/mlevans/coursepilot/llm"
	"github.com/mlevans/coursepilot/rag"
	"github.com/mlevans/coursepilot/store"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	DBPath   string
	Verbose  bool
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildStore opens the content store with its embedder. Enough for
// indexing and catalog commands, which never talk to an LLM.
func buildStore(opts Options) (*store.Store, config.Settings, error) {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return nil, config.Settings{}, err
	}
	if opts.DBPath != "" {
		settings.Storage.DBPath = opts.DBPath
	}

	embedder, err := newEmbedder(settings)
	if err != nil {
		return nil, config.Settings{}, err
	}

	st, err := store.Open(settings.Storage.DBPath, embedder,
		store.WithMaxResults(settings.Search.MaxResults))
	if err != nil {
		return nil, config.Settings{}, err
	}
	return st, settings, nil
}

// buildSystem assembles the full query pipeline from settings.
func buildSystem(opts Options) (*rag.System, *store.Store, config.Settings, error) {
	st, settings, err := buildStore(opts)
	if err != nil {
		return nil, nil, config.Settings{}, err
	}

	provider, err := newProvider(settings)
	if err != nil {
		st.Close()
		return nil, nil, config.Settings{}, err
	}

	sys, err := rag.New(rag.Config{
		Store:            st,
		Provider:         provider,
		ResolveThreshold: settings.Search.ResolveThreshold,
		MaxHistory:       settings.Session.MaxHistory,
		Logger:           newLogger(opts.Verbose),
	})
	if err != nil {
		st.Close()
		return nil, nil, config.Settings{}, err
	}
	return sys, st, settings, nil
}

func newProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}
	return llm.FromEnv(providerType, settings.LLM.Model, settings.LLM.MaxTokens, settings.LLM.Temperature)
}

func newEmbedder(settings config.Settings) (embeddings.Embedder, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set (required for embeddings)")
	}
	return embeddings.NewOpenAIEmbedder(apiKey, settings.Embedding.Model, settings.Embedding.Dimension), nil
}

// Serve starts the HTTP API and blocks until the server stops.
func Serve(ctx context.Context, docsDir string, opts Options) error {
	sys, st, settings, err := buildSystem(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := newLogger(opts.Verbose)
	if docsDir != "" {
		indexer := ingest.NewIndexer(st, ingest.Chunker{
			Size:    settings.Ingest.ChunkSize,
			Overlap: settings.Ingest.ChunkOverlap,
		}, logger)
		added, skipped, err := indexer.IndexDirectory(ctx, docsDir)
		if err != nil {
			return err
		}
		logger.Info("startup indexing complete", "added", added, "skipped", skipped)
	}

	server := &http.Server{
		Addr:    settings.Server.Addr,
		Handler: api.NewServer(sys, logger),
	}
	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	logger.Info("serving", "addr", settings.Server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Ask answers a single question and prints the answer with sources.
func Ask(ctx context.Context, question string, opts Options) error {
	sys, st, _, err := buildSystem(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	answer, err := sys.Query(ctx, question, "")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", answer.Text)
	printSources(answer.Sources)
	return nil
}

// Chat starts an interactive session that keeps conversation history.
func Chat(ctx context.Context, opts Options) error {
	sys, st, _, err := buildSystem(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	stats := sys.CourseStats()
	fmt.Printf("Chat started (%d courses indexed). Type 'exit' to quit.\n\n", stats.CourseCount)

	sessionID := ""
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		answer, err := sys.Query(ctx, input, sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		sessionID = answer.SessionID
		fmt.Printf("\nAssistant: %s\n", answer.Text)
		printSources(answer.Sources)
		fmt.Println()
	}
	return scanner.Err()
}

// Index loads course documents from a file or directory into the store.
// Only the embedder and store are needed; no model provider is built.
func Index(ctx context.Context, path string, opts Options) error {
	st, settings, err := buildStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := newLogger(opts.Verbose)
	indexer := ingest.NewIndexer(st, ingest.Chunker{
		Size:    settings.Ingest.ChunkSize,
		Overlap: settings.Ingest.ChunkOverlap,
	}, logger)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		added, skipped, err := indexer.IndexDirectory(ctx, path)
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %d course(s), skipped %d.\n", added, skipped)
		return nil
	}

	course, chunks, err := indexer.IndexFile(ctx, path)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %q: %d lessons, %d chunks.\n", course.Title, len(course.Lessons), chunks)
	return nil
}

// Courses prints the indexed catalog straight from the store.
func Courses(opts Options) error {
	st, _, err := buildStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	titles := st.CourseTitles()
	if len(titles) == 0 {
		fmt.Println("No courses indexed yet.")
		return nil
	}
	fmt.Printf("%d course(s) indexed:\n", len(titles))
	for _, title := range titles {
		fmt.Printf("  - %s\n", title)
	}
	return nil
}

func printSources(sources []string) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, s := range sources {
		fmt.Printf("  - %s\n", s)
	}
}
