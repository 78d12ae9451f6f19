package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"site-rag/internal/adapter/corpus"
	"site-rag/internal/adapter/repository"
	"site-rag/internal/di"
	"site-rag/internal/infra/config"
	applog "site-rag/internal/infra/logger"
)

var (
	version = "dev"

	// Global flags
	verbose bool
	backend string

	// Run command flags
	corpusPath string
	batchSize  int
	dryRun     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "indexer",
	Short:   "Build the website chunk index",
	Version: version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Rebuild the index from a scraped corpus",
	Long: `Rebuild the chunk index from newline-delimited JSON page records
({"url": ..., "title": ..., "text": ...}).

The existing collection is dropped first. Page text is split into
overlapping windows, embedded in batches and written with ids chunk_0,
chunk_1, ... in corpus order.

Examples:
  # Index the default corpus into pgvector
  indexer run

  # Index a specific file into Qdrant
  indexer run --corpus data/scraped_pages.jsonl --backend qdrant

  # Show what would be indexed
  indexer run --dry-run`,
	RunE: runIndex,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of indexed chunks",
	RunE:  showStats,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "index backend: pgvector or qdrant (default from INDEX_BACKEND)")

	runCmd.Flags().StringVar(&corpusPath, "corpus", "", "corpus file (default from CORPUS_PATH)")
	runCmd.Flags().IntVar(&batchSize, "batch-size", 0, "chunks per embedding batch (default from INDEXER_BATCH_SIZE)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "read and chunk the corpus without embedding or writing")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return applog.NewJSON(os.Stdout, level)
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	cfg := config.Load()
	if backend != "" {
		cfg.Index.Backend = backend
	}
	if cfg.Index.Backend == di.BackendMemory {
		return nil, fmt.Errorf("the memory backend is built by the server at startup; choose pgvector or qdrant")
	}
	if corpusPath != "" {
		cfg.Index.CorpusPath = corpusPath
	}
	if batchSize > 0 {
		cfg.Indexer.BatchSize = batchSize
	}
	return cfg, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Setup context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pages, err := corpus.ReadPagesFile(cfg.Index.CorpusPath)
	if err != nil {
		return err
	}
	logger.Info("corpus loaded",
		slog.String("path", cfg.Index.CorpusPath),
		slog.Int("pages", len(pages)),
	)

	if dryRun {
		return printDryRun(cmd, cfg, pages)
	}

	components, err := di.NewIndexerComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	if components.Pool != nil {
		if err := repository.EnsureSchema(ctx, components.Pool, cfg.Index.Table, cfg.Index.Dimension); err != nil {
			return err
		}
	}

	stats, err := components.IndexUsecase.Execute(ctx, pages)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %d pages (%d skipped) in %s\n",
		stats.ChunksWritten, stats.PagesLoaded, stats.PagesSkipped, stats.Duration.Round(time.Millisecond))
	return nil
}

func showStats(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	components, err := di.NewIndexerComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	n, err := components.ChunkStore.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Backend:  %s\n", cfg.Index.Backend)
	fmt.Fprintf(cmd.OutOrStdout(), "Chunks:   %d\n", n)
	return nil
}
