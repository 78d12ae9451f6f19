package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"site-rag/internal/domain"
)

const defaultIndexBatchSize = 16

// IndexStats summarizes one indexing run.
type IndexStats struct {
	PagesLoaded   int
	PagesSkipped  int
	ChunksWritten int
	Duration      time.Duration
}

// IndexCorpusUsecase rebuilds the chunk index from scraped pages.
type IndexCorpusUsecase interface {
	Execute(ctx context.Context, pages []domain.Page) (IndexStats, error)
}

type indexCorpusUsecase struct {
	store     domain.ChunkStore
	txManager domain.TransactionManager
	chunker   domain.Chunker
	encoder   domain.VectorEncoder
	batchSize int
	logger    *slog.Logger
}

// NewIndexCorpusUsecase creates the indexer. A non-positive batchSize falls back to 16.
func NewIndexCorpusUsecase(
	store domain.ChunkStore,
	txManager domain.TransactionManager,
	chunker domain.Chunker,
	encoder domain.VectorEncoder,
	batchSize int,
	logger *slog.Logger,
) IndexCorpusUsecase {
	if batchSize <= 0 {
		batchSize = defaultIndexBatchSize
	}
	return &indexCorpusUsecase{
		store:     store,
		txManager: txManager,
		chunker:   chunker,
		encoder:   encoder,
		batchSize: batchSize,
		logger:    logger,
	}
}

type pendingChunk struct {
	text  string
	url   string
	title string
}

// Execute resets the collection and loads every window of every non-blank page.
// Chunk ids are chunk_<n>, numbered across the whole run. The reset and all
// inserts run in one transaction when the store supports it.
func (u *indexCorpusUsecase) Execute(ctx context.Context, pages []domain.Page) (IndexStats, error) {
	start := time.Now()
	stats := IndexStats{}

	var pending []pendingChunk
	for _, p := range pages {
		if strings.TrimSpace(p.Text) == "" {
			stats.PagesSkipped++
			continue
		}
		stats.PagesLoaded++
		for _, window := range u.chunker.Chunk(p.Text) {
			pending = append(pending, pendingChunk{text: window, url: p.URL, title: p.Title})
		}
	}

	u.logger.InfoContext(ctx, "index_corpus_started",
		slog.Int("pages_loaded", stats.PagesLoaded),
		slog.Int("pages_skipped", stats.PagesSkipped),
		slog.Int("chunks", len(pending)),
		slog.String("chunker_version", string(u.chunker.Version())),
		slog.String("embedder_version", u.encoder.Version()))

	err := u.txManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := u.store.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset index: %w", err)
		}

		for offset := 0; offset < len(pending); offset += u.batchSize {
			end := min(offset+u.batchSize, len(pending))
			batch := pending[offset:end]

			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.text
			}
			embeddings, err := u.encoder.Encode(ctx, texts)
			if err != nil {
				return fmt.Errorf("failed to encode batch at %d: %w", offset, err)
			}
			if len(embeddings) != len(batch) {
				return fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbeddingFailed, len(embeddings), len(batch))
			}

			rows := make([]domain.IndexedChunk, len(batch))
			for i, c := range batch {
				rows[i] = domain.IndexedChunk{
					ID:        fmt.Sprintf("chunk_%d", offset+i),
					Text:      c.text,
					URL:       c.url,
					Title:     c.title,
					Embedding: embeddings[i],
				}
			}
			if err := u.store.Insert(ctx, rows); err != nil {
				return fmt.Errorf("failed to insert batch at %d: %w", offset, err)
			}
			stats.ChunksWritten += len(rows)

			u.logger.DebugContext(ctx, "index_batch_written",
				slog.Int("offset", offset),
				slog.Int("size", len(rows)))
		}
		return nil
	})
	stats.Duration = time.Since(start)
	if err != nil {
		// a failed run never counts as a written index
		stats.ChunksWritten = 0
		u.logger.ErrorContext(ctx, "index_corpus_failed", slog.String("error", err.Error()))
		return stats, err
	}

	u.logger.InfoContext(ctx, "index_corpus_completed",
		slog.Int("chunks_written", stats.ChunksWritten),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}
