package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"site-rag/internal/adapter/corpus"
	"site-rag/internal/adapter/rag_augur"
	"site-rag/internal/adapter/repository"
	"site-rag/internal/adapter/vectorstore/memory"
	"site-rag/internal/adapter/vectorstore/qdrant"
	"site-rag/internal/domain"
	"site-rag/internal/infra"
	"site-rag/internal/infra/config"
	"site-rag/internal/infra/httpclient"
	"site-rag/internal/usecase"
	"site-rag/internal/usecase/retrieval"
	"site-rag/internal/worker"
)

// Index backends selectable with INDEX_BACKEND.
const (
	BackendPgvector = "pgvector"
	BackendMemory   = "memory"
	BackendQdrant   = "qdrant"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	// Index
	ChunkStore domain.ChunkStore
	TxManager  domain.TransactionManager
	Pool       *pgxpool.Pool // nil unless the pgvector backend is used

	// Clients
	Embedder  domain.VectorEncoder
	Generator domain.LLMClient

	// Usecases
	EmbeddingCache *usecase.EmbeddingCache
	AnswerUsecase  usecase.AnswerQuestionUsecase
	IndexUsecase   usecase.IndexCorpusUsecase

	// Worker
	Warmer *worker.CacheWarmer

	TopicRules []domain.TopicRule
}

// Close releases the database pool, if any.
func (c *ApplicationComponents) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// Ready pings the index backend.
func (c *ApplicationComponents) Ready(ctx context.Context) error {
	if c.Pool != nil {
		return c.Pool.Ping(ctx)
	}
	_, err := c.ChunkStore.Count(ctx)
	return err
}

// NewApplicationComponents wires all dependencies from config. The memory
// backend is filled from the corpus file before returning.
func NewApplicationComponents(ctx context.Context, cfg *config.Config, log *slog.Logger) (*ApplicationComponents, error) {
	rules, err := config.LoadTopicRules(cfg.RAG.TopicRulesFile)
	if err != nil {
		return nil, err
	}

	sizing := usecase.DefaultSizingPolicy()
	if err := sizing.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sizing policy: %w", err)
	}

	// Shared HTTP clients with connection pooling
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedder.Timeout) * time.Second)
	augurHTTP := httpclient.NewPooledClient(time.Duration(cfg.Augur.Timeout) * time.Second)

	// External clients
	embedder := rag_augur.NewOllamaEmbedder(cfg.Embedder.URL, cfg.Embedder.Model, cfg.Embedder.Timeout, log, embedderHTTP)
	generator := rag_augur.NewOllamaGenerator(cfg.Augur.URL, cfg.Augur.Model, cfg.Augur.Timeout, log, augurHTTP)

	components := &ApplicationComponents{
		Embedder:   embedder,
		Generator:  generator,
		TopicRules: rules,
	}

	if err := wireIndex(ctx, cfg, components, log); err != nil {
		return nil, err
	}

	chunker := domain.NewWindowChunker(cfg.Indexer.WindowSize, cfg.Indexer.WindowOverlap)
	components.IndexUsecase = usecase.NewIndexCorpusUsecase(
		components.ChunkStore, components.TxManager, chunker, embedder, cfg.Indexer.BatchSize, log,
	)

	cache, err := usecase.NewEmbeddingCache(embedder, cfg.Cache.EmbeddingSize, log)
	if err != nil {
		components.Close()
		return nil, err
	}
	components.EmbeddingCache = cache

	expander := retrieval.NewExpander(cache, components.ChunkStore, rules, retrieval.ExpanderConfig{
		Concurrency: cfg.RAG.SearchConcurrency,
		MaxMerged:   cfg.RAG.MaxMergedChunks,
	}, log)
	invoker := usecase.NewGenerationInvoker(
		generator, usecase.NewSitePromptBuilder(), time.Duration(cfg.Augur.Timeout)*time.Second, log,
	)
	components.AnswerUsecase = usecase.NewAnswerQuestionUsecase(expander, invoker, sizing, log)

	components.Warmer = worker.NewCacheWarmer(cache, expansionTerms(rules), log)

	if cfg.Index.Backend == BackendMemory {
		if err := loadMemoryIndex(ctx, cfg.Index.CorpusPath, components.IndexUsecase, log); err != nil {
			components.Close()
			return nil, err
		}
	}

	log.Info("components_wired",
		slog.String("index_backend", cfg.Index.Backend),
		slog.String("embedding_model", cfg.Embedder.Model),
		slog.String("generation_model", cfg.Augur.Model),
		slog.Int("topic_rules", len(rules)),
		slog.Int("embedding_cache_size", cfg.Cache.EmbeddingSize))

	return components, nil
}

// NewIndexerComponents wires only what the offline indexer needs.
func NewIndexerComponents(ctx context.Context, cfg *config.Config, log *slog.Logger) (*ApplicationComponents, error) {
	embedderHTTP := httpclient.NewPooledClient(time.Duration(cfg.Embedder.Timeout) * time.Second)
	embedder := rag_augur.NewOllamaEmbedder(cfg.Embedder.URL, cfg.Embedder.Model, cfg.Embedder.Timeout, log, embedderHTTP)

	components := &ApplicationComponents{Embedder: embedder}
	if err := wireIndex(ctx, cfg, components, log); err != nil {
		return nil, err
	}

	chunker := domain.NewWindowChunker(cfg.Indexer.WindowSize, cfg.Indexer.WindowOverlap)
	components.IndexUsecase = usecase.NewIndexCorpusUsecase(
		components.ChunkStore, components.TxManager, chunker, embedder, cfg.Indexer.BatchSize, log,
	)
	return components, nil
}

func wireIndex(ctx context.Context, cfg *config.Config, c *ApplicationComponents, log *slog.Logger) error {
	switch cfg.Index.Backend {
	case BackendPgvector:
		pool, err := infra.NewPostgresDB(ctx, cfg.DB.DSN(), infra.PoolConfig{
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to db: %w", err)
		}
		c.Pool = pool
		c.ChunkStore = repository.NewSiteChunkRepository(pool, cfg.Index.Table)
		c.TxManager = repository.NewPostgresTransactionManager(pool)
	case BackendMemory:
		c.ChunkStore = memory.NewStore()
		c.TxManager = repository.NoopTransactionManager{}
	case BackendQdrant:
		indexHTTP := httpclient.NewPooledClient(time.Duration(cfg.Index.Timeout) * time.Second)
		c.ChunkStore = qdrant.NewStore(qdrant.Config{
			URL:        cfg.Index.QdrantURL,
			APIKey:     cfg.Index.QdrantAPIKey,
			Collection: cfg.Index.QdrantCollection,
			Dimension:  cfg.Index.Dimension,
		}, indexHTTP, log)
		c.TxManager = repository.NoopTransactionManager{}
	default:
		return fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
	return nil
}

func loadMemoryIndex(ctx context.Context, path string, indexer usecase.IndexCorpusUsecase, log *slog.Logger) error {
	pages, err := corpus.ReadPagesFile(path)
	if err != nil {
		return err
	}
	stats, err := indexer.Execute(ctx, pages)
	if err != nil {
		return fmt.Errorf("failed to build in-memory index: %w", err)
	}
	log.Info("memory_index_loaded",
		slog.String("corpus", path),
		slog.Int("pages", stats.PagesLoaded),
		slog.Int("chunks", stats.ChunksWritten))
	return nil
}

func expansionTerms(rules []domain.TopicRule) []string {
	var terms []string
	seen := make(map[string]struct{})
	for _, r := range rules {
		for _, t := range r.ExpansionTerms {
			if _, ok := seen[t]; ok || t == "" {
				continue
			}
			seen[t] = struct{}{}
			terms = append(terms, t)
		}
	}
	return terms
}
