package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env       string
	Server    ServerConfig
	DB        DBConfig
	Embedder  EmbedderConfig
	Augur     AugurConfig
	Index     IndexConfig
	RAG       RAGConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	OTel      OTelConfig
	Indexer   IndexerConfig
}

type ServerConfig struct {
	Port string
	H2C  bool
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int
	MinConns int
}

type EmbedderConfig struct {
	URL     string
	Model   string
	Timeout int // seconds
}

// AugurConfig points at the Ollama instance used for answer generation.
type AugurConfig struct {
	URL     string
	Model   string
	Timeout int // seconds
}

type IndexConfig struct {
	// Backend is one of "pgvector", "memory" or "qdrant".
	Backend          string
	Table            string
	Dimension        int
	CorpusPath       string // memory backend: NDJSON loaded at boot
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	Timeout          int // seconds
}

type RAGConfig struct {
	DefaultTopK       int
	MaxMergedChunks   int // 0 disables the cap
	SearchConcurrency int
	TopicRulesFile    string
}

type CacheConfig struct {
	EmbeddingSize int
}

type RateLimitConfig struct {
	RPS   float64 // 0 disables rate limiting
	Burst int
}

type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	SampleRatio    float64
}

type IndexerConfig struct {
	BatchSize     int
	WindowSize    int
	WindowOverlap int
}

func Load() *Config {
	return &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			Port: getEnv("PORT", "8000"),
			H2C:  getEnvBool("HTTP_H2C", false),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "rag-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "rag_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "rag_password"),
			Name:     getEnv("DB_NAME", "rag_db"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
			MinConns: getEnvInt("DB_MIN_CONNS", 2),
		},
		Embedder: EmbedderConfig{
			URL:     getEnvWithAlt("EMBEDDER_URL", "OLLAMA_URL", "http://localhost:11434"),
			Model:   getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			Timeout: getEnvInt("EMBEDDER_TIMEOUT_SECONDS", 30),
		},
		Augur: AugurConfig{
			URL:     getEnvWithAlt("GENERATOR_URL", "OLLAMA_URL", "http://localhost:11434"),
			Model:   getEnv("GENERATION_MODEL", "llama3.2:3b"),
			Timeout: getEnvInt("GENERATION_TIMEOUT_SECONDS", 120),
		},
		Index: IndexConfig{
			Backend:          strings.ToLower(getEnv("INDEX_BACKEND", "pgvector")),
			Table:            getEnv("INDEX_TABLE", "site_chunks"),
			Dimension:        getEnvInt("INDEX_DIMENSION", 768),
			CorpusPath:       getEnv("CORPUS_PATH", "scraped_pages.jsonl"),
			QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			QdrantAPIKey:     getSecret("QDRANT_API_KEY", "QDRANT_API_KEY_FILE", ""),
			QdrantCollection: getEnv("QDRANT_COLLECTION", "site_chunks"),
			Timeout:          getEnvInt("INDEX_TIMEOUT_SECONDS", 15),
		},
		RAG: RAGConfig{
			DefaultTopK:       getEnvInt("RAG_DEFAULT_TOP_K", 3),
			MaxMergedChunks:   getEnvInt("RAG_MAX_MERGED_CHUNKS", 0),
			SearchConcurrency: getEnvInt("RAG_SEARCH_CONCURRENCY", 4),
			TopicRulesFile:    getEnv("TOPIC_RULES_FILE", ""),
		},
		Cache: CacheConfig{
			EmbeddingSize: getEnvInt("EMBEDDING_CACHE_SIZE", 10000),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat64("RATE_LIMIT_RPS", 0),
			Burst: getEnvInt("RATE_LIMIT_BURST", 5),
		},
		OTel: OTelConfig{
			Enabled:        getEnvBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "site-rag"),
			ServiceVersion: getEnv("SERVICE_VERSION", "0.0.0"),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
			SampleRatio:    getEnvFloat64("OTEL_TRACE_SAMPLE_RATIO", 0.1),
		},
		Indexer: IndexerConfig{
			BatchSize:     getEnvInt("INDEXER_BATCH_SIZE", 16),
			WindowSize:    getEnvInt("INDEXER_WINDOW_SIZE", 500),
			WindowOverlap: getEnvInt("INDEXER_WINDOW_OVERLAP", 100),
		},
	}
}

// DSN renders the Postgres connection string for pgx.
func (c DBConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=disable"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	// 1. Try direct environment variable
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// 2. Try reading from file specified by fileEnvKey
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvWithAlt(key, altKey, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	if value, ok := os.LookupEnv(altKey); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
