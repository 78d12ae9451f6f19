package rag_augur

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"site-rag/internal/domain"
)

// OllamaEmbedder calls Ollama's /api/embed endpoint.
type OllamaEmbedder struct {
	BaseURL string
	Model   string
	Client  *http.Client
	logger  *slog.Logger
}

// NewOllamaEmbedder builds an embedder. If client is nil, one is created with
// the given timeout (30s when timeoutSeconds is not positive).
func NewOllamaEmbedder(baseURL, model string, timeoutSeconds int, logger *slog.Logger, client *http.Client) *OllamaEmbedder {
	if client == nil {
		timeout := 30 * time.Second
		if timeoutSeconds > 0 {
			timeout = time.Duration(timeoutSeconds) * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OllamaEmbedder{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  client,
		logger:  logger,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Encode returns one embedding per text. Every error is tagged with
// domain.ErrEmbeddingFailed.
func (e *OllamaEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	e.logger.DebugContext(ctx, "ollama_embed_started",
		slog.Int("text_count", len(texts)),
		slog.String("model", e.Model),
	)
	start := time.Now()

	jsonData, err := json.Marshal(embedRequest{Model: e.Model, Input: texts})
	if err != nil {
		return nil, domain.WrapFailure(domain.ErrEmbeddingFailed, fmt.Errorf("failed to marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/api/embed", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, domain.WrapFailure(domain.ErrEmbeddingFailed, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		e.logger.ErrorContext(ctx, "ollama_embed_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, domain.WrapFailure(domain.ErrEmbeddingFailed, fmt.Errorf("failed to call ollama: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		e.logger.ErrorContext(ctx, "ollama_embed_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, domain.WrapFailure(domain.ErrEmbeddingFailed, fmt.Errorf("ollama returned status: %d", resp.StatusCode))
	}

	var respBody embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, domain.WrapFailure(domain.ErrEmbeddingFailed, fmt.Errorf("failed to decode response: %w", err))
	}
	if len(respBody.Embeddings) != len(texts) {
		return nil, domain.WrapFailure(domain.ErrEmbeddingFailed,
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(respBody.Embeddings)))
	}
	for i, emb := range respBody.Embeddings {
		if len(emb) == 0 {
			return nil, domain.WrapFailure(domain.ErrEmbeddingFailed, fmt.Errorf("empty embedding at index %d", i))
		}
	}

	e.logger.InfoContext(ctx, "ollama_embed_completed",
		slog.Int("embedding_count", len(respBody.Embeddings)),
		slog.Int("dimension", len(respBody.Embeddings[0])),
		slog.Duration("elapsed", time.Since(start)),
	)

	return respBody.Embeddings, nil
}

func (e *OllamaEmbedder) Version() string {
	return e.Model
}

var _ domain.VectorEncoder = (*OllamaEmbedder)(nil)
