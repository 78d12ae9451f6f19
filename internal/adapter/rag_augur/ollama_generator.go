package rag_augur

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"site-rag/internal/domain"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []chatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// OllamaGenerator sends chat requests to Ollama's /api/chat endpoint.
type OllamaGenerator struct {
	BaseURL string
	Model   string
	Client  *http.Client
	logger  *slog.Logger
}

// NewOllamaGenerator constructs a generator using the provided endpoint and model name.
// If client is nil, one is created with the given timeout (120s when not positive).
func NewOllamaGenerator(baseURL, model string, timeoutSeconds int, logger *slog.Logger, client *http.Client) *OllamaGenerator {
	if client == nil {
		timeout := 120 * time.Second
		if timeoutSeconds > 0 {
			timeout = time.Duration(timeoutSeconds) * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OllamaGenerator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  client,
		logger:  logger,
	}
}

func (g *OllamaGenerator) buildOptions(opts domain.GenerationOptions) map[string]interface{} {
	options := map[string]interface{}{}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if opts.ContextWindow > 0 {
		options["num_ctx"] = opts.ContextWindow
	}
	return options
}

// Chat sends the messages in one non-streaming call and returns the trimmed
// assistant message. Every error is tagged with domain.ErrGenerationFailed.
func (g *OllamaGenerator) Chat(ctx context.Context, messages []domain.Message, opts domain.GenerationOptions) (*domain.LLMResponse, error) {
	reqBody := chatRequest{
		Model:    g.Model,
		Messages: make([]chatMessage, len(messages)),
		Stream:   false,
		Options:  g.buildOptions(opts),
	}
	for i, m := range messages {
		reqBody.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.WrapFailure(domain.ErrGenerationFailed, fmt.Errorf("failed to marshal chat request: %w", err))
	}

	url := fmt.Sprintf("%s/api/chat", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, domain.WrapFailure(domain.ErrGenerationFailed, fmt.Errorf("failed to create chat request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	g.logger.InfoContext(ctx, "ollama_chat_started",
		slog.String("model", g.Model),
		slog.Int("num_ctx", opts.ContextWindow),
		slog.Int("num_predict", opts.MaxTokens),
	)
	start := time.Now()

	resp, err := g.Client.Do(req)
	if err != nil {
		g.logger.ErrorContext(ctx, "ollama_chat_failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		return nil, domain.WrapFailure(domain.ErrGenerationFailed, fmt.Errorf("failed to call generation endpoint: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, domain.WrapFailure(domain.ErrGenerationFailed,
			fmt.Errorf("generation endpoint returned %d: %s", resp.StatusCode, string(body)))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, domain.WrapFailure(domain.ErrGenerationFailed, fmt.Errorf("failed to decode generation response: %w", err))
	}

	content := strings.TrimSpace(chatResp.Message.Content)

	g.logger.InfoContext(ctx, "ollama_chat_completed",
		slog.Int("answer_chars", len(content)),
		slog.Bool("done", chatResp.Done),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &domain.LLMResponse{
		Text: content,
		Done: chatResp.Done,
	}, nil
}

// Version returns the wrapped model name.
func (g *OllamaGenerator) Version() string {
	return g.Model
}

var _ domain.LLMClient = (*OllamaGenerator)(nil)
