package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"site-rag/internal/domain"
)

// Generation profiles. Concise answers get a small output budget and context
// window; detailed answers get room for per-item bullets.
var (
	ConciseGeneration  = domain.GenerationOptions{MaxTokens: 300, ContextWindow: 1024}
	DetailedGeneration = domain.GenerationOptions{MaxTokens: 1024, ContextWindow: 4096}
)

const defaultGenerationTimeout = 120 * time.Second

// GenerationOptionsFor returns the profile for the requested answer mode.
func GenerationOptionsFor(detailed bool) domain.GenerationOptions {
	if detailed {
		return DetailedGeneration
	}
	return ConciseGeneration
}

// GenerationInvoker turns a question and its context document into one LLM call.
type GenerationInvoker struct {
	llm     domain.LLMClient
	prompts PromptBuilder
	timeout time.Duration
	logger  *slog.Logger
}

// NewGenerationInvoker creates an invoker. A non-positive timeout falls back to 120s.
func NewGenerationInvoker(llm domain.LLMClient, prompts PromptBuilder, timeout time.Duration, logger *slog.Logger) *GenerationInvoker {
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	return &GenerationInvoker{llm: llm, prompts: prompts, timeout: timeout, logger: logger}
}

// Generate performs a single synchronous call with no retry. An empty reply is
// reported as a generation failure.
func (g *GenerationInvoker) Generate(ctx context.Context, question, contextDoc string, detailed bool) (string, error) {
	messages, err := g.prompts.Build(PromptInput{Question: question, Context: contextDoc, Detailed: detailed})
	if err != nil {
		return "", domain.WrapFailure(domain.ErrGenerationFailed, fmt.Errorf("failed to build prompt: %w", err))
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	opts := GenerationOptionsFor(detailed)
	resp, err := g.llm.Chat(callCtx, messages, opts)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && !errors.Is(err, domain.ErrTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		}
		if !errors.Is(err, domain.ErrGenerationFailed) {
			err = domain.WrapFailure(domain.ErrGenerationFailed, err)
		}
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("%w: empty response from model", domain.ErrGenerationFailed)
	}
	return strings.TrimSpace(resp.Text), nil
}
