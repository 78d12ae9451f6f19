package domain

import "context"

// Message is a single chat turn sent to the generation model.
type Message struct {
	Role    string
	Content string
}

// GenerationOptions carries the per-call sampling and length limits.
type GenerationOptions struct {
	// MaxTokens bounds the generated output (Ollama num_predict).
	MaxTokens int
	// ContextWindow bounds input plus output (Ollama num_ctx).
	ContextWindow int
}

// LLMClient defines the capability to send prompts to an LLM and receive textual responses.
type LLMClient interface {
	Chat(ctx context.Context, messages []Message, opts GenerationOptions) (*LLMResponse, error)
	Version() string
}

// LLMResponse carries the LLM output and whether the generation finished.
type LLMResponse struct {
	Text string
	Done bool
}
