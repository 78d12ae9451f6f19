package usecase

import (
	"fmt"
	"strings"

	"site-rag/internal/domain"
)

// PromptInput contains the pieces that feed into the prompt builder.
type PromptInput struct {
	Question string
	Context  string
	Detailed bool
}

// PromptBuilder builds the chat messages sent to the LLM.
type PromptBuilder interface {
	Build(input PromptInput) ([]domain.Message, error)
}

// SitePromptBuilder renders a single user message that grounds the answer in
// the scraped website content.
type SitePromptBuilder struct {
	additionalInstructions []string
}

// NewSitePromptBuilder creates a prompt builder with optional extra instructions appended.
func NewSitePromptBuilder(additionalInstructions ...string) PromptBuilder {
	return &SitePromptBuilder{additionalInstructions: additionalInstructions}
}

// Build renders the Messages for Chat API.
func (b *SitePromptBuilder) Build(input PromptInput) ([]domain.Message, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, fmt.Errorf("question is required")
	}

	var sb strings.Builder
	sb.WriteString("You are a helpful assistant answering questions about a website.\n")
	sb.WriteString("Use ONLY the website content below. Do not use outside knowledge.\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("- Never invent apps, products or services that are not named in the content.\n")
	sb.WriteString("- When the question asks for a list, include only major standalone named items. Exclude sub-features, menu entries and settings.\n")
	if input.Detailed {
		sb.WriteString("- Give a short bullet for each item with the details the content provides.\n")
	} else {
		sb.WriteString("- Keep the answer short. List item names without extra detail.\n")
	}
	sb.WriteString("- End the answer with a line starting with \"Sources:\" followed by the URLs you used.\n")
	fmt.Fprintf(&sb, "- If the content does not contain the answer, reply exactly: %s\n", domain.NotFoundAnswer)
	for _, instr := range b.additionalInstructions {
		if strings.TrimSpace(instr) == "" {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(instr)
		sb.WriteString("\n")
	}

	sb.WriteString("\nWebsite content:\n")
	sb.WriteString(input.Context)
	sb.WriteString("\nQuestion: ")
	sb.WriteString(input.Question)
	sb.WriteString("\n\nAnswer:")

	return []domain.Message{{Role: "user", Content: sb.String()}}, nil
}
