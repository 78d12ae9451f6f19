package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"site-rag/internal/domain"
)

const truncationMarker = "..."

// BuildContext renders chunks as one context document, in input order.
// Each text is cut to maxChars runes, with "..." appended when cut. A
// non-positive maxChars disables truncation.
func BuildContext(chunks []domain.RetrievedChunk, maxChars int) string {
	var sb strings.Builder
	for _, c := range chunks {
		fmt.Fprintf(&sb, "URL: %s\nTitle: %s\nContent:\n%s\n\n---\n", c.URL, c.Title, truncateRunes(c.Text, maxChars))
	}
	return sb.String()
}

func truncateRunes(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars]) + truncationMarker
}

// CollectSources returns the distinct non-empty URLs of chunks, in first-appearance order.
func CollectSources(chunks []domain.RetrievedChunk) []string {
	sources := make([]string, 0, len(chunks))
	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if c.URL == "" {
			continue
		}
		if _, ok := seen[c.URL]; ok {
			continue
		}
		seen[c.URL] = struct{}{}
		sources = append(sources, c.URL)
	}
	return sources
}
