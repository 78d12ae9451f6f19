package retrieval

import "site-rag/internal/domain"

// URLPredicate decides whether a chunk URL is on-topic.
type URLPredicate func(url string) bool

// FilterForTopic keeps chunks whose URL satisfies keep. When nothing matches
// the input is returned unchanged, so a non-empty input never yields an empty
// result.
func FilterForTopic(chunks []domain.RetrievedChunk, keep URLPredicate) []domain.RetrievedChunk {
	if keep == nil {
		return chunks
	}
	filtered := make([]domain.RetrievedChunk, 0, len(chunks))
	for _, c := range chunks {
		if keep(c.URL) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return chunks
	}
	return filtered
}

// RulesPredicate matches URLs accepted by any of rules.
func RulesPredicate(rules []domain.TopicRule) URLPredicate {
	return func(url string) bool {
		for _, r := range rules {
			if r.MatchesURL(url) {
				return true
			}
		}
		return false
	}
}
