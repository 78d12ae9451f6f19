package retrieval

import "site-rag/internal/domain"

// BuildSearchTerms returns the question followed by the expansion terms of
// every rule it triggers. Exact duplicates are skipped and order is kept.
func BuildSearchTerms(question string, rules []domain.TopicRule) []string {
	terms := []string{question}
	seen := map[string]struct{}{question: {}}
	for _, rule := range domain.TriggeredRules(rules, question) {
		for _, term := range rule.ExpansionTerms {
			if term == "" {
				continue
			}
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	return terms
}
