package domain

import "strings"

// TopicRule describes a known corpus hotspot. When a question triggers the rule,
// retrieval is widened with ExpansionTerms and results are narrowed to chunks
// whose URL contains one of URLMarkers.
type TopicRule struct {
	Name           string   `yaml:"name"`
	Keywords       []string `yaml:"keywords"`
	ExpansionTerms []string `yaml:"expansion_terms"`
	URLMarkers     []string `yaml:"url_markers"`
}

// DefaultTopicRules returns the built-in rule set: the apps section of the site.
func DefaultTopicRules() []TopicRule {
	return []TopicRule{AppsTopicRule()}
}

// AppsTopicRule matches questions mentioning apps.
func AppsTopicRule() TopicRule {
	return TopicRule{
		Name:           "apps",
		Keywords:       []string{"app"},
		ExpansionTerms: []string{"Jio app", "apps", "Jio apps", "Jio application"},
		URLMarkers:     []string{"/apps", "/mobile/apps"},
	}
}

// Triggers reports whether the lowercased question contains any keyword.
func (r TopicRule) Triggers(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range r.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// MatchesURL reports whether url contains any of the rule's URL markers.
func (r TopicRule) MatchesURL(url string) bool {
	for _, marker := range r.URLMarkers {
		if marker != "" && strings.Contains(url, marker) {
			return true
		}
	}
	return false
}

// TriggeredRules returns the rules that fire for question, in rule order.
func TriggeredRules(rules []TopicRule, question string) []TopicRule {
	var out []TopicRule
	for _, r := range rules {
		if r.Triggers(question) {
			out = append(out, r)
		}
	}
	return out
}
