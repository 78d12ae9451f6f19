package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"site-rag/internal/domain"
)

type topicRulesFile struct {
	Topics []domain.TopicRule `yaml:"topics"`
}

// LoadTopicRules reads topic rules from a YAML file. An empty path returns the
// built-in rules.
//
//	topics:
//	  - name: apps
//	    keywords: [app]
//	    expansion_terms: ["Jio app", apps]
//	    url_markers: [/apps, /mobile/apps]
func LoadTopicRules(path string) ([]domain.TopicRule, error) {
	if path == "" {
		return domain.DefaultTopicRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topic rules: %w", err)
	}

	var file topicRulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse topic rules: %w", err)
	}

	for i, rule := range file.Topics {
		if rule.Name == "" {
			return nil, fmt.Errorf("topic rule %d: name is required", i)
		}
		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("topic rule %q: at least one keyword is required", rule.Name)
		}
	}
	return file.Topics, nil
}
