package classify

import (
	"strings"

	"golang.org/x/text/cases"

	"freighter/internal/config"
	"freighter/internal/task"
)

// Rule maps a category to the filename patterns that select it.
type Rule struct {
	Category string
	Patterns []string
}

// Classifier assigns a semantic category to a filename from an ordered rule
// list. The first matching pattern wins; matching is a case-folded substring
// comparison.
type Classifier struct {
	rules []foldedRule
}

type foldedRule struct {
	category string
	patterns []string
}

var folder = cases.Fold()

// New builds a classifier from ordered rules. Empty patterns are dropped.
func New(rules []Rule) *Classifier {
	folded := make([]foldedRule, 0, len(rules))
	for _, rule := range rules {
		fr := foldedRule{category: rule.Category}
		for _, pattern := range rule.Patterns {
			trimmed := strings.TrimSpace(pattern)
			if trimmed == "" {
				continue
			}
			fr.patterns = append(fr.patterns, folder.String(trimmed))
		}
		if len(fr.patterns) > 0 {
			folded = append(folded, fr)
		}
	}
	return &Classifier{rules: folded}
}

// FromConfig builds a classifier from the configured rule list, preserving
// its order.
func FromConfig(rules []config.Rule) *Classifier {
	converted := make([]Rule, len(rules))
	for i, r := range rules {
		converted[i] = Rule{Category: r.Category, Patterns: r.Patterns}
	}
	return New(converted)
}

// Classify returns the category for filename, or false when no rule matches.
func (c *Classifier) Classify(filename string) (string, bool) {
	if c == nil {
		return "", false
	}
	subject := folder.String(filename)
	for _, rule := range c.rules {
		for _, pattern := range rule.patterns {
			if strings.Contains(subject, pattern) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// ApplyToUncategorized sets category on every task currently lacking one and
// returns the number updated. Tasks that already carry a category are left
// untouched, so re-applying is a no-op once everything is categorized.
func ApplyToUncategorized(tasks []*task.Task, category string) int {
	updated := 0
	for _, t := range tasks {
		if t == nil || t.Category != "" {
			continue
		}
		t.Category = category
		updated++
	}
	return updated
}
