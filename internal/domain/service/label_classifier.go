package service

import (
	"strings"

	"misttrack-mcp-server/internal/domain/entity"
)

// LabelClassifier maps counterparty labels to categories and detects exchange sinks
type LabelClassifier struct {
	rules        []entity.LabelCategoryRule
	sinkKeywords []string
	loweredRules [][]string
}

// NewLabelClassifier creates a classifier. Nil arguments fall back to the defaults.
func NewLabelClassifier(rules []entity.LabelCategoryRule, sinkKeywords []string) *LabelClassifier {
	if rules == nil {
		rules = entity.DefaultLabelCategoryRules
	}
	if sinkKeywords == nil {
		sinkKeywords = entity.DefaultExchangeSinkKeywords
	}

	lowered := make([][]string, len(rules))
	for i, rule := range rules {
		lowered[i] = make([]string, len(rule.Keywords))
		for j, keyword := range rule.Keywords {
			lowered[i][j] = strings.ToLower(keyword)
		}
	}

	return &LabelClassifier{
		rules:        rules,
		sinkKeywords: sinkKeywords,
		loweredRules: lowered,
	}
}

// NewDefaultLabelClassifier creates a classifier with the built-in tables
func NewDefaultLabelClassifier() *LabelClassifier {
	return NewLabelClassifier(nil, nil)
}

// Categories returns every category whose keywords match the label, in table order.
// Matching is a case-insensitive substring test; a category is reported at most once.
func (c *LabelClassifier) Categories(label string) []entity.LabelCategory {
	if label == "" {
		return nil
	}

	lower := strings.ToLower(label)
	var categories []entity.LabelCategory
	for i, rule := range c.rules {
		for _, keyword := range c.loweredRules[i] {
			if strings.Contains(lower, keyword) {
				categories = append(categories, rule.Category)
				break
			}
		}
	}
	return categories
}

// IsExchangeSink reports whether the label names an exchange that ends a walk.
// Unlike Categories this match is case-sensitive.
func (c *LabelClassifier) IsExchangeSink(label string) bool {
	if label == "" {
		return false
	}
	for _, keyword := range c.sinkKeywords {
		if strings.Contains(label, keyword) {
			return true
		}
	}
	return false
}
