package downloader

import (
	"slices"
	"sort"
	"strings"

	"github.com/llehouerou/wavecast/internal/errmsg"
)

// Rule maps a failure reason to the substrings that identify it.
type Rule struct {
	Reason   errmsg.Reason
	Patterns []string
}

// DefaultRules returns the built-in classification table.
// Order matters: the first matching rule wins.
func DefaultRules() []Rule {
	return []Rule{
		{errmsg.ReasonAgeRestricted, []string{
			"sign in to confirm your age",
			"age-restricted",
			"inappropriate for some users",
		}},
		{errmsg.ReasonCopyright, []string{
			"copyright grounds",
			"blocked it",
			"content owner",
			"has blocked",
		}},
		{errmsg.ReasonRegionBlocked, []string{
			"not available in your country",
		}},
		{errmsg.ReasonPrivate, []string{
			"private video",
			"sign in if you've been granted access",
		}},
		{errmsg.ReasonUnavailable, []string{
			"video unavailable",
			"this video is unavailable",
			"no longer available",
			"has been removed",
			"account has been terminated",
		}},
	}
}

// Classifier turns tool error output into a failure reason by
// case-insensitive substring matching against a rule table.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a classifier over the given rules.
func NewClassifier(rules []Rule) *Classifier {
	c := &Classifier{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		c.rules = append(c.rules, normalizeRule(r))
	}
	return c
}

// NewDefaultClassifier creates a classifier over DefaultRules.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultRules())
}

// WithOverrides returns a copy where each listed reason's patterns are
// replaced. Reasons not in the table are appended in name order.
func (c *Classifier) WithOverrides(overrides map[string][]string) *Classifier {
	rules := slices.Clone(c.rules)

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rule := normalizeRule(Rule{Reason: errmsg.Reason(name), Patterns: overrides[name]})
		idx := slices.IndexFunc(rules, func(r Rule) bool { return r.Reason == rule.Reason })
		if idx >= 0 {
			rules[idx] = rule
		} else {
			rules = append(rules, rule)
		}
	}
	return &Classifier{rules: rules}
}

// Classify returns the first reason whose pattern occurs in text,
// or ReasonUnknown.
func (c *Classifier) Classify(text string) errmsg.Reason {
	lower := strings.ToLower(text)
	for _, r := range c.rules {
		for _, p := range r.Patterns {
			if strings.Contains(lower, p) {
				return r.Reason
			}
		}
	}
	return errmsg.ReasonUnknown
}

// Rules returns a copy of the table.
func (c *Classifier) Rules() []Rule {
	return slices.Clone(c.rules)
}

func normalizeRule(r Rule) Rule {
	patterns := make([]string, 0, len(r.Patterns))
	for _, p := range r.Patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			patterns = append(patterns, p)
		}
	}
	return Rule{Reason: r.Reason, Patterns: patterns}
}
