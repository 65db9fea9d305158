// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dat

package dat

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// ignoreMatcher holds compiled rules selecting loose files to skip on pack.
type ignoreMatcher struct {
	matcher *pathrules.Matcher
}

// newIgnoreMatcher compiles ignore rules. Empty rule set matches nothing.
func newIgnoreMatcher(rules []pathrules.Rule) (*ignoreMatcher, error) {
	rules = normalizeIgnoreRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: true,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		return nil, fmt.Errorf("compile ignore rules: %w", err)
	}

	return &ignoreMatcher{matcher: matcher}, nil
}

// normalizeIgnoreRules trims patterns and drops empty ones.
func normalizeIgnoreRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.TrimSpace(strings.ReplaceAll(rule.Pattern, `\`, `/`))
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether name is selected by an include rule.
func (m *ignoreMatcher) Match(name string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	return m.matcher.Included(name, false)
}

// IgnoreRules builds include rules from raw glob patterns, e.g. "*.bak".
// A pattern starting with "!" re-admits matching files.
func IgnoreRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		action := pathrules.ActionInclude
		if rest, ok := strings.CutPrefix(pattern, "!"); ok {
			action = pathrules.ActionExclude
			pattern = rest
		}

		rules = append(rules, pathrules.Rule{Action: action, Pattern: pattern})
	}

	return rules
}

// selectLooseFiles drops the manifest and ignored names, keeping input order.
func selectLooseFiles(names []string, matcher *ignoreMatcher) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == ManifestFileName {
			continue
		}

		if matcher.Match(name) {
			continue
		}

		out = append(out, name)
	}

	return out
}
