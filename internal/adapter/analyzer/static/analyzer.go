// Package static provides the built-in analyzer: a small table of
// line-oriented style rules that run in-process with no network calls.
package static

import (
	"context"
	"fmt"
	"strings"

	"github.com/bkyoung/review-bot/internal/domain"
)

const maxLineLength = 120

// rule is one line-oriented check. It returns a message when the line
// violates the rule, or "" when it passes.
type rule struct {
	id    string
	check func(line string) string
}

// defaultRules is the built-in rule table. Line numbers are attached by
// the analyzer; rules only judge a single line's text.
var defaultRules = []rule{
	{
		id: "line-length",
		check: func(line string) string {
			if n := len(line); n > maxLineLength {
				return fmt.Sprintf("line is %d characters, limit is %d", n, maxLineLength)
			}
			return ""
		},
	},
	{
		id: "trailing-whitespace",
		check: func(line string) string {
			if line != strings.TrimRight(line, " \t") {
				return "line has trailing whitespace"
			}
			return ""
		},
	},
	{
		id: "todo-marker",
		check: func(line string) string {
			if strings.Contains(line, "TODO") || strings.Contains(line, "FIXME") {
				return "unresolved TODO or FIXME marker"
			}
			return ""
		},
	},
}

// Analyzer implements the review.Analyzer port with the built-in rules.
type Analyzer struct {
	rules []rule
}

// NewAnalyzer constructs the built-in analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{rules: defaultRules}
}

// Analyze runs every rule over every line of content. Line numbers in
// findings are 1-based and refer to the post-change file.
func (a *Analyzer) Analyze(ctx context.Context, content, filename string) ([]domain.Finding, error) {
	if content == "" {
		return nil, nil
	}

	var findings []domain.Finding

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, r := range a.rules {
			if msg := r.check(line); msg != "" {
				findings = append(findings, domain.NewFinding(r.id, msg, i+1))
			}
		}
	}

	return findings, nil
}
