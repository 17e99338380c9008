package static_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/review-bot/internal/adapter/analyzer/static"
	"github.com/bkyoung/review-bot/internal/domain"
)

func TestAnalyze_CleanContentHasNoFindings(t *testing.T) {
	analyzer := static.NewAnalyzer()

	findings, err := analyzer.Analyze(context.Background(), "package main\n\nfunc main() {}\n", "main.go")

	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAnalyze_LineLength(t *testing.T) {
	analyzer := static.NewAnalyzer()
	content := "short\n" + strings.Repeat("x", 121) + "\n"

	findings, err := analyzer.Analyze(context.Background(), content, "main.go")

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "line-length", findings[0].RuleID)
	assert.Equal(t, 2, findings[0].Line)
}

func TestAnalyze_TrailingWhitespace(t *testing.T) {
	analyzer := static.NewAnalyzer()

	findings, err := analyzer.Analyze(context.Background(), "clean\ndirty \t\n", "main.go")

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "trailing-whitespace", findings[0].RuleID)
	assert.Equal(t, 2, findings[0].Line)
}

func TestAnalyze_TodoMarker(t *testing.T) {
	analyzer := static.NewAnalyzer()

	findings, err := analyzer.Analyze(context.Background(), "// TODO fix this later\n", "main.go")

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "todo-marker", findings[0].RuleID)
	assert.Equal(t, 1, findings[0].Line)
}

func TestAnalyze_MultipleRulesOnOneLine(t *testing.T) {
	analyzer := static.NewAnalyzer()
	content := strings.Repeat("y", 121) + " \n"

	findings, err := analyzer.Analyze(context.Background(), content, "main.go")

	require.NoError(t, err)
	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.RuleID)
	}
	assert.ElementsMatch(t, []string{"line-length", "trailing-whitespace"}, ids)
	for _, f := range findings {
		assert.Equal(t, 1, f.Line)
	}
}

func TestAnalyze_EmptyContent(t *testing.T) {
	analyzer := static.NewAnalyzer()

	findings, err := analyzer.Analyze(context.Background(), "", "empty.go")

	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	analyzer := static.NewAnalyzer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := analyzer.Analyze(ctx, "a\n", "main.go")

	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze_FindingsAreDomainShaped(t *testing.T) {
	analyzer := static.NewAnalyzer()

	findings, err := analyzer.Analyze(context.Background(), "bad \n", "main.go")

	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.IsType(t, domain.Finding{}, findings[0])
	assert.NotEmpty(t, findings[0].Message)
}
