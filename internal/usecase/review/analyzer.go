package review

import (
	"context"

	"github.com/bkyoung/review-bot/internal/domain"
)

// MultiAnalyzer fans a file out to several analyzers and concatenates their
// findings. A failure from any analyzer fails the whole call, which the
// pipeline treats as a file-scoped skip.
type MultiAnalyzer struct {
	analyzers []Analyzer
}

// NewMultiAnalyzer combines the given analyzers into one.
func NewMultiAnalyzer(analyzers ...Analyzer) *MultiAnalyzer {
	return &MultiAnalyzer{analyzers: analyzers}
}

// Analyze implements the Analyzer port.
func (m *MultiAnalyzer) Analyze(ctx context.Context, content, filename string) ([]domain.Finding, error) {
	var all []domain.Finding
	for _, analyzer := range m.analyzers {
		findings, err := analyzer.Analyze(ctx, content, filename)
		if err != nil {
			return nil, err
		}
		all = append(all, findings...)
	}
	return all, nil
}
