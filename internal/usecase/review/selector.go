package review

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/bkyoung/review-bot/internal/domain"
)

// FileSelector filters a commit's changed files down to the analyzable set
// by matching filenames against inclusion glob patterns.
type FileSelector struct {
	patterns []string
}

// NewFileSelector creates a selector for the given doublestar patterns.
// An empty pattern list selects every file.
func NewFileSelector(patterns []string) *FileSelector {
	return &FileSelector{patterns: patterns}
}

// Select returns the files whose name matches an inclusion pattern,
// preserving input order.
func (s *FileSelector) Select(files []domain.ChangedFile) []domain.ChangedFile {
	if len(s.patterns) == 0 {
		return files
	}

	selected := make([]domain.ChangedFile, 0, len(files))
	for _, file := range files {
		if s.matches(file.Filename) {
			selected = append(selected, file)
		}
	}
	return selected
}

func (s *FileSelector) matches(name string) bool {
	for _, pattern := range s.patterns {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			// Malformed patterns never match
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
