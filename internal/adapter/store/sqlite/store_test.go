package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/review-bot/internal/adapter/store/sqlite"
	"github.com/bkyoung/review-bot/internal/usecase/review"
)

func setupTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	// Use in-memory database for testing
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err, "failed to create test store")

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestStore_CreateRun_GetRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run := review.StoreRun{
		RunID:      "20260830T120000Z-pr7",
		Timestamp:  time.Now().Truncate(time.Second), // Truncate to avoid precision issues
		Repository: "acme/widgets",
		PullNumber: 7,
	}

	err := s.CreateRun(ctx, run)
	require.NoError(t, err)

	retrieved, totals, err := s.GetRun(ctx, run.RunID)
	require.NoError(t, err)

	assert.Equal(t, run.RunID, retrieved.RunID)
	assert.Equal(t, run.Repository, retrieved.Repository)
	assert.Equal(t, run.PullNumber, retrieved.PullNumber)
	assert.True(t, run.Timestamp.Equal(retrieved.Timestamp))
	assert.Equal(t, review.RunResult{}, totals, "counters start at zero")
}

func TestStore_GetRun_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, _, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestStore_UpdateRunTotals(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run := review.StoreRun{
		RunID:      "20260830T120000Z-pr7",
		Timestamp:  time.Now(),
		Repository: "acme/widgets",
		PullNumber: 7,
	}
	require.NoError(t, s.CreateRun(ctx, run))

	totals := review.RunResult{
		Commits:         3,
		CommitsFailed:   1,
		FilesSelected:   5,
		FilesAnalyzed:   4,
		FilesSkipped:    1,
		CommentsPosted:  6,
		CommentsFailed:  2,
		FindingsDropped: 3,
	}
	require.NoError(t, s.UpdateRunTotals(ctx, run.RunID, totals))

	_, retrieved, err := s.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, totals, retrieved)
}

func TestStore_UpdateRunTotals_MissingRun(t *testing.T) {
	s := setupTestStore(t)

	err := s.UpdateRunTotals(context.Background(), "missing", review.RunResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
}

func TestStore_SaveComment_GetCommentsByRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run := review.StoreRun{
		RunID:      "20260830T120000Z-pr7",
		Timestamp:  time.Now(),
		Repository: "acme/widgets",
		PullNumber: 7,
	}
	require.NoError(t, s.CreateRun(ctx, run))

	now := time.Now().Truncate(time.Second)
	comments := []review.StoreComment{
		{
			RunID:     run.RunID,
			CommitSHA: "aaa111",
			Path:      "main.go",
			Position:  2,
			RuleID:    "line-length",
			Body:      "**line-length**: line too long",
			CreatedAt: now,
		},
		{
			RunID:     run.RunID,
			CommitSHA: "aaa111",
			Path:      "util.go",
			Position:  5,
			RuleID:    "trailing-whitespace",
			Body:      "**trailing-whitespace**: line has trailing whitespace",
			CreatedAt: now,
		},
	}

	for _, c := range comments {
		require.NoError(t, s.SaveComment(ctx, c))
	}

	retrieved, err := s.GetCommentsByRun(ctx, run.RunID)
	require.NoError(t, err)
	require.Len(t, retrieved, 2)

	assert.Equal(t, "main.go", retrieved[0].Path)
	assert.Equal(t, 2, retrieved[0].Position)
	assert.Equal(t, "line-length", retrieved[0].RuleID)
	assert.True(t, now.Equal(retrieved[0].CreatedAt))
	assert.Equal(t, "util.go", retrieved[1].Path)
}

func TestStore_ListRuns_MostRecentFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	runs := []review.StoreRun{
		{RunID: "run-old", Timestamp: now.Add(-2 * time.Hour), Repository: "acme/widgets", PullNumber: 1},
		{RunID: "run-mid", Timestamp: now.Add(-1 * time.Hour), Repository: "acme/widgets", PullNumber: 2},
		{RunID: "run-new", Timestamp: now, Repository: "acme/widgets", PullNumber: 3},
	}
	for _, r := range runs {
		require.NoError(t, s.CreateRun(ctx, r))
	}

	listed, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "run-new", listed[0].RunID)
	assert.Equal(t, "run-mid", listed[1].RunID)
}

func TestStore_DuplicateRunID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	run := review.StoreRun{RunID: "dup", Timestamp: time.Now(), Repository: "acme/widgets", PullNumber: 1}
	require.NoError(t, s.CreateRun(ctx, run))

	err := s.CreateRun(ctx, run)
	require.Error(t, err)
}
