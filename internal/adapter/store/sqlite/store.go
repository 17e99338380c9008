// Package sqlite persists review run history using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bkyoung/review-bot/internal/usecase/review"
)

// Compile-time interface satisfaction check.
var _ review.Store = (*Store)(nil)

// Store implements the review.Store port using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Stores metadata and outcome counters for each review run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		repository TEXT NOT NULL,
		pull_number INTEGER NOT NULL,
		commits INTEGER DEFAULT 0,
		commits_failed INTEGER DEFAULT 0,
		files_selected INTEGER DEFAULT 0,
		files_analyzed INTEGER DEFAULT 0,
		files_skipped INTEGER DEFAULT 0,
		comments_posted INTEGER DEFAULT 0,
		comments_failed INTEGER DEFAULT 0,
		findings_dropped INTEGER DEFAULT 0
	);

	-- Inline comments posted during a run
	CREATE TABLE IF NOT EXISTS comments (
		comment_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		commit_sha TEXT NOT NULL,
		path TEXT NOT NULL,
		position INTEGER NOT NULL,
		rule_id TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_comments_run ON comments(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_pull ON runs(repository, pull_number);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun stores a new review run.
func (s *Store) CreateRun(ctx context.Context, run review.StoreRun) error {
	query := `
		INSERT INTO runs (run_id, timestamp, repository, pull_number)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Timestamp.Unix(),
		run.Repository,
		run.PullNumber,
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// UpdateRunTotals records the final counters for a run.
func (s *Store) UpdateRunTotals(ctx context.Context, runID string, totals review.RunResult) error {
	query := `
		UPDATE runs SET
			commits = ?,
			commits_failed = ?,
			files_selected = ?,
			files_analyzed = ?,
			files_skipped = ?,
			comments_posted = ?,
			comments_failed = ?,
			findings_dropped = ?
		WHERE run_id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		totals.Commits,
		totals.CommitsFailed,
		totals.FilesSelected,
		totals.FilesAnalyzed,
		totals.FilesSkipped,
		totals.CommentsPosted,
		totals.CommentsFailed,
		totals.FindingsDropped,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run totals: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}

	return nil
}

// SaveComment stores a posted comment record.
func (s *Store) SaveComment(ctx context.Context, comment review.StoreComment) error {
	query := `
		INSERT INTO comments (run_id, commit_sha, path, position, rule_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		comment.RunID,
		comment.CommitSHA,
		comment.Path,
		comment.Position,
		comment.RuleID,
		comment.Body,
		comment.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to save comment: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (review.StoreRun, review.RunResult, error) {
	query := `
		SELECT run_id, timestamp, repository, pull_number,
			commits, commits_failed, files_selected, files_analyzed,
			files_skipped, comments_posted, comments_failed, findings_dropped
		FROM runs
		WHERE run_id = ?
	`

	var run review.StoreRun
	var totals review.RunResult
	var timestamp int64

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.RunID,
		&timestamp,
		&run.Repository,
		&run.PullNumber,
		&totals.Commits,
		&totals.CommitsFailed,
		&totals.FilesSelected,
		&totals.FilesAnalyzed,
		&totals.FilesSkipped,
		&totals.CommentsPosted,
		&totals.CommentsFailed,
		&totals.FindingsDropped,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return review.StoreRun{}, review.RunResult{}, fmt.Errorf("run not found: %s", runID)
		}
		return review.StoreRun{}, review.RunResult{}, fmt.Errorf("failed to get run: %w", err)
	}

	run.Timestamp = time.Unix(timestamp, 0)
	return run, totals, nil
}

// GetCommentsByRun retrieves all comments posted during a run, ordered
// by insertion.
func (s *Store) GetCommentsByRun(ctx context.Context, runID string) ([]review.StoreComment, error) {
	query := `
		SELECT run_id, commit_sha, path, position, rule_id, body, created_at
		FROM comments
		WHERE run_id = ?
		ORDER BY comment_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments by run: %w", err)
	}
	defer rows.Close()

	var comments []review.StoreComment
	for rows.Next() {
		var comment review.StoreComment
		var createdAt int64

		if err := rows.Scan(
			&comment.RunID,
			&comment.CommitSHA,
			&comment.Path,
			&comment.Position,
			&comment.RuleID,
			&comment.Body,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}

		comment.CreatedAt = time.Unix(createdAt, 0)
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]review.StoreRun, error) {
	query := `
		SELECT run_id, timestamp, repository, pull_number
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []review.StoreRun
	for rows.Next() {
		var run review.StoreRun
		var timestamp int64

		if err := rows.Scan(
			&run.RunID,
			&timestamp,
			&run.Repository,
			&run.PullNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Timestamp = time.Unix(timestamp, 0)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
