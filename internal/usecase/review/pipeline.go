package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bkyoung/review-bot/internal/diff"
	"github.com/bkyoung/review-bot/internal/domain"
)

// HostingClient defines the outbound port to the hosting platform.
type HostingClient interface {
	// ListCommits returns the commits of a pull request.
	ListCommits(ctx context.Context, pullNumber int) ([]domain.Commit, error)

	// GetCommitFiles returns the files changed by a commit, including the
	// unified-diff patch fragment for each file when one exists.
	GetCommitFiles(ctx context.Context, sha string) ([]domain.ChangedFile, error)

	// GetFileContent returns the decoded content of a file at a revision.
	GetFileContent(ctx context.Context, filename, ref string) (string, error)

	// CreateComment submits one inline review comment.
	CreateComment(ctx context.Context, comment domain.Comment) error
}

// Analyzer defines the outbound port to a static analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, content, filename string) ([]domain.Finding, error)
}

// Store defines the outbound port for persisting run history.
type Store interface {
	CreateRun(ctx context.Context, run StoreRun) error
	UpdateRunTotals(ctx context.Context, runID string, totals RunResult) error
	SaveComment(ctx context.Context, comment StoreComment) error
	Close() error
}

// StoreRun represents one handled webhook event for persistence.
type StoreRun struct {
	RunID      string
	Timestamp  time.Time
	Repository string
	PullNumber int
}

// StoreComment represents one posted inline comment for persistence.
type StoreComment struct {
	RunID     string
	CommitSHA string
	Path      string
	Position  int
	RuleID    string
	Body      string
	CreatedAt time.Time
}

// PipelineDeps captures the collaborators for the review pipeline.
type PipelineDeps struct {
	Host     HostingClient
	Analyzer Analyzer
	Selector *FileSelector

	Logger     Logger // Optional: structured logging for warnings and info
	Store      Store  // Optional: persistence layer for run history
	Repository string // "owner/repo" identity for run records and logs

	// MaxConcurrentFiles bounds per-commit file fan-out; defaults to 4.
	MaxConcurrentFiles int
}

// Pipeline drives one webhook event through commit enumeration, file
// selection, content download, analysis, and comment submission.
//
// Every commit and every file is an independent unit of work: a failure is
// logged and skips only its own unit, never siblings and never the process.
type Pipeline struct {
	deps PipelineDeps
}

// NewPipeline wires the pipeline dependencies.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	if deps.Host == nil {
		return nil, errors.New("hosting client is required")
	}
	if deps.Analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	if deps.Selector == nil {
		return nil, errors.New("file selector is required")
	}
	if deps.MaxConcurrentFiles <= 0 {
		deps.MaxConcurrentFiles = 4
	}
	return &Pipeline{deps: deps}, nil
}

// RunResult tallies the outcome of one handled event.
type RunResult struct {
	Commits         int // commits enumerated for the pull request
	CommitsFailed   int // commits skipped because their file listing failed
	FilesSelected   int // changed files that passed the selector
	FilesAnalyzed   int // files whose analysis completed
	FilesSkipped    int // files skipped after download or analyzer failure
	CommentsPosted  int // inline comments accepted by the hosting platform
	CommentsFailed  int // comment submissions that failed
	FindingsDropped int // findings on lines outside the visible diff
}

func (r *RunResult) add(other RunResult) {
	r.Commits += other.Commits
	r.CommitsFailed += other.CommitsFailed
	r.FilesSelected += other.FilesSelected
	r.FilesAnalyzed += other.FilesAnalyzed
	r.FilesSkipped += other.FilesSkipped
	r.CommentsPosted += other.CommentsPosted
	r.CommentsFailed += other.CommentsFailed
	r.FindingsDropped += other.FindingsDropped
}

// Handle processes one webhook event to completion and returns the run
// summary. Events without a pull-request reference are ignored; no error is
// ever returned because no failure inside one event may take the service
// down.
func (p *Pipeline) Handle(ctx context.Context, event domain.WebhookEvent) RunResult {
	if event.PullRequest == nil || event.PullRequest.Number <= 0 {
		return RunResult{}
	}
	pr := *event.PullRequest

	commits, err := p.deps.Host.ListCommits(ctx, pr.Number)
	if err != nil {
		// The next webhook delivery, if any, re-triggers this event.
		p.logWarning(ctx, "failed to list pull request commits", map[string]interface{}{
			"pullNumber": pr.Number,
			"error":      err.Error(),
		})
		return RunResult{}
	}

	now := time.Now()
	runID := generateRunID(now, pr.Number)
	if p.deps.Store != nil {
		if err := p.deps.Store.CreateRun(ctx, StoreRun{
			RunID:      runID,
			Timestamp:  now,
			Repository: p.deps.Repository,
			PullNumber: pr.Number,
		}); err != nil {
			// Store failures shouldn't break reviews
			p.logWarning(ctx, "failed to create run record", map[string]interface{}{
				"runID": runID,
				"error": err.Error(),
			})
		}
	}

	var wg sync.WaitGroup
	results := make(chan RunResult, len(commits))

	for _, commit := range commits {
		wg.Add(1)
		go func(commit domain.Commit) {
			defer func() {
				if r := recover(); r != nil {
					p.logWarning(ctx, "commit review panicked", map[string]interface{}{
						"sha":   commit.SHA,
						"panic": fmt.Sprint(r),
					})
					results <- RunResult{CommitsFailed: 1}
				}
				wg.Done()
			}()
			results <- p.reviewCommit(ctx, pr, runID, commit)
		}(commit)
	}

	wg.Wait()
	close(results)

	total := RunResult{Commits: len(commits)}
	for res := range results {
		total.add(res)
	}

	p.logInfo(ctx, "review run complete", map[string]interface{}{
		"runID":           runID,
		"pullNumber":      pr.Number,
		"commits":         total.Commits,
		"commitsFailed":   total.CommitsFailed,
		"filesSelected":   total.FilesSelected,
		"filesAnalyzed":   total.FilesAnalyzed,
		"filesSkipped":    total.FilesSkipped,
		"commentsPosted":  total.CommentsPosted,
		"commentsFailed":  total.CommentsFailed,
		"findingsDropped": total.FindingsDropped,
	})

	if p.deps.Store != nil {
		if err := p.deps.Store.UpdateRunTotals(ctx, runID, total); err != nil {
			p.logWarning(ctx, "failed to update run totals", map[string]interface{}{
				"runID": runID,
				"error": err.Error(),
			})
		}
	}

	return total
}

// reviewCommit reviews every selected file of one commit. File units run
// concurrently, bounded by MaxConcurrentFiles.
func (p *Pipeline) reviewCommit(ctx context.Context, pr domain.PullRequestRef, runID string, commit domain.Commit) RunResult {
	files, err := p.deps.Host.GetCommitFiles(ctx, commit.SHA)
	if err != nil {
		p.logWarning(ctx, "failed to list commit files", map[string]interface{}{
			"pullNumber": pr.Number,
			"sha":        commit.SHA,
			"error":      err.Error(),
		})
		return RunResult{CommitsFailed: 1}
	}

	selected := p.deps.Selector.Select(files)
	res := RunResult{FilesSelected: len(selected)}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(p.deps.MaxConcurrentFiles)

	for _, file := range selected {
		g.Go(func() error {
			fileRes := p.reviewFile(ctx, pr, runID, commit, file)
			mu.Lock()
			res.add(fileRes)
			mu.Unlock()
			// File units report their own failures; nothing propagates.
			return nil
		})
	}
	_ = g.Wait()

	return res
}

// reviewFile downloads, analyzes, and comments on a single file at a single
// commit. Findings on lines the diff does not show are dropped: the hosting
// platform rejects comments anchored to unmapped positions.
func (p *Pipeline) reviewFile(ctx context.Context, pr domain.PullRequestRef, runID string, commit domain.Commit, file domain.ChangedFile) RunResult {
	content, err := p.deps.Host.GetFileContent(ctx, file.Filename, commit.SHA)
	if err != nil {
		p.logWarning(ctx, "failed to download file content", map[string]interface{}{
			"sha":   commit.SHA,
			"file":  file.Filename,
			"error": err.Error(),
		})
		return RunResult{FilesSkipped: 1}
	}

	lineMap := diff.BuildLineMap(file.Patch)

	findings, err := p.deps.Analyzer.Analyze(ctx, content, file.Filename)
	if err != nil {
		p.logWarning(ctx, "analyzer failed", map[string]interface{}{
			"sha":   commit.SHA,
			"file":  file.Filename,
			"error": err.Error(),
		})
		return RunResult{FilesSkipped: 1}
	}

	res := RunResult{FilesAnalyzed: 1}
	for _, finding := range findings {
		position, ok := lineMap[finding.Line]
		if !ok {
			res.FindingsDropped++
			continue
		}

		comment := domain.Comment{
			PullNumber: pr.Number,
			CommitSHA:  commit.SHA,
			Path:       file.Filename,
			Position:   position,
			Body:       FormatCommentBody(finding),
		}
		if err := p.deps.Host.CreateComment(ctx, comment); err != nil {
			p.logWarning(ctx, "failed to post comment", map[string]interface{}{
				"sha":      commit.SHA,
				"file":     file.Filename,
				"line":     finding.Line,
				"position": position,
				"error":    err.Error(),
			})
			res.CommentsFailed++
			continue
		}
		res.CommentsPosted++

		if p.deps.Store != nil {
			if err := p.deps.Store.SaveComment(ctx, StoreComment{
				RunID:     runID,
				CommitSHA: commit.SHA,
				Path:      file.Filename,
				Position:  position,
				RuleID:    finding.RuleID,
				Body:      comment.Body,
				CreatedAt: time.Now(),
			}); err != nil {
				p.logWarning(ctx, "failed to save comment record", map[string]interface{}{
					"runID": runID,
					"file":  file.Filename,
					"error": err.Error(),
				})
			}
		}
	}

	return res
}

// FormatCommentBody renders a finding as a review comment body.
func FormatCommentBody(finding domain.Finding) string {
	rule := finding.RuleID
	if rule == "" {
		rule = domain.DefaultRuleID
	}
	return fmt.Sprintf("**%s**: %s", rule, finding.Message)
}

func generateRunID(now time.Time, pullNumber int) string {
	return fmt.Sprintf("%s-pr%d", now.UTC().Format("20060102T150405Z"), pullNumber)
}

func (p *Pipeline) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if p.deps.Logger != nil {
		p.deps.Logger.LogWarning(ctx, message, fields)
		return
	}
	log.Printf("warning: %s: %v", message, fields)
}

func (p *Pipeline) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if p.deps.Logger != nil {
		p.deps.Logger.LogInfo(ctx, message, fields)
		return
	}
	log.Printf("%s: %v", message, fields)
}
