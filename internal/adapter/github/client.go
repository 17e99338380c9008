// Package github implements the review.HostingClient port using the
// go-github library.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/bkyoung/review-bot/internal/adapter/httpx"
	"github.com/bkyoung/review-bot/internal/domain"
	"github.com/bkyoung/review-bot/internal/usecase/review"
)

// Compile-time interface satisfaction check.
var _ review.HostingClient = (*Client)(nil)

// Client implements the review.HostingClient port against the GitHub
// REST API for a single repository.
type Client struct {
	gh    *gh.Client
	owner string
	repo  string
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
//
// A non-empty baseURL points the client at a GitHub Enterprise instance.
func NewClient(token, baseURL, owner, repo string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	client, err := withBaseURL(client, baseURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		gh:    client,
		owner: owner,
		repo:  repo,
	}, nil
}

// NewAppClient creates a client authenticated as a GitHub App
// installation instead of a personal access token. Tokens are minted
// and refreshed by the installation transport.
func NewAppClient(appID, installationID int64, privateKeyPath, baseURL, owner, repo string) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()

	itr, err := ghinstallation.NewKeyFromFile(cacheTransport, appID, installationID, privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("creating app installation transport: %w", err)
	}
	if baseURL != "" {
		itr.BaseURL = strings.TrimSuffix(baseURL, "/")
	}

	rateLimitClient := github_ratelimit.NewClient(itr)
	client := gh.NewClient(rateLimitClient)

	client, err = withBaseURL(client, baseURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		gh:    client,
		owner: owner,
		repo:  repo,
	}, nil
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, owner, repo string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{
		gh:    client,
		owner: owner,
		repo:  repo,
	}, nil
}

// withBaseURL redirects the client to a GitHub Enterprise instance when
// baseURL is non-empty.
func withBaseURL(client *gh.Client, baseURL string) (*gh.Client, error) {
	if baseURL == "" {
		return client, nil
	}
	client, err := client.WithEnterpriseURLs(baseURL, baseURL)
	if err != nil {
		return nil, fmt.Errorf("configuring enterprise base URL: %w", err)
	}
	return client, nil
}

// ListCommits retrieves every commit on a pull request in chronological
// order. It handles pagination automatically.
func (c *Client) ListCommits(ctx context.Context, pullNumber int) ([]domain.Commit, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var all []domain.Commit

	for {
		commits, resp, err := c.gh.PullRequests.ListCommits(ctx, c.owner, c.repo, pullNumber, opts)
		if err != nil {
			return nil, wrapAPIError(err, resp, fmt.Sprintf("listing commits for #%d (page %d)", pullNumber, opts.Page))
		}

		for _, commit := range commits {
			all = append(all, domain.Commit{SHA: commit.GetSHA()})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// GetCommitFiles retrieves the files changed by a single commit,
// including each file's unified diff patch. Large commits paginate
// their file lists, so it follows NextPage until exhausted.
func (c *Client) GetCommitFiles(ctx context.Context, sha string) ([]domain.ChangedFile, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var all []domain.ChangedFile

	for {
		commit, resp, err := c.gh.Repositories.GetCommit(ctx, c.owner, c.repo, sha, opts)
		if err != nil {
			return nil, wrapAPIError(err, resp, fmt.Sprintf("fetching commit %s (page %d)", sha, opts.Page))
		}

		for _, f := range commit.Files {
			all = append(all, domain.ChangedFile{
				Filename: f.GetFilename(),
				Status:   f.GetStatus(),
				Patch:    f.GetPatch(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// GetFileContent retrieves a file's full content at the given commit.
// The contents API returns base64; GetContent decodes it.
func (c *Client) GetFileContent(ctx context.Context, path, ref string) (string, error) {
	fileContent, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, &gh.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		return "", wrapAPIError(err, resp, fmt.Sprintf("fetching contents of %s at %s", path, ref))
	}
	if fileContent == nil {
		return "", fmt.Errorf("%s at %s is a directory, not a file", path, ref)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding contents of %s at %s: %w", path, ref, err)
	}

	return content, nil
}

// CreateComment posts an inline review comment anchored by diff
// position.
func (c *Client) CreateComment(ctx context.Context, comment domain.Comment) error {
	payload := &gh.PullRequestComment{
		Body:     gh.Ptr(comment.Body),
		CommitID: gh.Ptr(comment.CommitSHA),
		Path:     gh.Ptr(comment.Path),
		Position: gh.Ptr(comment.Position),
	}

	_, resp, err := c.gh.PullRequests.CreateComment(ctx, c.owner, c.repo, comment.PullNumber, payload)
	if err != nil {
		return wrapAPIError(err, resp, fmt.Sprintf("posting comment on %s@%s position %d", comment.Path, comment.CommitSHA, comment.Position))
	}

	return nil
}

// wrapAPIError maps a go-github failure onto the shared error taxonomy
// so callers can reason about retryability without importing go-github.
func wrapAPIError(err error, resp *gh.Response, action string) error {
	if resp != nil {
		return httpx.MapStatusCode("github", resp.StatusCode, fmt.Sprintf("%s: %v", action, err))
	}
	return fmt.Errorf("%s: %w", action, err)
}
