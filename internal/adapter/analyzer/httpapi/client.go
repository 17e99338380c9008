// Package httpapi implements the review.Analyzer port against a remote
// analysis service speaking a small JSON protocol.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bkyoung/review-bot/internal/adapter/httpx"
	"github.com/bkyoung/review-bot/internal/domain"
	"github.com/bkyoung/review-bot/internal/usecase/review"
)

const defaultTimeout = 30 * time.Second

// Compile-time interface satisfaction check.
var _ review.Analyzer = (*Client)(nil)

// Client is an HTTP client for a remote analyzer service.
type Client struct {
	name    string
	baseURL string
	token   string
	client  *http.Client
	retry   httpx.RetryConfig
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg httpx.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// NewClient creates a remote analyzer client. The name identifies the
// analyzer in errors and logs; token may be empty for unauthenticated
// services.
func NewClient(name, baseURL, token string, opts ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: defaultTimeout},
		retry:   httpx.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// analyzeRequest is the wire format sent to the service.
type analyzeRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// analyzeResponse is the wire format returned by the service.
type analyzeResponse struct {
	Findings []findingJSON `json:"findings"`
}

type findingJSON struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
	Line    int    `json:"line"`
}

// Analyze implements the Analyzer port by POSTing the file to the
// remote service. Transient failures are retried with backoff.
func (c *Client) Analyze(ctx context.Context, content, filename string) ([]domain.Finding, error) {
	jsonData, err := json.Marshal(analyzeRequest{
		Filename: filename,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling analyze request: %w", err)
	}

	url := c.baseURL + "/analyze"

	var body []byte
	err = httpx.RetryWithBackoff(ctx, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if reqErr != nil {
			return &httpx.Error{
				Type:      httpx.ErrTypeUnknown,
				Message:   reqErr.Error(),
				Retryable: false,
				Service:   c.name,
			}
		}

		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, callErr := c.client.Do(req)
		if callErr != nil {
			return httpx.NewTimeoutError(c.name, callErr.Error())
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return httpx.MapStatusCode(c.name, resp.StatusCode, string(msg))
		}

		body, callErr = io.ReadAll(resp.Body)
		if callErr != nil {
			return httpx.NewTimeoutError(c.name, callErr.Error())
		}
		return nil
	}, c.retry)
	if err != nil {
		return nil, err
	}

	var parsed analyzeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing analyze response from %s: %w", c.name, err)
	}

	findings := make([]domain.Finding, 0, len(parsed.Findings))
	for _, f := range parsed.Findings {
		findings = append(findings, domain.NewFinding(f.Rule, f.Message, f.Line))
	}

	return findings, nil
}
