package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/vietddude/salvage/internal/core/domain"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultRetryAttempts = 2
	defaultRetryDelay    = 500 * time.Millisecond

	// maxAnalysisPages caps paging through analysis results.
	maxAnalysisPages = 100
)

// Config holds remote API client configuration.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// Client talks to the server of record over HTTP/JSON. Transient failures
// (network errors, 5xx) are retried with a constant delay; 4xx responses
// are permanent.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   uint64
	delay      time.Duration
	logger     *slog.Logger
}

// NewClient creates a remote API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	attempts := cfg.RetryAttempts
	if attempts == 0 {
		attempts = defaultRetryAttempts
	}
	delay := cfg.RetryDelay
	if delay == 0 {
		delay = defaultRetryDelay
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		attempts: uint64(attempts),
		delay:    delay,
		logger:   logger,
	}
}

// ValidateBatch fetches the server-side state of a batch.
func (c *Client) ValidateBatch(
	ctx context.Context,
	batchID, sessionID, userID string,
) (*domain.BatchState, error) {
	query := url.Values{}
	if sessionID != "" {
		query.Set("sessionId", sessionID)
	}
	if userID != "" {
		query.Set("userId", userID)
	}

	var out struct {
		Valid bool               `json:"valid"`
		State *domain.BatchState `json:"state"`
	}
	path := fmt.Sprintf("/batches/%s/validate", url.PathEscape(batchID))
	if err := c.getJSON(ctx, path, query, &out); err != nil {
		return nil, err
	}
	if out.State == nil {
		return nil, errors.New("server returned no state")
	}
	return out.State, nil
}

// ListResumes fetches the batch's constituent items.
func (c *Client) ListResumes(
	ctx context.Context,
	batchID, sessionID string,
) ([]domain.Resume, error) {
	query := url.Values{"batchId": {batchID}}
	if sessionID != "" {
		query.Set("sessionId", sessionID)
	}

	var out struct {
		Resumes []domain.Resume `json:"resumes"`
	}
	if err := c.getJSON(ctx, "/resumes", query, &out); err != nil {
		return nil, err
	}
	return out.Resumes, nil
}

// FetchAnalysis pages through the batch's computed results.
func (c *Client) FetchAnalysis(
	ctx context.Context,
	batchID string,
) ([]domain.AnalysisResult, error) {
	query := url.Values{"batchId": {batchID}}

	var all []domain.AnalysisResult
	for page := 1; page <= maxAnalysisPages; page++ {
		var out struct {
			Results []domain.AnalysisResult `json:"results"`
			HasMore bool                    `json:"has_more"`
		}
		path := fmt.Sprintf("/analysis/analyze/%d", page)
		if err := c.getJSON(ctx, path, query, &out); err != nil {
			return nil, err
		}
		all = append(all, out.Results...)
		if !out.HasMore {
			break
		}
	}
	return all, nil
}

// ValidateMetadata fetches the batch's validation descriptor. Any
// successfully parsed body counts as recovered.
func (c *Client) ValidateMetadata(
	ctx context.Context,
	batchID, sessionID, userID string,
) (map[string]any, error) {
	query := url.Values{"metadata": {"true"}}
	if sessionID != "" {
		query.Set("sessionId", sessionID)
	}
	if userID != "" {
		query.Set("userId", userID)
	}

	var out map[string]any
	path := fmt.Sprintf("/batches/%s/validate", url.PathEscape(batchID))
	if err := c.getJSON(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// getJSON performs a GET with retry and decodes the response body.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	backoff := retry.WithMaxRetries(c.attempts, retry.NewConstant(c.delay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("request: %w", err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read response: %w", err))
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("http %d: %s", resp.StatusCode, body))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("http %d: %s", resp.StatusCode, body)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
		return nil
	})
}
