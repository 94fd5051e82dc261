// Package httpclient issues the GET requests registry adapters depend on.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/stacklok/plugin-index/pkg/versions"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// DefaultMaxTries bounds attempts for transient failures
	DefaultMaxTries = 3
)

// Client is an interface for HTTP operations
type Client interface {
	// Get performs an HTTP GET request with the given query parameters. Any
	// status code is returned as a Response; only transport failures are errors.
	Get(ctx context.Context, rawURL string, query url.Values) (*Response, error)
}

// DefaultClient is the default HTTP client implementation. Transport errors and
// 429/502/503/504 responses are retried with exponential backoff.
type DefaultClient struct {
	client   *http.Client
	maxTries uint
	backOff  func() backoff.BackOff
}

var _ Client = (*DefaultClient)(nil)

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithMaxTries sets the number of attempts for retryable failures
func WithMaxTries(n uint) Option {
	return func(c *DefaultClient) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

// WithBackOff sets the backoff policy factory used between attempts
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *DefaultClient) {
		c.backOff = f
	}
}

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *DefaultClient) {
		c.client = hc
	}
}

// NewDefaultClient creates a new default HTTP client with the specified timeout
// If timeout is 0, uses DefaultTimeout
func NewDefaultClient(timeout time.Duration, opts ...Option) *DefaultClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	c := &DefaultClient{
		client: &http.Client{
			Timeout: timeout,
		},
		maxTries: DefaultMaxTries,
		backOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request
func (c *DefaultClient) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	target, err := buildURL(rawURL, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	attempt := 0
	return backoff.Retry(ctx, func() (*Response, error) {
		attempt++
		resp, err := c.do(ctx, target)
		if err != nil {
			slog.DebugContext(ctx, "HTTP request failed", "url", target, "attempt", attempt, "error", err)
			return nil, err
		}
		if retryable(resp.StatusCode) && attempt < int(c.maxTries) {
			slog.DebugContext(ctx, "Retrying HTTP request", "url", target, "status", resp.StatusCode, "attempt", attempt)
			if secs := retryAfterSeconds(resp.Header); secs > 0 {
				return nil, backoff.RetryAfter(secs)
			}
			return nil, resp.Err()
		}
		return resp, nil
	}, backoff.WithBackOff(c.backOff()), backoff.WithMaxTries(c.maxTries))
}

func (c *DefaultClient) do(ctx context.Context, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", versions.UserAgent())
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("failed to execute request: %w", err))
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.ContentLength > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			resp.ContentLength, MaxResponseSize, float64(MaxResponseSize)/(1024*1024)))
	}

	// +1 to detect if limit exceeded
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, backoff.Permanent(fmt.Errorf("response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			MaxResponseSize, float64(MaxResponseSize)/(1024*1024)))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		URL:        target,
	}, nil
}

func buildURL(rawURL string, query url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid URL %q", rawURL)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryAfterSeconds(h http.Header) int {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}
