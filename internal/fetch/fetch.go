// Package fetch provides rate-limited, retrying HTTP fetching.
// This package centralizes all network access used by discovery, harvesting,
// and extraction; no other package issues requests directly.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; JobHarvest/1.0)"

// DefaultPerHostDelay is the minimum delay between requests to the same host.
const DefaultPerHostDelay = 500 * time.Millisecond

// DefaultMaxRetries is the retry budget for transient failures.
const DefaultMaxRetries = 3

// maxBodySize caps response bodies so a hostile page cannot exhaust memory.
const maxBodySize = 10 << 20 // 10 MB

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	Body        string
	ContentType string
	StatusCode  int
	Header      http.Header
}

// Error represents an error during URL fetching.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	Headers      map[string]string
	PerHostDelay time.Duration
	MaxRetries   int
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		PerHostDelay: DefaultPerHostDelay,
		MaxRetries:   DefaultMaxRetries,
	}
}

// Client is a rate-limited HTTP fetcher. Per-host limiter state is scoped to
// the client, which is scoped to one pipeline run; there is no package-level
// mutable state.
type Client struct {
	httpClient *http.Client
	opts       *Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a fetch client with the given options.
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		opts:       opts,
		limiters:   make(map[string]*rate.Limiter),
	}
}

// limiter returns the rate limiter for a host, creating it on first use.
// Returns nil when rate limiting is disabled (PerHostDelay <= 0).
func (c *Client) limiter(host string) *rate.Limiter {
	if c.opts.PerHostDelay <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(c.opts.PerHostDelay), 1)
		c.limiters[host] = lim
	}
	return lim
}

// Fetch retrieves a URL, honoring the per-host rate limit and retrying
// transient failures (timeouts, 429, 5xx) with exponential backoff. Terminal
// statuses (4xx other than 429) return immediately without retry.
func (c *Client) Fetch(ctx context.Context, urlStr string) (*Result, error) {
	return c.do(ctx, http.MethodGet, urlStr, "", nil)
}

// PostJSON sends a JSON payload under the same rate-limit and retry policy as
// Fetch. Used for ATS endpoints that only answer structured POST queries.
func (c *Client) PostJSON(ctx context.Context, urlStr string, payload []byte) (*Result, error) {
	return c.do(ctx, http.MethodPost, urlStr, "application/json", payload)
}

func (c *Client) do(ctx context.Context, method, urlStr, contentType string, payload []byte) (*Result, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	var lastResult *Result
	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			select {
			case <-ctx.Done():
				return nil, &Error{URL: urlStr, Message: "canceled during backoff", Cause: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		if lim := c.limiter(strings.ToLower(parsed.Host)); lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return nil, &Error{URL: urlStr, Message: "canceled waiting for rate limit", Cause: err}
			}
		}

		result, err := c.doRequest(ctx, method, urlStr, contentType, payload)
		if err == nil {
			return result, nil
		}
		lastResult, lastErr = result, err

		var fetchErr *Error
		if !errors.As(err, &fetchErr) || !fetchErr.Retryable {
			return result, err
		}
	}

	return lastResult, lastErr
}

func (c *Client) doRequest(ctx context.Context, method, urlStr, contentType string, payload []byte) (*Result, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("User-Agent", c.opts.UserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}
	for key, value := range c.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport-level failures (timeouts, resets) are worth retrying;
		// context cancellation is not.
		retryable := ctx.Err() == nil
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Retryable: retryable, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Retryable: true, Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		Body:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return result, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return result, &Error{
			URL:        urlStr,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
			Retryable:  true,
		}
	default:
		return result, &Error{
			URL:        urlStr,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP status %d", resp.StatusCode),
		}
	}
}

// IsRetryable reports whether err is a fetch error for a transient condition
// (one that exhausted its retry budget), as opposed to a terminal failure.
func IsRetryable(err error) bool {
	var fetchErr *Error
	if errors.As(err, &fetchErr) {
		return fetchErr.Retryable
	}
	return false
}
