package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the Drive v3 REST endpoint.
const DefaultBaseURL = "https://www.googleapis.com/drive/v3"

const (
	maxRetries       = 5
	baseBackoff      = 1 * time.Second
	maxBackoff       = 60 * time.Second
	jitterFraction   = 0.25
	maxErrorBody     = 64 << 10
	defaultUserAgent = "ghive/0.1"
)

// TokenSource provides OAuth2 bearer tokens. Tests pass a static token.
type TokenSource interface {
	Token() (string, error)
}

// Client talks to the Drive v3 REST API. It is the only place in ghive that
// retries: idempotent requests are retried with jittered exponential backoff
// on network failures, 408, 429 and 5xx; PATCH and POST only on 429.
// Everything else is returned as an *APIError wrapping a sentinel.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
	userAgent  string

	// sleep waits between attempts. Tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Drive API client. baseURL is normally DefaultBaseURL.
// Nil httpClient and logger fall back to the defaults, an empty userAgent to
// "ghive/<version>".
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger, userAgent string) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
		userAgent:  userAgent,
		sleep:      sleepContext,
	}
}

// Do sends method to baseURL+path with query encoded onto it. A non-nil body
// is sent as JSON and replayed on every attempt that mayRetry allows. On
// success the caller owns the response body.
//
// Log lines carry method and status only. Paths contain file ids and must
// not reach public logs.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, method, target, body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("drive: request canceled: %w", ctx.Err())
			}

			if !mayRetry(method, 0) {
				return nil, fmt.Errorf("drive: %s failed: %w", method, err)
			}

			if attempt == maxRetries {
				return nil, fmt.Errorf("drive: %s failed after %d retries: %w", method, maxRetries, err)
			}

			if err := c.pause(ctx, method, 0, attempt, c.backoff(attempt)); err != nil {
				return nil, err
			}

			continue
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			c.logger.Debug("drive request done",
				slog.String("method", method),
				slog.Int("status", resp.StatusCode),
			)

			return resp, nil
		}

		apiErr := decodeAPIError(resp)

		if !mayRetry(method, apiErr.StatusCode) || attempt == maxRetries {
			if attempt > 0 {
				c.logger.Error("drive request failed after retries",
					slog.String("method", method),
					slog.Int("status", apiErr.StatusCode),
					slog.Int("attempts", attempt+1),
				)
			}

			return nil, apiErr
		}

		if err := c.pause(ctx, method, apiErr.StatusCode, attempt, c.retryDelay(resp.Header, attempt)); err != nil {
			return nil, err
		}
	}
}

// mayRetry reports whether a failed attempt may be repeated. A zero status
// means no response arrived. Mutations are repeated only on 429, which Drive
// returns before applying anything: after a lost response or a 5xx the
// change may already have happened.
func mayRetry(method string, status int) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return status == 0 || isRetryable(status)
	default:
		return status == http.StatusTooManyRequests
	}
}

// send performs one attempt.
func (c *Client) send(ctx context.Context, method, target string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	tok, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("obtaining token: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// pause logs the upcoming retry and waits d. A zero status means the attempt
// failed before a response arrived.
func (c *Client) pause(ctx context.Context, method string, status, attempt int, d time.Duration) error {
	attrs := []any{
		slog.String("method", method),
		slog.Int("attempt", attempt+1),
		slog.Duration("backoff", d),
	}

	if status != 0 {
		attrs = append(attrs, slog.Int("status", status))
	}

	c.logger.Warn("retrying drive request", attrs...)

	if err := c.sleep(ctx, d); err != nil {
		return fmt.Errorf("drive: request canceled: %w", err)
	}

	return nil
}

// decodeAPIError drains and closes a non-2xx response into an *APIError.
func decodeAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()

	msg, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		msg = []byte("(failed to read response body)")
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(msg),
		Err:        classifyStatus(resp.StatusCode),
	}
}

// retryDelay honors a Retry-After header given in seconds and falls back to
// exponential backoff.
func (c *Client) retryDelay(h http.Header, attempt int) time.Duration {
	if seconds, err := strconv.Atoi(h.Get("Retry-After")); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return c.backoff(attempt)
}

// backoff doubles from baseBackoff up to maxBackoff and adds up to
// jitterFraction of noise either way.
func (c *Client) backoff(attempt int) time.Duration {
	d := maxBackoff
	if attempt < 6 {
		d = min(baseBackoff<<attempt, maxBackoff)
	}

	jitter := float64(d) * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand

	return d + time.Duration(jitter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
