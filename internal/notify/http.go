package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/manav03panchal/medalert/internal/config"
	"github.com/manav03panchal/medalert/internal/logging"
)

const maxErrorBody = 512

// HTTPClient posts webhook payloads with retry on network errors, rate
// limiting and server errors.
type HTTPClient struct {
	client     *http.Client
	maxRetries int
	retryDelay []time.Duration
	userAgent  string
}

// NewHTTPClient creates a client from the global HTTP configuration.
func NewHTTPClient() *HTTPClient {
	return NewHTTPClientWithConfig(config.Global.HTTP)
}

// NewHTTPClientWithConfig creates a client from cfg.
func NewHTTPClientWithConfig(cfg config.HTTPConfig) *HTTPClient {
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	return &HTTPClient{
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: attempts,
		retryDelay: cfg.RetryDelays,
		userAgent:  "medalert/1.0",
	}
}

// SendResult contains the result of a send operation.
type SendResult struct {
	StatusCode int
	Duration   time.Duration
	Attempts   int
	Error      error
}

// delayBefore returns the wait before the given zero-based attempt.
func (c *HTTPClient) delayBefore(attempt int) time.Duration {
	if attempt == 0 || len(c.retryDelay) == 0 {
		return 0
	}
	if attempt < len(c.retryDelay) {
		return c.retryDelay[attempt]
	}
	return c.retryDelay[len(c.retryDelay)-1]
}

// Send POSTs body to url. A 2xx response succeeds, a 4xx other than 429
// fails without retry.
func (c *HTTPClient) Send(ctx context.Context, url, contentType string, body []byte) *SendResult {
	result := &SendResult{}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		if d := c.delayBefore(attempt); d > 0 {
			logging.DebugLog("webhook retry",
				logging.KeyDelay, d.String(),
				"attempt", result.Attempts,
				logging.KeyError, result.Error,
			)
			select {
			case <-ctx.Done():
				result.Error = ctx.Err()
				return result
			case <-time.After(d):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			result.Error = fmt.Errorf("failed to create request: %w", err)
			return result
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			result.Error = fmt.Errorf("request failed: %w", err)
			if ctx.Err() != nil {
				return result
			}
			continue
		}

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		result.StatusCode = resp.StatusCode

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			result.Error = nil
			return result
		case resp.StatusCode == http.StatusTooManyRequests:
			result.Error = fmt.Errorf("rate limited (HTTP 429)")
		case resp.StatusCode >= 500:
			result.Error = fmt.Errorf("server error (HTTP %d): %s", resp.StatusCode, respBody)
		default:
			result.Error = fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, respBody)
			return result
		}
	}

	if result.Error == nil {
		result.Error = fmt.Errorf("max retries exceeded")
	}
	return result
}
