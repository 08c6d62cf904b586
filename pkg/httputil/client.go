// Package httputil is the outbound HTTP layer: one client with retry,
// rate limiting, and request logging baked in.
// SSOT: every request to the upstream rate source goes through here.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/pesowatch/pkg/config"
	"github.com/wonny/pesowatch/pkg/logger"
	"github.com/wonny/pesowatch/pkg/redis"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRetries   = 3
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 10 * time.Second
)

// RetryConfig controls the backoff loop. Delay doubles per attempt up
// to MaxDelay.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Enabled      bool
}

// Client wraps http.Client with the behaviors a polite scraper needs:
// exponential backoff, a shared budget in Redis, a stable User-Agent,
// and a debug log line per request.
type Client struct {
	httpClient   *http.Client
	logger       *logger.Logger
	retryConfig  RetryConfig
	rateLimiter  *redis.RateLimiter
	rateLimitCfg *redis.RateLimitConfig
	userAgent    string
}

// New builds a client with the default timeout and retry policy.
// SSOT: the http.Client instance is created here only.
func New(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log,
		retryConfig: RetryConfig{
			MaxRetries:   defaultMaxRetries,
			InitialDelay: defaultInitialDelay,
			MaxDelay:     defaultMaxDelay,
			Enabled:      true,
		},
	}
}

// NewWithTimeout builds a client with a custom per-request timeout.
func NewWithTimeout(cfg *config.Config, log *logger.Logger, timeout time.Duration) *Client {
	c := New(cfg, log)
	c.httpClient.Timeout = timeout
	return c
}

// WithRetry overrides the retry count and initial delay.
func (c *Client) WithRetry(maxRetries int, initialDelay time.Duration) *Client {
	c.retryConfig.MaxRetries = maxRetries
	c.retryConfig.InitialDelay = initialDelay
	c.retryConfig.Enabled = true
	return c
}

// DisableRetry makes every request single-shot.
func (c *Client) DisableRetry() *Client {
	c.retryConfig.Enabled = false
	return c
}

// WithRateLimiter attaches the Redis budget. Every request then waits
// for a slot before dialing out.
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *Client {
	c.rateLimiter = limiter
	c.rateLimitCfg = &cfg
	return c
}

// WithUserAgent sets the User-Agent header on all requests.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// Get issues a GET through the retry and rate limit pipeline.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build GET %s: %w", url, err)
	}
	return c.do(req)
}

// Post issues a POST with the given body and content type.
func (c *Client) Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("build POST %s: %w", url, err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req)
}

// PostJSON marshals data and POSTs it as application/json.
func (c *Client) PostJSON(ctx context.Context, url string, data interface{}) (*http.Response, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal request payload: %w", err)
	}
	return c.Post(ctx, url, "application/json", bytes.NewReader(payload))
}

// PostForm encodes values and POSTs them as a form.
func (c *Client) PostForm(ctx context.Context, targetURL string, formData url.Values) (*http.Response, error) {
	return c.Post(ctx, targetURL, "application/x-www-form-urlencoded", strings.NewReader(formData.Encode()))
}

// IsRetryableError reports whether a status is worth another attempt:
// server-side failures and 429 from the upstream throttle.
func IsRetryableError(statusCode int) bool {
	return statusCode >= 500 || statusCode == http.StatusTooManyRequests
}

// do runs one logical request: rate limit wait, send (with retries),
// and a log line either way.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	if c.rateLimiter != nil && c.rateLimitCfg != nil {
		if err := c.rateLimiter.Wait(req.Context(), *c.rateLimitCfg); err != nil {
			return nil, fmt.Errorf("wait for rate budget: %w", err)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	}).Debug("Outbound request")

	start := time.Now()
	resp, err := c.send(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"duration": duration,
			"error":    err.Error(),
		}).Error("Outbound request failed")
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":      req.Method,
		"url":         req.URL.String(),
		"status_code": resp.StatusCode,
		"duration":    duration,
	}).Debug("Outbound request done")

	return resp, nil
}

// send retries transient failures with exponential backoff. Requests
// built by this package carry GetBody, so the body can be rewound
// between attempts; a request without GetBody is sent once.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if !c.retryConfig.Enabled {
		return c.httpClient.Do(req)
	}

	delay := c.retryConfig.InitialDelay

	for attempt := 0; ; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err == nil && !IsRetryableError(resp.StatusCode) {
			return resp, nil
		}
		if attempt == c.retryConfig.MaxRetries {
			return resp, err
		}
		// A consumed body that cannot be rewound cannot be resent.
		if req.Body != nil && req.GetBody == nil {
			return resp, err
		}

		// The failed attempt's body must be drained before the
		// connection can be reused.
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
		if req.Body != nil {
			body, rewindErr := req.GetBody()
			if rewindErr != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", rewindErr)
			}
			req.Body = body
		}

		c.logger.WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"delay":   delay,
			"url":     req.URL.String(),
		}).Warn("Backing off before retry")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}

		if delay = delay * 2; delay > c.retryConfig.MaxDelay {
			delay = c.retryConfig.MaxDelay
		}
	}
}
