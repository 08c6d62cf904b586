package ratesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/pesowatch/pkg/httputil"
	"github.com/wonny/pesowatch/pkg/logger"
	"github.com/wonny/pesowatch/pkg/redis"
)

// Client scrapes published USD/PHP daily reference rates.
// SSOT: every upstream rate-page request goes through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	limiter    *rate.Limiter

	shared    *redis.RateLimiter
	sharedCfg redis.RateLimitConfig
}

// NewClient builds a client with a local politeness limiter of
// requestsPerMinute.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string, requestsPerMinute int) *Client {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 10
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}
}

// WithSharedLimiter adds the Redis sliding-window limiter on top of
// the local one, so all replicas together stay inside the upstream
// budget.
func (c *Client) WithSharedLimiter(limiter *redis.RateLimiter, requestsPerMinute int) *Client {
	c.shared = limiter
	c.sharedCfg = redis.SourceRateLimit(requestsPerMinute)
	return c
}

// fetchHTML fetches one page after clearing the politeness limiters.
func (c *Client) fetchHTML(ctx context.Context, path string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if err := c.waitShared(ctx); err != nil {
		return "", err
	}

	resp, err := c.httpClient.Get(ctx, c.baseURL+path)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rate page %s returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read rate page %s: %w", path, err)
	}
	return string(body), nil
}

// waitShared blocks until the cluster-wide budget admits one request.
// Limiter backend errors fail open: a broken Redis must not stop the
// daily pull.
func (c *Client) waitShared(ctx context.Context) error {
	if c.shared == nil {
		return nil
	}

	for {
		allowed, _, err := c.shared.Allow(ctx, c.sharedCfg)
		if err != nil {
			c.logger.WithError(err).Warn("Shared rate limiter unavailable, proceeding")
			return nil
		}
		if allowed {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
