package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// retryInterval is how long Wait sleeps between denied attempts.
const retryInterval = 100 * time.Millisecond

// slidingWindow trims expired members, counts what is left, and only
// then admits the caller. Runs as one script so concurrent replicas
// cannot both pass the count check. Returns {admitted, remaining}.
var slidingWindow = redis.NewScript(`
	redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[2])
	local used = redis.call('ZCARD', KEYS[1])
	if used >= tonumber(ARGV[3]) then
		return {0, 0}
	end
	redis.call('ZADD', KEYS[1], ARGV[1], ARGV[1])
	redis.call('PEXPIRE', KEYS[1], ARGV[4])
	return {1, tonumber(ARGV[3]) - used - 1}
`)

// RateLimitConfig names one budget: at most Limit requests per Window
// under the given Key.
type RateLimitConfig struct {
	Key    string
	Limit  int
	Window time.Duration
}

// SourceRateLimit is the budget for the upstream rate page. Per
// minute, shared across every replica that points at the same Redis.
func SourceRateLimit(requestsPerMinute int) RateLimitConfig {
	return RateLimitConfig{
		Key:    "ratesource",
		Limit:  requestsPerMinute,
		Window: time.Minute,
	}
}

// RateLimiter enforces budgets in Redis so all replicas draw from one
// pool. With Redis disabled it admits everything; the in-process
// limiter in httputil still applies.
type RateLimiter struct {
	client *Client
	prefix string
}

// NewRateLimiter scopes a limiter under the given key prefix.
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{client: client, prefix: prefix}
}

// Allow spends one slot of the budget if any remain. Reports whether
// the request may proceed and how many slots are left in the window.
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, nil
	}

	now := time.Now().UnixMilli()
	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)

	res, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now,
		now-cfg.Window.Milliseconds(),
		cfg.Limit,
		cfg.Window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	admitted := res[0].(int64) == 1
	remaining := int(res[1].(int64))
	return admitted, remaining, nil
}

// Wait polls Allow until a slot opens or the context ends.
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		admitted, _, err := r.Allow(ctx, cfg)
		if err != nil {
			return err
		}
		if admitted {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}
