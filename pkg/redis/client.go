// Package redis holds the optional Redis side of the stack: the shared
// rate limiter and the alert ledger mirror. Everything here tolerates
// Redis being switched off; callers check Enabled and fall back.
// SSOT: go-redis is imported here and nowhere else.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/pesowatch/pkg/config"
)

const connectTimeout = 5 * time.Second

// Client wraps go-redis together with the enabled flag from config.
// A disabled client is a valid value; its methods no-op.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New connects to Redis when REDIS_ENABLED is set, otherwise returns
// a disabled client. Connection failures are startup errors: a half
// working limiter would let replicas hammer the upstream.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{}, nil
	}

	addr := fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// Enabled reports whether a live connection is behind this client.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis exposes the underlying connection for callers that issue
// their own commands. Only valid when Enabled is true.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Close shuts the connection down. No-op for a disabled client.
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
