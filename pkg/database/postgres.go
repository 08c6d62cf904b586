// Package database owns the Postgres connection pool.
// SSOT: pgxpool is configured and created in this package only.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pesowatch/pkg/config"
)

// connectTimeout bounds the startup ping. A database that cannot
// answer in this window is treated as down.
const connectTimeout = 5 * time.Second

// DB wraps the shared pool. Repositories receive DB.Pool directly;
// the wrapper only adds lifecycle and health plumbing.
type DB struct {
	Pool *pgxpool.Pool
}

// New opens the pool from config and verifies the first connection,
// so a bad URL or an unreachable server fails at startup instead of
// on the first query.
func New(cfg *config.Config) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close releases the pool. Safe to call twice.
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Ping checks that the database still answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// HealthStatus is one health probe: reachability, how long the probe
// took, and the pool counters at that moment.
type HealthStatus struct {
	Healthy      bool          `json:"healthy"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
	Stats        PoolStats     `json:"stats"`
}

// PoolStats is the subset of pgxpool counters worth watching on a
// single-writer workload: saturation (acquired vs max) and contention
// (empty acquires mean callers waited for a connection).
type PoolStats struct {
	AcquireCount      int64 `json:"acquire_count"`
	EmptyAcquireCount int64 `json:"empty_acquire_count"`
	AcquiredConns     int32 `json:"acquired_conns"`
	IdleConns         int32 `json:"idle_conns"`
	TotalConns        int32 `json:"total_conns"`
	MaxConns          int32 `json:"max_conns"`
}

// HealthCheck probes the database and reports the outcome together
// with the pool counters. The error is also embedded in the status so
// callers can serialize it as-is.
func (db *DB) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		return &HealthStatus{Error: err.Error(), Stats: db.Stats()}, err
	}

	return &HealthStatus{
		Healthy:      true,
		ResponseTime: time.Since(start),
		Stats:        db.Stats(),
	}, nil
}

// Stats snapshots the pool counters.
func (db *DB) Stats() PoolStats {
	stat := db.Pool.Stat()
	return PoolStats{
		AcquireCount:      stat.AcquireCount(),
		EmptyAcquireCount: stat.EmptyAcquireCount(),
		AcquiredConns:     stat.AcquiredConns(),
		IdleConns:         stat.IdleConns(),
		TotalConns:        stat.TotalConns(),
		MaxConns:          stat.MaxConns(),
	}
}
