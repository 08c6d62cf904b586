package redis

import (
	"context"
	"fmt"
	"time"
)

// LedgerStore persists the alert cooldown ledger as a Redis hash.
// Field = alert kind id, value = last-fired timestamp in RFC3339 (UTC).
// Entries are only ever added or overwritten, never removed, so plain
// HSET per save round is enough.
type LedgerStore struct {
	client *Client
	key    string
}

// NewLedgerStore creates a ledger store under the given key prefix
func NewLedgerStore(client *Client, prefix string) *LedgerStore {
	return &LedgerStore{
		client: client,
		key:    fmt.Sprintf("%s:alert:ledger", prefix),
	}
}

// Load reads the full ledger. Returns an empty map when Redis is
// disabled or the hash does not exist yet. Corrupt timestamps are
// skipped rather than failing the whole load.
func (s *LedgerStore) Load(ctx context.Context) (map[string]time.Time, error) {
	entries := make(map[string]time.Time)
	if !s.client.Enabled() {
		return entries, nil
	}

	raw, err := s.client.Redis().HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("ledger load failed: %w", err)
	}

	for kind, stamp := range raw {
		ts, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			continue
		}
		entries[kind] = ts.UTC()
	}

	return entries, nil
}

// Save writes the given entries into the ledger hash. Existing fields
// not present in entries are left untouched.
func (s *LedgerStore) Save(ctx context.Context, entries map[string]time.Time) error {
	if !s.client.Enabled() || len(entries) == 0 {
		return nil
	}

	fields := make(map[string]interface{}, len(entries))
	for kind, ts := range entries {
		fields[kind] = ts.UTC().Format(time.RFC3339)
	}

	if err := s.client.Redis().HSet(ctx, s.key, fields).Err(); err != nil {
		return fmt.Errorf("ledger save failed: %w", err)
	}
	return nil
}
