package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The tool owns its two tables outright, so the schema is applied at
// startup instead of through a migration pipeline. fx_rates keeps raw
// observations only: derived metrics are never written back.
const schema = `
CREATE TABLE IF NOT EXISTS fx_rates (
	rate_date  date PRIMARY KEY,
	rate       double precision NOT NULL CHECK (rate > 0),
	created_at timestamptz NOT NULL DEFAULT NOW(),
	updated_at timestamptz NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS fx_alert_ledger (
	kind       text PRIMARY KEY,
	fired_at   timestamptz NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT NOW()
);
`

// EnsureSchema creates the tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
