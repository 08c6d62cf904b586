package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pesowatch/internal/alert"
)

// LedgerRepository owns the fx_alert_ledger table, the durable home of
// the alert cooldown state. The engine itself never touches storage:
// callers load the ledger, evaluate, and save the returned copy.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Load returns the full ledger. Kinds that never fired are absent.
// Timestamps come back normalized to UTC.
func (r *LedgerRepository) Load(ctx context.Context) (alert.Ledger, error) {
	rows, err := r.pool.Query(ctx, `SELECT kind, fired_at FROM fx_alert_ledger`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	ledger := alert.Ledger{}
	for rows.Next() {
		var kind string
		var firedAt time.Time
		if err := rows.Scan(&kind, &firedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		ledger[kind] = firedAt.UTC()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return ledger, nil
}

// Save upserts every entry of the given ledger inside one transaction.
func (r *LedgerRepository) Save(ctx context.Context, ledger alert.Ledger) error {
	if len(ledger) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO fx_alert_ledger (kind, fired_at)
		VALUES ($1, $2)
		ON CONFLICT (kind) DO UPDATE SET
			fired_at = EXCLUDED.fired_at,
			updated_at = NOW()
	`

	for kind, at := range ledger {
		if _, err := tx.Exec(ctx, query, kind, at.UTC()); err != nil {
			return fmt.Errorf("failed to upsert ledger entry %s: %w", kind, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
