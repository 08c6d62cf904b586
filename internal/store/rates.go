package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pesowatch/internal/fxseries"
)

// RateRepository owns the fx_rates table.
// SSOT: daily close reads and writes happen here and nowhere else.
// Only raw observations are stored; every derived metric is recomputed
// from them per request.
type RateRepository struct {
	pool *pgxpool.Pool
}

// NewRateRepository creates a new rate repository
func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

// ErrNoRates signals an empty table where a latest row was expected.
var ErrNoRates = errors.New("no rates stored")

// UpsertRates writes a normalized series, one row per day, updating
// rows whose published value changed upstream. Returns the number of
// rows written.
func (r *RateRepository) UpsertRates(ctx context.Context, series fxseries.Series) (int64, error) {
	if len(series) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO fx_rates (rate_date, rate)
		VALUES ($1, $2)
		ON CONFLICT (rate_date) DO UPDATE SET
			rate = EXCLUDED.rate,
			updated_at = NOW()
	`

	var written int64
	for _, obs := range series {
		if _, err := tx.Exec(ctx, query, obs.At, obs.Rate); err != nil {
			return 0, fmt.Errorf("failed to upsert rate for %s: %w",
				obs.At.Format("2006-01-02"), err)
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return written, nil
}

// Range returns observations between from and to inclusive, ascending.
func (r *RateRepository) Range(ctx context.Context, from, to time.Time) (fxseries.Series, error) {
	query := `
		SELECT rate_date, rate
		FROM fx_rates
		WHERE rate_date BETWEEN $1 AND $2
		ORDER BY rate_date
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates: %w", err)
	}
	defer rows.Close()

	return scanSeries(rows)
}

// Recent returns the trailing limit observations, ascending.
func (r *RateRepository) Recent(ctx context.Context, limit int) (fxseries.Series, error) {
	query := `
		SELECT rate_date, rate FROM (
			SELECT rate_date, rate
			FROM fx_rates
			ORDER BY rate_date DESC
			LIMIT $1
		) trailing
		ORDER BY rate_date
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent rates: %w", err)
	}
	defer rows.Close()

	return scanSeries(rows)
}

// Latest returns the newest observation, or ErrNoRates on an empty
// table.
func (r *RateRepository) Latest(ctx context.Context) (fxseries.Observation, error) {
	query := `
		SELECT rate_date, rate
		FROM fx_rates
		ORDER BY rate_date DESC
		LIMIT 1
	`

	var obs fxseries.Observation
	err := r.pool.QueryRow(ctx, query).Scan(&obs.At, &obs.Rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return obs, ErrNoRates
	}
	if err != nil {
		return obs, fmt.Errorf("failed to get latest rate: %w", err)
	}
	return obs, nil
}

// Count returns the number of stored daily closes.
func (r *RateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fx_rates`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rates: %w", err)
	}
	return count, nil
}

func scanSeries(rows pgx.Rows) (fxseries.Series, error) {
	var series fxseries.Series
	for rows.Next() {
		var obs fxseries.Observation
		if err := rows.Scan(&obs.At, &obs.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		series = append(series, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return series, nil
}
