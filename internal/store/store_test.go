package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/pesowatch/internal/alert"
	"github.com/wonny/pesowatch/internal/fxseries"
)

// testPool connects to TEST_DATABASE_URL or skips. These tests write
// real rows; point them at a scratch database.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}
	return pool
}

func TestRateRepositoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := NewRateRepository(pool)
	ctx := context.Background()

	day := time.Date(2001, 3, 15, 0, 0, 0, 0, time.UTC)
	series := fxseries.Series{
		{At: day, Rate: 50.10},
		{At: day.AddDate(0, 0, 1), Rate: 50.25},
	}

	written, err := repo.UpsertRates(ctx, series)
	if err != nil {
		t.Fatalf("UpsertRates failed: %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}

	// Re-upserting a corrected value must not duplicate the day.
	series[1].Rate = 50.30
	if _, err := repo.UpsertRates(ctx, series); err != nil {
		t.Fatalf("UpsertRates (update) failed: %v", err)
	}

	got, err := repo.Range(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Range returned %d rows, want 2", len(got))
	}
	if got[1].Rate != 50.30 {
		t.Errorf("updated rate = %v, want 50.30", got[1].Rate)
	}
	if !got[0].At.Before(got[1].At) {
		t.Error("Range must return ascending dates")
	}
}

func TestRateRepositoryRecentAscends(t *testing.T) {
	pool := testPool(t)
	repo := NewRateRepository(pool)
	ctx := context.Background()

	base := time.Date(2001, 6, 1, 0, 0, 0, 0, time.UTC)
	var series fxseries.Series
	for i := 0; i < 5; i++ {
		series = append(series, fxseries.Observation{
			At:   base.AddDate(0, 0, i),
			Rate: 50.0 + float64(i)*0.1,
		})
	}
	if _, err := repo.UpsertRates(ctx, series); err != nil {
		t.Fatalf("UpsertRates failed: %v", err)
	}

	got, err := repo.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d rows, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].At.Before(got[i-1].At) {
			t.Fatal("Recent must return ascending dates")
		}
	}
}

func TestLedgerRepositoryRoundTrip(t *testing.T) {
	pool := testPool(t)
	repo := NewLedgerRepository(pool)
	ctx := context.Background()

	stamp := time.Date(2001, 3, 15, 8, 30, 0, 0, time.UTC)
	in := alert.Ledger{
		alert.KindMoveRare: stamp,
		alert.KindVolJump:  stamp.Add(time.Hour),
	}

	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !out[alert.KindMoveRare].Equal(stamp) {
		t.Errorf("move:rare stamp = %v, want %v", out[alert.KindMoveRare], stamp)
	}

	// Saving a newer stamp overwrites.
	in[alert.KindMoveRare] = stamp.Add(13 * time.Hour)
	if err := repo.Save(ctx, in); err != nil {
		t.Fatalf("Save (update) failed: %v", err)
	}
	out, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !out[alert.KindMoveRare].Equal(stamp.Add(13 * time.Hour)) {
		t.Error("newer stamp did not overwrite")
	}

	// An empty ledger save is a no-op, not an error.
	if err := repo.Save(ctx, alert.Ledger{}); err != nil {
		t.Errorf("empty Save failed: %v", err)
	}
}
