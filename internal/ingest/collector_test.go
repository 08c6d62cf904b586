package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wonny/pesowatch/internal/fxseries"
	"github.com/wonny/pesowatch/pkg/config"
	"github.com/wonny/pesowatch/pkg/logger"
	"github.com/wonny/pesowatch/pkg/metrics"
)

type fakeSource struct {
	raw   []fxseries.RawObservation
	err   error
	calls int
	from  time.Time
	to    time.Time
}

func (f *fakeSource) FetchDailyRates(_ context.Context, from, to time.Time) ([]fxseries.RawObservation, error) {
	f.calls++
	f.from, f.to = from, to
	return f.raw, f.err
}

type fakeStore struct {
	upserted fxseries.Series
	err      error
	count    int64
}

func (f *fakeStore) UpsertRates(_ context.Context, series fxseries.Series) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.upserted = series
	return int64(len(series)), nil
}

func (f *fakeStore) Count(context.Context) (int64, error) {
	return f.count, nil
}

func testCollector(src RateSource, st RateStore) *Collector {
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	return NewCollector(src, st, metrics.New(), log)
}

func TestSyncNormalizesAndClips(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{raw: []fxseries.RawObservation{
		{Date: now.AddDate(0, 0, -1).Format("2006-01-02"), Rate: "58.45"},
		{Date: now.AddDate(0, 0, -2).Format("2006-01-02"), Rate: "58.30"},
		{Date: "2020-01-01", Rate: "50.00"},  // outside the sync window
		{Date: "not a date", Rate: "58.00"},  // dropped by normalize
		{Date: now.Format("2006-01-02"), Rate: "zero"}, // dropped by normalize
	}}
	st := &fakeStore{count: 2}

	res, err := testCollector(src, st).Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if res.Fetched != 5 {
		t.Errorf("Fetched = %d, want 5", res.Fetched)
	}
	if res.Normalized != 2 {
		t.Errorf("Normalized = %d, want 2 (junk and out-of-window rows drop)", res.Normalized)
	}
	if res.Written != 2 {
		t.Errorf("Written = %d, want 2", res.Written)
	}
	if res.Stored != 2 {
		t.Errorf("Stored = %d, want 2", res.Stored)
	}

	if len(st.upserted) != 2 {
		t.Fatalf("store received %d rows, want 2", len(st.upserted))
	}
	if !st.upserted[0].At.Before(st.upserted[1].At) {
		t.Error("upserted series must ascend")
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
}

func TestBackfillRange(t *testing.T) {
	src := &fakeSource{}
	st := &fakeStore{}
	c := testCollector(src, st)

	if _, err := c.Backfill(context.Background(), 0); err == nil {
		t.Error("expected an error for zero days")
	}
	if _, err := c.Backfill(context.Background(), -5); err == nil {
		t.Error("expected an error for negative days")
	}

	if _, err := c.Backfill(context.Background(), 180); err != nil {
		t.Fatalf("Backfill failed: %v", err)
	}
	wantFrom := time.Now().UTC().AddDate(0, 0, -180)
	if src.from.After(wantFrom) {
		t.Errorf("backfill from = %v, want on or before %v", src.from, wantFrom)
	}
	if src.from.Hour() != 0 || src.from.Minute() != 0 {
		t.Error("range start should be floored to midnight")
	}
}

func TestCollectSourceFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("upstream 503")}
	st := &fakeStore{}

	_, err := testCollector(src, st).Sync(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(st.upserted) != 0 {
		t.Error("nothing should be written on fetch failure")
	}
}

func TestCollectStoreFailure(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{raw: []fxseries.RawObservation{
		{Date: now.Format("2006-01-02"), Rate: "58.45"},
	}}
	st := &fakeStore{err: errors.New("connection reset")}

	if _, err := testCollector(src, st).Sync(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}
