package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/pesowatch/internal/fxseries"
	"github.com/wonny/pesowatch/pkg/logger"
	"github.com/wonny/pesowatch/pkg/metrics"
)

// syncLookbackDays is how far a routine sync reaches back. Wide enough
// to heal holiday gaps, missed runs, and upstream revisions.
const syncLookbackDays = 14

// RateSource yields loose daily rows for a date range.
type RateSource interface {
	FetchDailyRates(ctx context.Context, from, to time.Time) ([]fxseries.RawObservation, error)
}

// RateStore persists normalized observations.
type RateStore interface {
	UpsertRates(ctx context.Context, series fxseries.Series) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// Collector orchestrates rate ingestion: fetch loose rows, normalize,
// clip to the requested range, upsert.
// SSOT: ingestion orchestration lives in this package only.
type Collector struct {
	source  RateSource
	rates   RateStore
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewCollector creates a new Collector instance
func NewCollector(source RateSource, rates RateStore, rec *metrics.Recorder, log *logger.Logger) *Collector {
	return &Collector{
		source:  source,
		rates:   rates,
		metrics: rec,
		logger:  log.WithField("module", "ingest"),
	}
}

// Result summarizes one ingestion run.
type Result struct {
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	Fetched    int       `json:"fetched"`
	Normalized int       `json:"normalized"`
	Written    int64     `json:"written"`
	Stored     int64     `json:"stored"`
}

// Sync pulls the trailing syncLookbackDays window and upserts it.
func (c *Collector) Sync(ctx context.Context) (Result, error) {
	to := time.Now().UTC()
	return c.collect(ctx, to.AddDate(0, 0, -syncLookbackDays), to)
}

// Backfill pulls days of history in one run, bootstrapping a fresh
// database far past the alert engine's readiness floor.
func (c *Collector) Backfill(ctx context.Context, days int) (Result, error) {
	if days <= 0 {
		return Result{}, fmt.Errorf("invalid backfill days: %d", days)
	}
	to := time.Now().UTC()
	return c.collect(ctx, to.AddDate(0, 0, -days), to)
}

func (c *Collector) collect(ctx context.Context, from, to time.Time) (Result, error) {
	// Observations carry midnight timestamps; floor the range start so
	// the boundary day survives the clip.
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	res := Result{From: from, To: to}

	raw, err := c.source.FetchDailyRates(ctx, from, to)
	if err != nil {
		c.metrics.RecordIngest("error", 0)
		return res, fmt.Errorf("fetch daily rates: %w", err)
	}
	res.Fetched = len(raw)

	series := clip(fxseries.Normalize(raw), from, to)
	res.Normalized = len(series)

	written, err := c.rates.UpsertRates(ctx, series)
	if err != nil {
		c.metrics.RecordIngest("error", 0)
		return res, fmt.Errorf("upsert rates: %w", err)
	}
	res.Written = written

	if stored, err := c.rates.Count(ctx); err == nil {
		res.Stored = stored
	}

	c.metrics.RecordIngest("ok", int(written))
	if latest, ok := series.Latest(); ok {
		c.metrics.SetLastRate(latest.Rate)
	}

	c.logger.WithFields(map[string]interface{}{
		"from":       from.Format("2006-01-02"),
		"to":         to.Format("2006-01-02"),
		"fetched":    res.Fetched,
		"normalized": res.Normalized,
		"written":    res.Written,
	}).Info("Ingestion completed")

	return res, nil
}

// clip drops observations outside [from, to]. Upstream pages are per
// calendar year, so the fetch usually over-delivers.
func clip(series fxseries.Series, from, to time.Time) fxseries.Series {
	out := series[:0:0]
	for _, obs := range series {
		if obs.At.Before(from) || obs.At.After(to) {
			continue
		}
		out = append(out, obs)
	}
	return out
}
