package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/pesowatch/internal/ingest"
	"github.com/wonny/pesowatch/internal/monitor"
	"github.com/wonny/pesowatch/pkg/logger"
)

// RateIngestionJob pulls the latest daily closes into storage, then
// re-evaluates alerts so fresh data surfaces immediately instead of
// waiting for the next sweep.
// SSOT: the ingestion schedule lives in this job only.
type RateIngestionJob struct {
	collector *ingest.Collector
	monitor   *monitor.Monitor
	schedule  string
	logger    *logger.Logger
}

// NewRateIngestionJob creates the daily rate pull job. The schedule
// comes from INGEST_CRON.
func NewRateIngestionJob(col *ingest.Collector, mon *monitor.Monitor, schedule string, log *logger.Logger) *RateIngestionJob {
	return &RateIngestionJob{
		collector: col,
		monitor:   mon,
		schedule:  schedule,
		logger:    log.WithField("job", "rate_ingestion"),
	}
}

// Name returns the job name.
func (j *RateIngestionJob) Name() string {
	return "rate_ingestion"
}

// Schedule returns the cron expression.
func (j *RateIngestionJob) Schedule() string {
	return j.schedule
}

// Run syncs the recent window from the upstream source and runs one
// evaluation cycle on the updated history.
func (j *RateIngestionJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled rate ingestion")

	result, err := j.collector.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync rates: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"fetched": result.Fetched,
		"written": result.Written,
		"stored":  result.Stored,
	}).Info("Scheduled rate ingestion completed")

	if _, err := j.monitor.Evaluate(ctx); err != nil {
		return fmt.Errorf("evaluate after ingest: %w", err)
	}
	return nil
}
