package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/pesowatch/internal/monitor"
	"github.com/wonny/pesowatch/pkg/logger"
)

// AlertSweepJob re-evaluates the alert rules between ingestions, so
// cooldown expiries and fresh backfills surface without waiting for
// the next daily pull.
type AlertSweepJob struct {
	monitor  *monitor.Monitor
	schedule string
	logger   *logger.Logger
}

// NewAlertSweepJob creates the periodic evaluation job. The schedule
// comes from SWEEP_CRON.
func NewAlertSweepJob(mon *monitor.Monitor, schedule string, log *logger.Logger) *AlertSweepJob {
	return &AlertSweepJob{
		monitor:  mon,
		schedule: schedule,
		logger:   log.WithField("job", "alert_sweep"),
	}
}

// Name returns the job name.
func (j *AlertSweepJob) Name() string {
	return "alert_sweep"
}

// Schedule returns the cron expression.
func (j *AlertSweepJob) Schedule() string {
	return j.schedule
}

// Run performs one monitor evaluation cycle.
func (j *AlertSweepJob) Run(ctx context.Context) error {
	snap, err := j.monitor.Evaluate(ctx)
	if err != nil {
		return fmt.Errorf("evaluate alerts: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"status": snap.Diagnostics.Status,
		"alerts": len(snap.Alerts),
	}).Info("Alert sweep completed")
	return nil
}
