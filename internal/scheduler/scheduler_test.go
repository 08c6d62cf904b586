package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pesowatch/pkg/config"
	"github.com/wonny/pesowatch/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	runs     int
	failures int
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(context.Context) error {
	j.runs++
	if j.runs <= j.failures {
		return errors.New("transient failure")
	}
	return nil
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	log := logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
	s := New(log)
	s.retryDelay = time.Millisecond
	return s
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := newTestScheduler(t)
	job := &stubJob{name: "rate_ingestion", schedule: "0 30 8 * * *"}

	require.NoError(t, s.AddJob(job))
	err := s.AddJob(&stubJob{name: "rate_ingestion", schedule: "0 0 * * * *"})
	assert.Error(t, err)
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := newTestScheduler(t)
	err := s.AddJob(&stubJob{name: "broken", schedule: "not a cron spec"})
	assert.Error(t, err)
}

func TestRunJobUnknownName(t *testing.T) {
	s := newTestScheduler(t)
	assert.Error(t, s.RunJob("missing"))

	_, err := s.RunJobAndWait("missing")
	assert.Error(t, err)
}

func TestRunJobAndWaitReturnsResult(t *testing.T) {
	s := newTestScheduler(t)
	job := &stubJob{name: "rate_ingestion", schedule: "0 30 8 * * *", failures: 1}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobAndWait("rate_ingestion")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "rate_ingestion", result.Job)
	assert.Equal(t, 2, job.runs)
}

func TestRunJobRecordsSuccessAfterRetries(t *testing.T) {
	s := newTestScheduler(t)
	job := &stubJob{name: "alert_sweep", schedule: "0 0 * * * *", failures: 2}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	history, err := s.History("alert_sweep")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)

	result := history.Results[0]
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, 3, job.runs)
}

func TestRunJobRecordsExhaustedFailure(t *testing.T) {
	s := newTestScheduler(t)
	job := &stubJob{name: "alert_sweep", schedule: "0 0 * * * *", failures: 10}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	history, err := s.History("alert_sweep")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)

	result := history.Results[0]
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "transient failure")
	assert.Equal(t, s.maxRetries+1, job.runs)
}

func TestStatsSummarizesHistory(t *testing.T) {
	s := newTestScheduler(t)
	job := &stubJob{name: "rate_ingestion", schedule: "0 30 8 * * *", failures: 1}
	require.NoError(t, s.AddJob(job))

	s.runJob(job) // fails once then succeeds
	s.runJob(job) // succeeds immediately

	stats := s.Stats()
	entry, ok := stats["rate_ingestion"]
	require.True(t, ok)

	assert.Equal(t, "0 30 8 * * *", entry.Schedule)
	assert.Equal(t, 2, entry.Runs)
	assert.Equal(t, 2, entry.Succeeded)
	assert.Equal(t, 0, entry.Failed)
	assert.InDelta(t, 1.0, entry.SuccessRate, 1e-12)
	require.NotNil(t, entry.LastRun)
}

func TestJobHistoryCapAndLatest(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyCap+10; i++ {
		h.AddResult(JobResult{Job: "x", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, historyCap)
	assert.Len(t, h.Latest(5), 5)
	assert.Len(t, h.Latest(historyCap+50), historyCap)
	assert.InDelta(t, 0.5, h.SuccessRate(), 0.02)
}
