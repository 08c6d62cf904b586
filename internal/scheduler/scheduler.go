package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/pesowatch/pkg/logger"
)

// Defaults for job execution. A rate pull that fails three times in a
// row is down for the day; the next schedule slot retries anyway.
const (
	defaultMaxRetries = 3
	defaultRetryDelay = 30 * time.Second
	defaultJobTimeout = 10 * time.Minute
)

// Scheduler runs registered jobs on their cron schedules, with
// bounded retries and per-job history.
// SSOT: all periodic work goes through this scheduler.
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	history map[string]*JobHistory
	mu      sync.RWMutex

	maxRetries int
	retryDelay time.Duration
	jobTimeout time.Duration
}

// New creates a scheduler. Specs are 6-field cron, seconds first.
func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithSeconds()),
		logger:     log.WithField("module", "scheduler"),
		jobs:       make(map[string]Job),
		history:    make(map[string]*JobHistory),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		jobTimeout: defaultJobTimeout,
	}
}

// AddJob registers a job under its schedule. Names are unique.
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, taken := s.jobs[name]; taken {
		return fmt.Errorf("job %q is already registered", name)
	}

	if _, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	}); err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}

	s.jobs[name] = job
	s.history[name] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job registered")

	return nil
}

// Start begins dispatching on schedules.
func (s *Scheduler) Start() {
	s.logger.Info("Scheduler started")
	s.cron.Start()
}

// Stop halts dispatch and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("Scheduler stopping")
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob triggers a job immediately, off-schedule. The run is
// asynchronous; the error only reports an unknown name.
func (s *Scheduler) RunJob(name string) error {
	job, err := s.lookup(name)
	if err != nil {
		return err
	}

	go s.runJob(job)
	return nil
}

// RunJobAndWait runs a job synchronously and returns its recorded
// result, retries included.
func (s *Scheduler) RunJobAndWait(name string) (JobResult, error) {
	job, err := s.lookup(name)
	if err != nil {
		return JobResult{}, err
	}

	s.runJob(job)

	s.mu.RLock()
	defer s.mu.RUnlock()
	results := s.history[name].Results
	return results[len(results)-1], nil
}

func (s *Scheduler) lookup(name string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, known := s.jobs[name]
	if !known {
		return nil, fmt.Errorf("unknown job %q", name)
	}
	return job, nil
}

// runJob executes one job with retries and records the outcome.
func (s *Scheduler) runJob(job Job) {
	s.logger.WithField("job", job.Name()).Info("Job run starting")

	result := s.execute(job)

	s.mu.Lock()
	if history, tracked := s.history[result.Job]; tracked {
		history.AddResult(result)
	}
	s.mu.Unlock()

	fields := map[string]interface{}{
		"job":      result.Job,
		"duration": result.Duration,
	}
	if result.Success {
		s.logger.WithFields(fields).Info("Job run succeeded")
		return
	}
	fields["error"] = result.Error
	s.logger.WithFields(fields).Error("Job run failed, retries exhausted")
}

// execute owns the retry loop and produces the result record.
func (s *Scheduler) execute(job Job) JobResult {
	result := JobResult{
		Job:       job.Name(),
		StartedAt: time.Now(),
	}

	for attempt := 0; ; attempt++ {
		err := s.runAttempt(job)
		if err == nil {
			result.Success = true
			result.Error = ""
			break
		}

		result.Error = err.Error()
		s.logger.WithFields(map[string]interface{}{
			"job":     result.Job,
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Warn("Job attempt failed")

		if attempt == s.maxRetries {
			break
		}
		time.Sleep(s.retryDelay)
	}

	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)
	return result
}

// runAttempt bounds one attempt so a hung scrape cannot wedge the
// cron goroutine forever.
func (s *Scheduler) runAttempt(job Job) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()
	return job.Run(ctx)
}

// History returns the recorded results for one job.
func (s *Scheduler) History(name string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, known := s.history[name]
	if !known {
		return nil, fmt.Errorf("unknown job %q", name)
	}
	return history, nil
}

// JobStats summarizes one job for the operations endpoint.
type JobStats struct {
	Name        string     `json:"name"`
	Schedule    string     `json:"schedule"`
	Runs        int        `json:"runs"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	SuccessRate float64    `json:"success_rate"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}

// Stats summarizes every registered job.
func (s *Scheduler) Stats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.jobs))
	for name, history := range s.history {
		entry := JobStats{
			Name:        name,
			Schedule:    s.jobs[name].Schedule(),
			Runs:        len(history.Results),
			SuccessRate: history.SuccessRate(),
		}
		for _, result := range history.Results {
			if result.Success {
				entry.Succeeded++
			} else {
				entry.Failed++
			}
		}

		if latest := history.Latest(1); len(latest) > 0 {
			entry.LastRun = &latest[0].StartedAt
			entry.LastError = latest[0].Error
		}

		stats[name] = entry
	}
	return stats
}
