package scheduler

import (
	"context"
	"time"
)

// Job is one scheduled unit of work.
// SSOT: the job contract is defined here only.
type Job interface {
	// Name returns the unique job name.
	Name() string

	// Run executes the job once.
	Run(ctx context.Context) error

	// Schedule returns the cron expression, 6-field with seconds.
	// Example: "0 30 8 * * *" (08:30:00 daily).
	Schedule() string
}

// JobResult is the outcome of one execution, after retries.
type JobResult struct {
	Job        string        `json:"job"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Duration   time.Duration `json:"duration"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
}

// historyCap bounds per-job history growth.
const historyCap = 50

// JobHistory keeps the recent results for one job, oldest first.
type JobHistory struct {
	Results []JobResult
}

// AddResult appends a result, discarding the oldest past the cap.
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if excess := len(h.Results) - historyCap; excess > 0 {
		h.Results = h.Results[excess:]
	}
}

// Latest returns up to n of the most recent results, oldest first.
func (h *JobHistory) Latest(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n == 0 {
		return []JobResult{}
	}
	return h.Results[len(h.Results)-n:]
}

// SuccessRate is the fraction of recorded runs that succeeded.
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}

	succeeded := 0
	for _, result := range h.Results {
		if result.Success {
			succeeded++
		}
	}
	return float64(succeeded) / float64(len(h.Results))
}
