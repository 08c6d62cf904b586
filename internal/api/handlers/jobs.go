package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/pesowatch/internal/scheduler"
	"github.com/wonny/pesowatch/pkg/logger"
)

// JobsHandler exposes scheduler state and manual triggers.
type JobsHandler struct {
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(sched *scheduler.Scheduler, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		scheduler: sched,
		logger:    log,
	}
}

// GetJobs returns per-job statistics.
// GET /api/jobs
func (h *JobsHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.Stats())
}

// RunJob triggers one job off-schedule. The run is asynchronous.
// POST /api/jobs/{name}/run
func (h *JobsHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := h.scheduler.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Manual job trigger accepted")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "accepted",
		"job":    name,
	})
}
