package handlers

import (
	"net/http"

	"github.com/wonny/pesowatch/internal/monitor"
	"github.com/wonny/pesowatch/pkg/logger"
)

// AlertsHandler exposes monitor evaluations.
type AlertsHandler struct {
	monitor *monitor.Monitor
	logger  *logger.Logger
}

// NewAlertsHandler creates a new alerts handler
func NewAlertsHandler(mon *monitor.Monitor, log *logger.Logger) *AlertsHandler {
	return &AlertsHandler{
		monitor: mon,
		logger:  log,
	}
}

// GetAlerts returns the latest evaluation snapshot, running one on
// demand when none exists yet or ?refresh=true.
// GET /api/fx/alerts
func (h *AlertsHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	refresh := r.URL.Query().Get("refresh") == "true"
	if !refresh {
		if snap, ok := h.monitor.Last(); ok {
			respondJSON(w, http.StatusOK, snap)
			return
		}
	}

	snap, err := h.monitor.Evaluate(ctx)
	if err != nil {
		h.logger.WithError(err).Error("On-demand evaluation failed")
		respondError(w, http.StatusInternalServerError, "Alert evaluation failed")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}
