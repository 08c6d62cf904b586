package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/pesowatch/internal/regime"
	"github.com/wonny/pesowatch/internal/risk"
	"github.com/wonny/pesowatch/internal/store"
	"github.com/wonny/pesowatch/pkg/logger"
)

const riskWindowPoints = 120

// RiskHandler computes risk metrics and fan-chart bands on demand
// from whatever history is stored.
type RiskHandler struct {
	rates  *store.RateRepository
	logger *logger.Logger
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(rates *store.RateRepository, log *logger.Logger) *RiskHandler {
	return &RiskHandler{
		rates:  rates,
		logger: log,
	}
}

// RegimeView pairs a label with its reader-facing explanation.
type RegimeView struct {
	Label       string `json:"label"`
	Explanation string `json:"explanation"`
}

// RiskResponse is the on-demand risk readout. All percent fields
// follow the metrics convention.
type RiskResponse struct {
	Pair       string       `json:"pair"`
	AsOf       *time.Time   `json:"as_of,omitempty"`
	PointCount int          `json:"point_count"`
	Metrics    risk.Metrics `json:"metrics"`
	ZScore90   *float64     `json:"z_score_90"`
	VolRegime  *RegimeView  `json:"vol_regime,omitempty"`
	Behavior   *RegimeView  `json:"behavior,omitempty"`
}

// GetRisk returns metrics over the trailing window.
// GET /api/fx/risk?points=N
func (h *RiskHandler) GetRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	points, err := parsePositiveInt(r, "points", riskWindowPoints)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.rates.Recent(ctx, points)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load series for risk readout")
		respondError(w, http.StatusInternalServerError, "Failed to compute risk metrics")
		return
	}

	resp := RiskResponse{
		Pair:       "USD/PHP",
		PointCount: len(series),
		Metrics:    risk.Compute(series),
		ZScore90:   risk.ZScore(series, risk.LongWindow),
	}
	if latest, ok := series.Latest(); ok {
		resp.AsOf = &latest.At
	}

	vol := resp.Metrics.Vol90Ann
	if vol == nil {
		vol = resp.Metrics.Vol30Ann
	}
	if vol != nil {
		label := regime.ClassifyVol(*vol)
		resp.VolRegime = &RegimeView{Label: string(label), Explanation: label.Explanation()}
	}

	window := series.Tail(risk.ShortWindow)
	if len(window) > 0 {
		label, explanation := regime.ClassifyBehavior(window.Rates(), risk.ShortWindow)
		view := &RegimeView{Explanation: explanation}
		if label != nil {
			view.Label = string(*label)
		}
		resp.Behavior = view
	}

	respondJSON(w, http.StatusOK, resp)
}

// BandsResponse is the projected no-surprise corridor.
type BandsResponse struct {
	Pair        string      `json:"pair"`
	AsOf        time.Time   `json:"as_of"`
	Spot        float64     `json:"spot"`
	HorizonDays int         `json:"horizon_days"`
	Bands       []risk.Band `json:"bands"`
}

// GetBands returns forward rate bands from the latest close.
// GET /api/fx/bands?horizon=N
func (h *RiskHandler) GetBands(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	horizon, err := parsePositiveInt(r, "horizon", risk.BandHorizon)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.rates.Recent(ctx, riskWindowPoints)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load series for band projection")
		respondError(w, http.StatusInternalServerError, "Failed to project bands")
		return
	}

	spot, drift, volPct, ok := risk.BandInputs(series)
	if !ok {
		respondError(w, http.StatusNotFound, "Not enough history to project bands")
		return
	}

	latest, _ := series.Latest()
	bands := risk.ProjectBands(spot, drift, volPct, horizon, latest.At)

	respondJSON(w, http.StatusOK, BandsResponse{
		Pair:        "USD/PHP",
		AsOf:        latest.At,
		Spot:        spot,
		HorizonDays: horizon,
		Bands:       bands,
	})
}

// parsePositiveInt reads an optional positive integer query param.
func parsePositiveInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("invalid '%s' parameter (expected positive integer)", name)
	}
	return parsed, nil
}
