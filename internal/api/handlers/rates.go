package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/pesowatch/internal/fxseries"
	"github.com/wonny/pesowatch/internal/ingest"
	"github.com/wonny/pesowatch/internal/store"
	"github.com/wonny/pesowatch/pkg/logger"
)

const defaultRangeDays = 90

// RatesHandler serves the raw rate series and the ingestion trigger.
// SSOT: rate API endpoints live in this struct only.
type RatesHandler struct {
	rates     *store.RateRepository
	collector *ingest.Collector
	logger    *logger.Logger
}

// NewRatesHandler creates a new rates handler
func NewRatesHandler(rates *store.RateRepository, col *ingest.Collector, log *logger.Logger) *RatesHandler {
	return &RatesHandler{
		rates:     rates,
		collector: col,
		logger:    log,
	}
}

// RatesResponse wraps a series slice for the JSON endpoints.
type RatesResponse struct {
	Pair   string          `json:"pair"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Count  int             `json:"count"`
	Series fxseries.Series `json:"series"`
}

// GetRates returns stored daily closes.
// GET /api/fx/rates?from=YYYY-MM-DD&to=YYYY-MM-DD
// GET /api/fx/rates?days=N
func (h *RatesHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, err := parseRangeParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.rates.Range(ctx, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load rate range")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve rates")
		return
	}

	respondJSON(w, http.StatusOK, RatesResponse{
		Pair:   "USD/PHP",
		From:   from.Format("2006-01-02"),
		To:     to.Format("2006-01-02"),
		Count:  len(series),
		Series: series,
	})
}

// LatestResponse is the most recent close.
type LatestResponse struct {
	Pair string    `json:"pair"`
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// GetLatest returns the most recent stored close.
// GET /api/fx/rates/latest
func (h *RatesHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	obs, err := h.rates.Latest(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoRates) {
			respondError(w, http.StatusNotFound, "No rates stored yet")
			return
		}
		h.logger.WithError(err).Error("Failed to load latest rate")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve latest rate")
		return
	}

	respondJSON(w, http.StatusOK, LatestResponse{
		Pair: "USD/PHP",
		Date: obs.At,
		Rate: obs.Rate,
	})
}

// ExportCSV streams the stored series as a two-column CSV.
// GET /api/fx/export.csv?days=N
func (h *RatesHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	from, to, err := parseRangeParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := h.rates.Range(ctx, from, to)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load rate range for export")
		respondError(w, http.StatusInternalServerError, "Failed to export rates")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="usdphp_rates.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"date", "rate"})
	for _, obs := range series {
		cw.Write([]string{
			obs.At.Format("2006-01-02"),
			strconv.FormatFloat(obs.Rate, 'f', -1, 64),
		})
	}
	cw.Flush()
}

// IngestRequest triggers a pull from the upstream source.
type IngestRequest struct {
	Days int `json:"days"` // 0 means the default sync window
}

// Ingest runs a collection cycle synchronously.
// POST /api/fx/ingest
func (h *RatesHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req IngestRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	var result ingest.Result
	var err error
	if req.Days > 0 {
		result, err = h.collector.Backfill(ctx, req.Days)
	} else {
		result, err = h.collector.Sync(ctx)
	}
	if err != nil {
		h.logger.WithError(err).Error("Manual ingestion failed")
		respondError(w, http.StatusBadGateway, "Ingestion failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// parseRangeParams resolves from/to or days into a concrete window.
func parseRangeParams(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	now := time.Now().UTC()

	if fromStr := q.Get("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'from' date format (expected YYYY-MM-DD)")
		}

		to := now
		if toStr := q.Get("to"); toStr != "" {
			if to, err = time.Parse("2006-01-02", toStr); err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid 'to' date format (expected YYYY-MM-DD)")
			}
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("'to' precedes 'from'")
		}
		return from, to, nil
	}

	days := defaultRangeDays
	if daysStr := q.Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'days' parameter (expected positive integer)")
		}
		days = parsed
	}

	return now.AddDate(0, 0, -days), now, nil
}
