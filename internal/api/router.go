package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/wonny/pesowatch/internal/api/handlers"
	"github.com/wonny/pesowatch/pkg/logger"
	"github.com/wonny/pesowatch/pkg/metrics"
)

// RouterDeps carries everything the route table needs.
type RouterDeps struct {
	Rates          *handlers.RatesHandler
	Risk           *handlers.RiskHandler
	Alerts         *handlers.AlertsHandler
	Jobs           *handlers.JobsHandler
	Feed           http.HandlerFunc
	Metrics        *metrics.Recorder
	MetricsEnabled bool
	Logger         *logger.Logger
}

// NewRouter creates and configures the HTTP router.
// SSOT: the route table is defined in this function only.
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Prometheus scrape endpoint (METRICS_ENABLED); recording itself
	// always runs, only the scrape surface is gated.
	if deps.MetricsEnabled {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	// Live snapshot feed
	r.HandleFunc("/ws", deps.Feed).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Rate series
	api.HandleFunc("/fx/rates", deps.Rates.GetRates).Methods("GET")
	api.HandleFunc("/fx/rates/latest", deps.Rates.GetLatest).Methods("GET")
	api.HandleFunc("/fx/export.csv", deps.Rates.ExportCSV).Methods("GET")
	api.HandleFunc("/fx/ingest", deps.Rates.Ingest).Methods("POST")

	// Risk readouts
	api.HandleFunc("/fx/risk", deps.Risk.GetRisk).Methods("GET")
	api.HandleFunc("/fx/bands", deps.Risk.GetBands).Methods("GET")

	// Alerts
	api.HandleFunc("/fx/alerts", deps.Alerts.GetAlerts).Methods("GET")

	// Scheduler operations
	api.HandleFunc("/jobs", deps.Jobs.GetJobs).Methods("GET")
	api.HandleFunc("/jobs/{name}/run", deps.Jobs.RunJob).Methods("POST")

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(deps.Logger))
	r.Use(recoveryMiddleware(deps.Logger))
	r.Use(metricsMiddleware(deps.Metrics))

	return r
}

// requestIDMiddleware tags every request with an ID for log
// correlation, honoring one the client already sent.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)

		next.ServeHTTP(w, r)
	})
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "pesowatch-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": r.Header.Get("X-Request-ID"),
				"duration":   time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// metricsMiddleware records request counts and latency per route
// template.
func metricsMiddleware(rec *metrics.Recorder) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}

			rec.RecordHTTPRequest(route, r.Method,
				strconv.Itoa(sw.status), time.Since(start).Seconds())
		})
	}
}

// statusWriter captures the response code. It forwards Hijack so the
// websocket upgrade keeps working behind the middleware chain.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
