package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pesowatch/internal/api"
	"github.com/wonny/pesowatch/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API and websocket feed without the cron
scheduler. Jobs can still be triggered manually through the API.

Endpoints:
  GET  /health                    - Health check
  GET  /metrics                   - Prometheus scrape endpoint
  GET  /ws                        - Live snapshot feed
  GET  /api/fx/rates              - Stored daily closes
  GET  /api/fx/rates/latest       - Most recent close
  GET  /api/fx/export.csv         - CSV export
  POST /api/fx/ingest             - Manual ingestion
  GET  /api/fx/risk               - Risk metrics readout
  GET  /api/fx/bands              - Forward rate bands
  GET  /api/fx/alerts             - Alert evaluation snapshot
  GET  /api/jobs                  - Scheduler statistics
  POST /api/jobs/{name}/run       - Manual job trigger

Example:
  go run ./cmd/pesowatch api
  go run ./cmd/pesowatch api --port 8099`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== pesowatch API Server ===")

	app, err := initStack()
	if err != nil {
		return err
	}
	defer app.Close()

	if apiPort != "" {
		app.cfg.Port = apiPort
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go app.hub.Run(hubCtx)

	server := api.New(app.cfg, app.log, newRouter(app))

	go func() {
		if err := server.Start(); err != nil {
			app.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", app.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	waitForInterrupt()

	return shutdownServer(server, stopHub)
}

// newRouter wires the handlers against the stack.
func newRouter(app *stack) http.Handler {
	return api.NewRouter(api.RouterDeps{
		Rates:          handlers.NewRatesHandler(app.rates, app.collector, app.log),
		Risk:           handlers.NewRiskHandler(app.rates, app.log),
		Alerts:         handlers.NewAlertsHandler(app.monitor, app.log),
		Jobs:           handlers.NewJobsHandler(app.scheduler, app.log),
		Feed:           app.hub.Handler(),
		Metrics:        app.recorder,
		MetricsEnabled: app.cfg.MetricsEnabled,
		Logger:         app.log,
	})
}

// waitForInterrupt blocks until SIGINT or SIGTERM.
func waitForInterrupt() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
}

// shutdownServer drains HTTP connections, then stops the hub.
func shutdownServer(server *api.Server, stopHub context.CancelFunc) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	stopHub()
	return nil
}
