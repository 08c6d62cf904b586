package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/pesowatch/internal/api"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the full monitor (API + scheduler)",
	Long: `Runs everything in one process: the REST API, the websocket
feed, and the cron scheduler.

This is the normal production mode. The scheduler pulls the
published USD/PHP close once a day (INGEST_CRON) and re-evaluates
alerts every hour (SWEEP_CRON); the API serves the stored history
and the latest risk snapshot.

Example:
  go run ./cmd/pesowatch start
  go run ./cmd/pesowatch start --port 8099`,
	RunE: runStart,
}

var startPort string

func init() {
	rootCmd.AddCommand(startCmd)

	// Flags
	startCmd.Flags().StringVar(&startPort, "port", "", "API server port (overrides PORT)")
}

func runStart(cmd *cobra.Command, args []string) error {
	fmt.Println("=== pesowatch ===")

	app, err := initStack()
	if err != nil {
		return err
	}
	defer app.Close()

	if startPort != "" {
		app.cfg.Port = startPort
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go app.hub.Run(hubCtx)

	app.scheduler.Start()

	server := api.New(app.cfg, app.log, newRouter(app))

	go func() {
		if err := server.Start(); err != nil {
			app.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", app.cfg.Port)
	fmt.Println("\nScheduled jobs:")
	for name, stat := range app.scheduler.Stats() {
		fmt.Printf("  - %s (%s)\n", name, stat.Schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	waitForInterrupt()

	fmt.Println("\nShutting down...")
	app.scheduler.Stop()
	return shutdownServer(server, stopHub)
}
