package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage the cron scheduler",
	Long: `Runs or inspects the scheduler.

Registered jobs:
  rate_ingestion - daily pull of the published USD/PHP close (INGEST_CRON)
  alert_sweep    - periodic alert re-evaluation (SWEEP_CRON)

Subcommands:
  start   - run the scheduler daemon (no HTTP server)
  run     - trigger one job immediately
  status  - print per-job statistics

Example:
  go run ./cmd/pesowatch scheduler start
  go run ./cmd/pesowatch scheduler run rate_ingestion
  go run ./cmd/pesowatch scheduler status`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Run the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Trigger one job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Print per-job statistics",
		RunE:  showSchedulerStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== pesowatch Scheduler ===")

	app, err := initStack()
	if err != nil {
		return err
	}
	defer app.Close()

	app.scheduler.Start()

	fmt.Println("\n✅ Scheduler started")
	fmt.Println("\nRegistered jobs:")
	for name, stat := range app.scheduler.Stats() {
		fmt.Printf("  - %s (%s)\n", name, stat.Schedule)
	}
	fmt.Println("\nCtrl+C stops the scheduler")

	waitForInterrupt()

	fmt.Println("\nStopping scheduler...")
	app.scheduler.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]
	fmt.Printf("Running %s once...\n", jobName)

	app, err := initStack()
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.scheduler.RunJobAndWait(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if result.Success {
		fmt.Printf("✅ %s completed in %s\n", jobName, result.Duration)
	} else {
		fmt.Printf("❌ %s failed: %s\n", jobName, result.Error)
	}
	return nil
}

func showSchedulerStatus(cmd *cobra.Command, args []string) error {
	app, err := initStack()
	if err != nil {
		return err
	}
	defer app.Close()

	stats := app.scheduler.Stats()

	fmt.Println("Job statistics:")
	fmt.Println()
	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Runs: %d (%.1f%% ok)\n", stat.Runs, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.Failed)
		if stat.LastRun != nil {
			fmt.Printf("   Last run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastError != "" {
			fmt.Printf("   Last error: %s\n", stat.LastError)
		}
		fmt.Println()
	}

	return nil
}
