package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/pesowatch/internal/ingest"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Pull USD/PHP closes into the database",
	Long: `Runs one ingestion pass against the published rate table and
exits. Without flags it pulls the trailing two weeks, which is the
same window the scheduled job uses; --days widens the pull for
backfilling a fresh database.

Example:
  go run ./cmd/pesowatch fetch
  go run ./cmd/pesowatch fetch --days 180
  go run ./cmd/pesowatch fetch --full`,
	RunE: runFetch,
}

var (
	// Fetch flags
	fetchDays int
	fetchFull bool
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Flags
	fetchCmd.Flags().IntVar(&fetchDays, "days", 0, "Days of history to pull (0 = routine sync)")
	fetchCmd.Flags().BoolVar(&fetchFull, "full", false, "Backfill FX_BACKFILL_DAYS of history")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== pesowatch Fetch ===")

	app, err := initStack()
	if err != nil {
		return err
	}
	defer app.Close()

	days := fetchDays
	if fetchFull && days == 0 {
		days = app.cfg.Source.BackfillDays
	}

	ctx := context.Background()

	var res ingest.Result
	if days > 0 {
		fmt.Printf("\nBackfilling %d days of USD/PHP closes...\n", days)
		res, err = app.collector.Backfill(ctx, days)
	} else {
		fmt.Println("\nSyncing recent USD/PHP closes...")
		res, err = app.collector.Sync(ctx)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Printf("\n✅ Ingestion complete\n")
	fmt.Printf("   Range:      %s → %s\n", res.From.Format("2006-01-02"), res.To.Format("2006-01-02"))
	fmt.Printf("   Fetched:    %d rows\n", res.Fetched)
	fmt.Printf("   Normalized: %d observations\n", res.Normalized)
	fmt.Printf("   Written:    %d\n", res.Written)
	fmt.Printf("   Stored:     %d total\n", res.Stored)

	return nil
}
