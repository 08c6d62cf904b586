package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pesowatch/internal/alert"
	"github.com/wonny/pesowatch/internal/fxseries"
	"github.com/wonny/pesowatch/internal/regime"
	"github.com/wonny/pesowatch/internal/risk"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a one-shot risk report",
	Long: `Reads the stored history and prints the current risk picture:
latest close, volatility metrics, regime calls, forward bands, and
the signals that would fire right now.

By default the report ignores notification cooldowns, so a signal
can show here even when the monitor already pushed it recently;
--ledger honors the persisted cooldowns instead. Nothing is ever
written, so run it as often as you like.

Example:
  go run ./cmd/pesowatch report
  go run ./cmd/pesowatch report --horizon 60
  go run ./cmd/pesowatch report --ledger`,
	RunE: runReport,
}

var (
	// Report flags
	reportPoints  int
	reportHorizon int
	reportLedger  bool
)

func init() {
	rootCmd.AddCommand(reportCmd)

	// Flags
	reportCmd.Flags().IntVar(&reportPoints, "points", 120, "History points to load")
	reportCmd.Flags().IntVar(&reportHorizon, "horizon", risk.BandHorizon, "Band projection horizon in days")
	reportCmd.Flags().BoolVar(&reportLedger, "ledger", false, "Honor the persisted notification cooldowns")
}

func runReport(cmd *cobra.Command, args []string) error {
	app, err := initStack()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()

	series, err := app.rates.Recent(ctx, reportPoints)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	now := time.Now().UTC()
	metrics := risk.Compute(series)

	fmt.Println("=== pesowatch Risk Report ===")
	fmt.Printf("Generated: %s\n\n", now.Format("2006-01-02 15:04 UTC"))

	fmt.Println("💱 USD/PHP")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if latest, ok := series.Latest(); ok {
		fmt.Printf("%-15s %10.4f\n", "Latest close:", latest.Rate)
		fmt.Printf("%-15s %10s\n", "As of:", latest.At.Format("2006-01-02"))
	} else {
		fmt.Println("No rates stored yet. Run: pesowatch fetch --full")
		return nil
	}
	fmt.Printf("%-15s %10d\n", "History:", metrics.PointCount)
	fmt.Println()

	fmt.Println("📊 Risk Metrics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("%-15s %10s\n", "Vol 30d ann:", fmtPct(metrics.Vol30Ann))
	fmt.Printf("%-15s %10s\n", "Vol 90d ann:", fmtPct(metrics.Vol90Ann))
	fmt.Printf("%-15s %10s\n", "Max drawdown:", fmtPct(metrics.MaxDrawdown))
	fmt.Printf("%-15s %10s\n", "Worst day:", fmtPct(metrics.WorstDailyMove))
	fmt.Printf("%-15s %10s\n", "Best day:", fmtPct(metrics.BestDailyMove))
	if z := risk.ZScore(series, risk.LongWindow); z != nil {
		fmt.Printf("%-15s %+10.2f\n", "Z-score 90d:", *z)
	} else {
		fmt.Printf("%-15s %10s\n", "Z-score 90d:", "n/a")
	}
	fmt.Println()

	printRegimes(series, metrics)
	printBands(series)

	// The report never saves the ledger: printing a signal must not
	// start a cooldown. --ledger only changes what is read.
	ledger := alert.Ledger{}
	if reportLedger {
		if ledger, err = app.ledger.Load(ctx); err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
	}
	printSignals(series, ledger, now)

	return nil
}

func printRegimes(series fxseries.Series, metrics risk.Metrics) {
	fmt.Println("🌡️  Regime")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	vol := metrics.Vol90Ann
	if vol == nil {
		vol = metrics.Vol30Ann
	}
	if vol != nil {
		label := regime.ClassifyVol(*vol)
		fmt.Printf("Volatility: %s\n", label)
		fmt.Printf("  %s\n", label.Explanation())
	} else {
		fmt.Println("Volatility: not enough history")
	}

	window := series.Tail(risk.ShortWindow)
	label, explanation := regime.ClassifyBehavior(window.Rates(), risk.ShortWindow)
	if label != nil {
		fmt.Printf("Behavior:   %s\n", *label)
	} else {
		fmt.Println("Behavior:   not enough history")
	}
	fmt.Printf("  %s\n", explanation)
	fmt.Println()
}

func printBands(series fxseries.Series) {
	fmt.Printf("📈 Forward Bands (%dd)\n", reportHorizon)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	spot, drift, volPct, ok := risk.BandInputs(series)
	if !ok {
		fmt.Println("Not enough history to project bands.")
		fmt.Println()
		return
	}

	latest, _ := series.Latest()
	bands := risk.ProjectBands(spot, drift, volPct, reportHorizon, latest.At)
	end := bands[len(bands)-1]

	fmt.Printf("%-15s %10.4f\n", "Expected:", end.Expected)
	fmt.Printf("%-15s %.4f to %.4f\n", "75% range:", end.Lower75, end.Upper75)
	fmt.Printf("%-15s %.4f to %.4f\n", "95% range:", end.Lower95, end.Upper95)
	fmt.Printf("%-15s %10s\n", "Through:", end.Date.Format("2006-01-02"))
	fmt.Println()
}

func printSignals(series fxseries.Series, ledger alert.Ledger, now time.Time) {
	if reportLedger {
		fmt.Println("🚨 Signals (honoring cooldowns)")
	} else {
		fmt.Println("🚨 Signals (cooldowns ignored)")
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	result := alert.NewEngine().Evaluate(series, ledger, now)
	for _, rec := range result.Alerts {
		fmt.Printf("%s %s\n", signalIcon(rec.Severity), rec.Title)
		fmt.Printf("   %s\n", rec.Signal)
		if rec.NextStep != "" {
			fmt.Printf("   Next: %s\n", rec.NextStep)
		}
	}
	if len(result.Alerts) == 0 {
		fmt.Printf("Nothing new; %d signal(s) inside their cooldown window.\n", result.Diagnostics.Suppressed)
	}
	fmt.Println()
}

func fmtPct(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func signalIcon(sev alert.Severity) string {
	switch sev {
	case alert.SeverityCritical:
		return "🚨"
	case alert.SeverityAlert:
		return "⚠️ "
	case alert.SeverityWatch:
		return "👀"
	default:
		return "ℹ️ "
	}
}
