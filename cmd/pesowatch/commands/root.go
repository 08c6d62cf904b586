package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pesowatch",
	Short: "pesowatch - USD/PHP exchange-rate risk monitor",
	Long: `pesowatch watches the USD/PHP reference rate, computes risk
metrics over the stored daily history, and raises plain-language
alerts when the rate moves outside its recent behavior.

Usage:
  go run ./cmd/pesowatch [command]

Examples:
  go run ./cmd/pesowatch start
  go run ./cmd/pesowatch api
  go run ./cmd/pesowatch fetch --days 180
  go run ./cmd/pesowatch report`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "force debug logging")
}
