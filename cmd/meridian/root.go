package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Meridian - project budget forecasting and alerting engine",
	Long: `Meridian watches project cost activity and turns it into budget
intelligence: burn rates, completion forecasts, resource allocation,
threshold alerts, and recurring invoices and reports.

It runs two background loops:
  - An alert evaluator that sweeps budgeted projects and raises
    warning, critical, and over-budget alerts with deduplication
  - A scheduler that executes recurring invoice and report schedules
    exactly once per period and delivers the artifacts`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
