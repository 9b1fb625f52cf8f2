package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackwell-hq/meridian/pkg/cli"
	"trackwell-hq/meridian/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and environment overrides,
and validate the result without starting anything.

Examples:
  meridian validate
  meridian validate --config /etc/meridian/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}

	fmt.Printf("✓ %s is valid\n", cfgFile)
	if verbose {
		fmt.Printf("  activity backend: %s\n", cfg.Activity.Backend)
		fmt.Printf("  storage backend: %s\n", cfg.Storage.Backend)
		fmt.Printf("  alerts enabled: %t\n", cfg.Alerts.Enabled)
		fmt.Printf("  scheduler enabled: %t\n", cfg.Scheduler.Enabled)
		fmt.Printf("  metrics enabled: %t\n", cfg.Telemetry.Metrics.Enabled)
	}
	return nil
}
