package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackwell-hq/meridian/pkg/budget"
	"trackwell-hq/meridian/pkg/cli"
	"trackwell-hq/meridian/pkg/config"
)

var forecastFlags struct {
	project string
	window  int
	output  string
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project when a budget will be exhausted",
	Long: `Project the budget exhaustion date for a project from its recent
burn rate, with a confidence score based on spend variability.

Examples:
  # Forecast using the configured window
  meridian forecast --project proj-1

  # Forecast from the last 14 days only
  meridian forecast --project proj-1 --window 14`,
	RunE: runForecast,
}

var trendsFlags struct {
	project     string
	window      int
	granularity string
	output      string
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show cost trends for a project",
	Long: `Bucket a project's recent costs by day, week, or month and classify
the direction of the spend trend.`,
	RunE: runTrends,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(trendsCmd)

	forecastCmd.Flags().StringVarP(&forecastFlags.project, "project", "p", "", "project ID (required)")
	forecastCmd.Flags().IntVarP(&forecastFlags.window, "window", "w", 0, "trailing window in days (default from config)")
	forecastCmd.Flags().StringVarP(&forecastFlags.output, "output", "o", "text", "output format (text, json)")
	forecastCmd.MarkFlagRequired("project")

	trendsCmd.Flags().StringVarP(&trendsFlags.project, "project", "p", "", "project ID (required)")
	trendsCmd.Flags().IntVarP(&trendsFlags.window, "window", "w", 0, "trailing window in days (default from config)")
	trendsCmd.Flags().StringVarP(&trendsFlags.granularity, "granularity", "g", "day", "bucketing period (day, week, month)")
	trendsCmd.Flags().StringVarP(&trendsFlags.output, "output", "o", "text", "output format (text, json)")
	trendsCmd.MarkFlagRequired("project")
}

func runForecast(cmd *cobra.Command, args []string) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	window := forecastFlags.window
	if window <= 0 {
		window = config.GetConfig().Budget.ForecastWindowDays
	}

	payload, err := svc.dashboard.CompletionEstimate(context.Background(), forecastFlags.project, window)
	if err != nil {
		return cli.NewCommandError("forecast", err)
	}

	if forecastFlags.output == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, payload)
	}

	fmt.Printf("Project: %s (%s)\n", payload.ProjectName, payload.ProjectID)
	fc := payload.Forecast
	if !fc.Applicable {
		fmt.Println("Forecast: not applicable (no budget configured)")
		return nil
	}
	if fc.CompletionDate == nil {
		fmt.Println("Forecast: no recent activity to extrapolate from")
		fmt.Printf("Remaining: %s\n", fc.RemainingBudget)
		return nil
	}
	fmt.Printf("Exhaustion date: %s (%d days)\n",
		fc.CompletionDate.Format("2006-01-02"), fc.DaysRemaining)
	fmt.Printf("Remaining: %s\n", fc.RemainingBudget)
	fmt.Printf("Daily rate: %s\n", fc.DailyBurnRate)
	fmt.Printf("Confidence: %s\n", fc.Confidence)
	return nil
}

func runTrends(cmd *cobra.Command, args []string) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	window := trendsFlags.window
	if window <= 0 {
		window = config.GetConfig().Budget.TrendWindowDays
	}

	var granularity budget.Granularity
	switch trendsFlags.granularity {
	case "day":
		granularity = budget.GranularityDay
	case "week":
		granularity = budget.GranularityWeek
	case "month":
		granularity = budget.GranularityMonth
	default:
		return cli.NewConfigError("granularity",
			fmt.Sprintf("unknown granularity %q (want day, week, or month)", trendsFlags.granularity))
	}

	payload, err := svc.dashboard.CostTrends(context.Background(), trendsFlags.project, window, granularity)
	if err != nil {
		return cli.NewCommandError("trends", err)
	}

	if trendsFlags.output == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, payload)
	}

	fmt.Printf("Project: %s (%s)\n", payload.ProjectName, payload.ProjectID)
	report := payload.Report
	fmt.Printf("Direction: %s (%.1f%%)\n", report.Direction, report.TrendPercent)
	fmt.Printf("Average per %s: %s\n", report.Granularity, report.AverageCost)
	for _, point := range report.Points {
		fmt.Printf("  %-12s %12s\n", point.Period, point.Cost)
	}
	return nil
}
