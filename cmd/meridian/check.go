package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackwell-hq/meridian/pkg/cli"
)

var checkFlags struct {
	project string
	output  string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a project's budget now",
	Long: `Evaluate one project's budget immediately, raising an alert if a
threshold has been crossed, and print the resulting budget status.

Examples:
  # Check a project and print its status
  meridian check --project proj-1

  # Machine-readable output
  meridian check --project proj-1 --output json`,
	RunE: runCheck,
}

var statusFlags struct {
	output string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the cross-project budget summary",
	Long: `Print the budget summary across all projects: per-status counts,
aggregate budget and consumption, and open alert counts.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(statusCmd)

	checkCmd.Flags().StringVarP(&checkFlags.project, "project", "p", "", "project ID (required)")
	checkCmd.Flags().StringVarP(&checkFlags.output, "output", "o", "text", "output format (text, json)")
	checkCmd.MarkFlagRequired("project")

	statusCmd.Flags().StringVarP(&statusFlags.output, "output", "o", "text", "output format (text, json)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	ctx := context.Background()

	alert, err := svc.engine.CheckProject(ctx, checkFlags.project)
	if err != nil {
		return cli.NewCommandError("check", err)
	}

	payload, err := svc.dashboard.BudgetStatus(ctx, checkFlags.project)
	if err != nil {
		return cli.NewCommandError("check", err)
	}

	if checkFlags.output == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, payload)
	}

	fmt.Printf("Project: %s (%s)\n", payload.ProjectName, payload.ProjectID)
	if !payload.HasBudget {
		fmt.Println("Status: no budget configured")
		return nil
	}

	snap := payload.Snapshot
	fmt.Printf("Status: %s\n", snap.Status)
	fmt.Printf("Budget: %s\n", snap.BudgetAmount)
	fmt.Printf("Consumed: %s (%.1f%%)\n", snap.ConsumedAmount, snap.ConsumedPercent)
	fmt.Printf("Remaining: %s\n", snap.RemainingAmount)
	if alert != nil {
		fmt.Printf("\nAlert raised: %s (%s)\n", alert.Type, alert.ID)
	}
	if n := len(payload.OpenAlerts); n > 0 {
		fmt.Printf("Open alerts: %d\n", n)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	payload, err := svc.dashboard.Summary(context.Background())
	if err != nil {
		return cli.NewCommandError("status", err)
	}

	if statusFlags.output == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, payload)
	}

	s := payload.Summary
	fmt.Printf("Projects: %d (%d without budget)\n", s.Projects, s.NoBudget)
	for status, count := range s.ByStatus {
		fmt.Printf("  %-12s %d\n", status, count)
	}
	fmt.Printf("Total budget: %s\n", s.TotalBudget)
	fmt.Printf("Total consumed: %s\n", s.TotalConsumed)
	fmt.Printf("Alerts: %d total, %d open\n", s.TotalAlerts, s.UnacknowledgedAlerts)
	return nil
}
