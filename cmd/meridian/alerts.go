package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"trackwell-hq/meridian/pkg/alerts"
	"trackwell-hq/meridian/pkg/cli"
)

var alertsFlags struct {
	project string
	output  string
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List and acknowledge budget alerts",
	Long: `List open budget alerts, or the full history for one project, and
acknowledge alerts by ID.

Examples:
  # List all open alerts
  meridian alerts

  # List all alerts for one project, acknowledged included
  meridian alerts --project proj-1

  # Acknowledge an alert
  meridian alerts ack a1b2c3 --by ops@example.com`,
	RunE: runAlerts,
}

var ackFlags struct {
	by string
}

var ackCmd = &cobra.Command{
	Use:   "ack <alert-id>",
	Short: "Acknowledge an alert",
	Long: `Acknowledge an alert by ID. Acknowledging is one-way and lifts the
deduplication window, so the next threshold crossing alerts again.`,
	Args: cobra.ExactArgs(1),
	RunE: runAck,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(ackCmd)

	alertsCmd.Flags().StringVarP(&alertsFlags.project, "project", "p", "", "limit to one project (includes acknowledged)")
	alertsCmd.Flags().StringVarP(&alertsFlags.output, "output", "o", "text", "output format (text, json)")

	ackCmd.Flags().StringVar(&ackFlags.by, "by", "", "who is acknowledging (required)")
	ackCmd.MarkFlagRequired("by")
}

func runAlerts(cmd *cobra.Command, args []string) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	ctx := context.Background()

	list, err := listAlerts(ctx, svc)
	if err != nil {
		return cli.NewCommandError("alerts", err)
	}

	if alertsFlags.output == "json" {
		formatter := cli.NewFormatter(cli.FormatJSON)
		return formatter.FormatTo(os.Stdout, list)
	}

	if len(list) == 0 {
		fmt.Println("No alerts")
		return nil
	}
	for _, alert := range list {
		state := "open"
		if alert.Acknowledged {
			state = "ack by " + alert.AcknowledgedBy
		}
		fmt.Printf("%s  %-12s %-12s %5.1f%%  %s  [%s]\n",
			alert.CreatedAt.Format("2006-01-02 15:04"),
			alert.ProjectID, alert.Type, alert.ConsumedPercent,
			alert.ID, state)
	}
	return nil
}

func listAlerts(ctx context.Context, svc *services) ([]*alerts.Alert, error) {
	if alertsFlags.project != "" {
		return svc.engine.ListByProject(ctx, alertsFlags.project)
	}
	return svc.engine.ListUnacknowledged(ctx)
}

func runAck(cmd *cobra.Command, args []string) error {
	svc, err := buildServices()
	if err != nil {
		return err
	}
	defer svc.close()

	if err := svc.engine.Acknowledge(context.Background(), args[0], ackFlags.by); err != nil {
		return cli.NewCommandError("alerts ack", err)
	}
	fmt.Printf("✓ Alert %s acknowledged\n", args[0])
	return nil
}
