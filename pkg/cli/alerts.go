package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/riskdesk/ews-console/pkg/client"
	"github.com/riskdesk/ews-console/pkg/models"
)

func newAlertsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Review alerts on the backend",
	}
	cmd.AddCommand(
		newAlertsListCmd(a),
		newAlertsShowCmd(a),
		newAlertsActCmd(a),
	)
	return cmd
}

func newAlertsListCmd(a *app) *cobra.Command {
	var (
		query, severity string
		limit           int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			alerts, err := a.client.ListAlerts(cmd.Context(), client.AlertQuery{
				Text:     query,
				Severity: severity,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			for _, alert := range alerts {
				fmt.Fprintf(cmd.OutOrStdout(), "%-26s %-10s %-10s %-25s %s\n",
					alert.ID, alert.Severity, alert.Status, alert.Company, alert.EventName)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "q", "", "Free-text filter")
	cmd.Flags().StringVar(&severity, "severity", "", "Severity filter (High/Medium/Low)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of alerts")
	return cmd
}

func newAlertsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one alert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			alert, err := a.client.GetAlert(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Alert:      %s\n", alert.ID)
			fmt.Fprintf(out, "Company:    %s\n", alert.Company)
			fmt.Fprintf(out, "Event:      %s\n", alert.EventName)
			fmt.Fprintf(out, "Severity:   %s\n", alert.Severity)
			fmt.Fprintf(out, "Status:     %s\n", alert.Status)
			fmt.Fprintf(out, "TAT (days): %s\n", alert.TurnaroundDays)
			if alert.MatchedRule != nil {
				fmt.Fprintf(out, "Rule:       %s %s\n", alert.MatchedRule.Code, alert.MatchedRule.ReportedChangeText)
			}
			return nil
		},
	}
}

func newAlertsActCmd(a *app) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:       "act <id> <approve|reject|close>",
		Short:     "Record a reviewer decision on an alert",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"approve", "reject", "close"},
		RunE: func(cmd *cobra.Command, args []string) error {
			alert, err := a.client.ActOnAlert(cmd.Context(), args[0], models.AlertAction{
				Action:  args[1],
				Comment: comment,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Alert %s is now %s\n", alert.ID, alert.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "Reviewer comment for the audit trail")
	return cmd
}
