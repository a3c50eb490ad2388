package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotificationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Operator notifications",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := a.client.ListNotifications(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range notes {
				marker := " "
				if !n.Read {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %-26s %s\n", marker, n.ID, n.Message)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.MarkNotificationRead(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Marked as read")
			return nil
		},
	})

	return cmd
}
