package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/riskdesk/ews-console/pkg/apperrors"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the EWS backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("EWS_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("email and password are required (use --email and --password or EWS_PASSWORD)")
			}

			sess, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				var authErr *apperrors.AuthError
				if errors.As(err, &authErr) {
					return fmt.Errorf("login rejected: %s", authErr.Message)
				}
				return err
			}

			if err := a.store.Save(cmd.Context(), sessionKey, storedSession{
				Token: sess.Token,
				Email: sess.Email,
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (or set EWS_PASSWORD)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Destroy the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.client.Logout()
			if err := a.store.Clear(cmd.Context(), sessionKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
