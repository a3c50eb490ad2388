package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/riskdesk/ews-console/pkg/apperrors"
	"github.com/riskdesk/ews-console/pkg/match"
)

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Work with the rulebook table",
	}
	cmd.AddCommand(
		newRulesImportCmd(a),
		newRulesSaveCmd(a),
		newRulesListCmd(a),
		newRulesSuggestCmd(a),
		newRulesExportCmd(a),
		newRulesDraftCmd(a),
	)
	return cmd
}

func newRulesImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <workbook>",
		Short: "Import a rulebook spreadsheet into the working table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Prior edits survive the import; the draft is the working state
			// between CLI invocations.
			if _, err := a.rules.LoadDraft(ctx); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open workbook: %w", err)
			}
			defer f.Close()

			imported, err := a.rules.ImportWorkbook(f, args[0])
			if err != nil {
				return err
			}

			if err := a.rules.SaveDraft(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rules (draft saved)\n", imported)
			return nil
		},
	}
}

func newRulesSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Batch-persist the working rulebook to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := a.rules.LoadDraft(ctx); err != nil {
				return err
			}

			result, err := a.rules.SaveAll(ctx)
			if err != nil {
				if !a.rules.Validate() {
					printRuleErrors(cmd, a)
				}
				return err
			}

			if err := a.rules.SaveDraft(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d, failed %d\n", result.Saved, result.Failed)
			return nil
		},
	}
}

func printRuleErrors(cmd *cobra.Command, a *app) {
	for _, row := range a.rules.Table().Rows() {
		for field, msg := range row.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s: %s\n", row.Record.Code, field, msg)
		}
	}
}

func newRulesListCmd(a *app) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the server rule catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.rules.LoadCatalog(cmd.Context()); err != nil {
				return err
			}

			for _, rule := range a.rules.FilterCatalog(query) {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-10s %s\n", rule.Code, rule.Severity, rule.ReportedChangeText)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Substring filter over the reported change text")
	return cmd
}

func newRulesSuggestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <text>",
		Short: "Show the closest catalog rules for free text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(strings.ReplaceAll(match.Fold(text), " ", "")) < match.MinQueryLength {
				return apperrors.ErrQueryTooShort
			}

			if err := a.rules.LoadCatalog(cmd.Context()); err != nil {
				return err
			}

			candidates := a.rules.Suggest(text)
			if len(candidates) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rules within the match budget")
				return nil
			}
			for _, c := range candidates {
				fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %-8s %s\n",
					c.Distance, c.Rule.Code, c.Rule.ReportedChangeText)
			}
			return nil
		},
	}
}

func newRulesExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <out.csv>",
		Short: "Export the working rulebook as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.rules.LoadDraft(cmd.Context()); err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()

			if err := a.rules.Export(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rules to %s\n", a.rules.Table().Len(), args[0])
			return nil
		},
	}
}

func newRulesDraftCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Manage the local rulebook draft",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the draft table",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.rules.LoadDraft(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "No draft saved")
				return nil
			}
			for _, row := range a.rules.Table().Rows() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-10s %s\n",
					row.Record.Code, row.Record.Severity, row.Record.ReportedChangeText)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Discard the draft and the working table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.rules.ClearDraft(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Draft cleared")
			return nil
		},
	})

	return cmd
}
