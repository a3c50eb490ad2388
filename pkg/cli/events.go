package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/riskdesk/ews-console/pkg/apperrors"
	"github.com/riskdesk/ews-console/pkg/models"
)

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Work with the event-log table",
	}
	cmd.AddCommand(
		newEventsImportCmd(a),
		newEventsSaveCmd(a),
		newEventsListCmd(a),
		newEventsExportCmd(a),
		newEventsDraftCmd(a),
		newEventsMatchCmd(a),
		newEventsOverrideCmd(a),
	)
	return cmd
}

func newEventsImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <workbook>",
		Short: "Import an event log and auto-match it against the rule catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := a.rules.LoadCatalog(ctx); err != nil {
				return err
			}
			if len(a.rules.Rules()) == 0 {
				return fmt.Errorf("cannot match events: %w", apperrors.ErrEmptyCatalog)
			}
			if _, err := a.events.LoadDraft(ctx); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open workbook: %w", err)
			}
			defer f.Close()

			stats, err := a.events.ImportWorkbook(f, args[0])
			if err != nil {
				return err
			}

			if err := a.events.SaveDraft(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Imported %d events: %d matched, %d low-confidence, %d unmatched (draft saved)\n",
				stats.Rows, stats.Matched, stats.LowConfidence, stats.Unmatched)
			return nil
		},
	}
}

func newEventsSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Batch-persist the working events and raise alerts for matched rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if _, err := a.events.LoadDraft(ctx); err != nil {
				return err
			}

			outcome, err := a.events.SaveAll(ctx)
			if err != nil {
				for _, row := range a.events.Table().Rows() {
					for field, msg := range row.Errors {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s: %s\n",
							row.Record.SerialNumber, row.Record.Company, field, msg)
					}
				}
				return err
			}

			if err := a.events.SaveDraft(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d, failed %d, alerts created %d\n",
				outcome.Saved, outcome.Failed, outcome.AlertsCreated)
			return nil
		},
	}
}

func newEventsListCmd(a *app) *cobra.Command {
	var (
		query, flag, trigger string
		page, size           int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the working event table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.events.LoadDraft(cmd.Context()); err != nil {
				return err
			}
			if size <= 0 {
				size = a.cfg.PageSize
			}

			view := a.events.View(query, flag, trigger, page, size)
			for _, row := range view.Rows {
				e := row.Record
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %-4s %-30s %-15s %s\n",
					e.SheetOrigin, e.SerialNumber, e.Company, e.MatchTier, e.ReportedChangeText)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d rows)\n",
				view.Number, view.PageCount, view.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Free-text filter over company, event text and description")
	cmd.Flags().StringVar(&flag, "flag", "", "Categorical filter on the flag column")
	cmd.Flags().StringVar(&trigger, "trigger", "", "Categorical filter on the regulatory trigger")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&size, "size", 0, "Page size (defaults to the configured page size)")
	return cmd
}

func newEventsExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <out.csv>",
		Short: "Export the working event table as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.events.LoadDraft(cmd.Context()); err != nil {
				return err
			}

			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()

			if err := a.events.Export(f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d events to %s\n", a.events.Table().Len(), args[0])
			return nil
		},
	}
}

func newEventsMatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rematch",
		Short: "Re-run auto-matching after a catalog change",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.rules.LoadCatalog(ctx); err != nil {
				return err
			}
			if len(a.rules.Rules()) == 0 {
				return fmt.Errorf("cannot rematch: %w", apperrors.ErrEmptyCatalog)
			}
			if _, err := a.events.LoadDraft(ctx); err != nil {
				return err
			}

			a.events.MatchAll()

			if err := a.events.SaveDraft(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rematched working table against the current catalog")
			return nil
		},
	}
}

// newEventsOverrideCmd is the manual match override: the reviewer picks a rule
// by code for one row, or clears the match entirely. Rows are addressed by
// their 1-based position in the working table (`ews events list` shows it).
func newEventsOverrideCmd(a *app) *cobra.Command {
	var none bool

	cmd := &cobra.Command{
		Use:   "match <row> [rule-code]",
		Short: "Manually match one event row against a catalog rule",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.rules.LoadCatalog(ctx); err != nil {
				return err
			}
			if _, err := a.events.LoadDraft(ctx); err != nil {
				return err
			}

			pos, err := strconv.Atoi(args[0])
			rows := a.events.Table().Rows()
			if err != nil || pos < 1 || pos > len(rows) {
				return fmt.Errorf("row must be between 1 and %d", len(rows))
			}
			row := rows[pos-1]

			if none {
				a.events.ClearMatch(row.ID)
				if err := a.events.SaveDraft(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Row %d set to unmatched\n", pos)
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("a rule code is required unless --none is given")
			}
			rule := findRuleByCode(a.rules.Rules(), args[1])
			if rule == nil {
				return fmt.Errorf("rule %s: %w", args[1], apperrors.ErrNotFound)
			}

			a.events.ApplyManualMatch(row.ID, rule)
			if err := a.events.SaveDraft(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Row %d matched to %s (%s)\n",
				pos, rule.Code, rule.ReportedChangeText)
			return nil
		},
	}

	cmd.Flags().BoolVar(&none, "none", false, "Clear the row's match instead of setting one")
	return cmd
}

func findRuleByCode(rules []*models.RuleRecord, code string) *models.RuleRecord {
	for _, r := range rules {
		if r.Code == code {
			return r
		}
	}
	return nil
}

func newEventsDraftCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Manage the local events draft",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Discard the draft and the working table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.events.ClearDraft(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Draft cleared")
			return nil
		},
	})

	return cmd
}
