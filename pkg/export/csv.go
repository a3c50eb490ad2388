package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/riskdesk/ews-console/pkg/models"
	"github.com/riskdesk/ews-console/pkg/table"
)

// Field names in the exported artifacts match the normalized schema.
// Identifiers and validation-error maps are stripped; exporting has no
// effect on stored state.

var ruleHeaders = []string{
	"code", "reportedChangeText", "condition", "severity",
	"primaryAction", "secondaryAction", "turnaroundDays", "assignedTeam", "tags",
}

var eventHeaders = []string{
	"sheetOrigin", "serialNumber", "company", "companyIdentifier",
	"reportedChangeText", "description", "eventDate", "identificationDate",
	"flag", "regulatoryTrigger", "severity", "turnaroundDays", "matchTier", "matchScore",
}

// Rules writes the current rule table as CSV.
func Rules(w io.Writer, rows []*table.Row[models.RuleRecord]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ruleHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		r := row.Record
		record := []string{
			r.Code, r.ReportedChangeText, r.Condition, r.Severity,
			r.PrimaryAction, r.SecondaryAction, r.TurnaroundDays, r.AssignedTeam,
			strings.Join(r.Tags, ", "),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Events writes the current event table as CSV.
func Events(w io.Writer, rows []*table.Row[models.EventRecord]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(eventHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		e := row.Record
		score := ""
		if e.MatchScore != nil {
			score = strconv.FormatFloat(*e.MatchScore, 'f', 3, 64)
		}
		record := []string{
			e.SheetOrigin, e.SerialNumber, e.Company, e.CompanyIdentifier,
			e.ReportedChangeText, e.Description,
			formatDate(e.EventDate), formatDate(e.IdentificationDate),
			e.Flag, e.RegulatoryTrigger, e.Severity, e.TurnaroundDays,
			e.MatchTier, score,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
