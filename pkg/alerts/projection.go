package alerts

import (
	"strconv"
	"time"

	"github.com/riskdesk/ews-console/pkg/models"
	"github.com/riskdesk/ews-console/pkg/table"
)

// Project derives alert-creation payloads from the event rows currently
// carrying a matched rule. It is a pure transform: one payload per matched
// row, status fixed to Pending, severity and turnaround taken from the
// matched rule, and the rule embedded as a snapshot rather than a shared
// reference. Rows whose alert was already raised are skipped.
func Project(rows []*table.Row[models.EventRecord], now time.Time) []models.AlertPayload {
	var payloads []models.AlertPayload
	for _, row := range rows {
		event := row.Record
		if event.MatchedRule == nil || event.AlertRaised {
			continue
		}

		ruleCopy := *event.MatchedRule

		payload := models.AlertPayload{
			Company:     event.Company,
			EventName:   event.ReportedChangeText,
			RawSource:   event.RawSource,
			MatchedRule: &ruleCopy,
			Status:      models.AlertStatusPending,
			CreatedAt:   now,
		}
		if norm, ok := models.NormalizeSeverity(ruleCopy.Severity); ok {
			payload.Severity = norm
		}
		if days, ok := ruleCopy.TurnaroundDaysInt(); ok {
			payload.TurnaroundDays = strconv.Itoa(days)
		}

		payloads = append(payloads, payload)
	}
	return payloads
}
