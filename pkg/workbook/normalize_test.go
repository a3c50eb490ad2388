package workbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskdesk/ews-console/pkg/models"
)

func TestNormalizeRule(t *testing.T) {
	headers := []string{"Rule Code", "Reported Change", "Severity", "Turnaround Days", "Tags", "Source System"}
	mapping := MapHeaders(headers, RuleFields)

	row := map[string]string{
		"Rule Code":       " R-7 ",
		"Reported Change": "Resignation of Statutory Auditor",
		"Severity":        "h",
		"Turnaround Days": "5.9",
		"Tags":            "audit, governance , ",
		"Source System":   "legacy-ews",
	}

	rec := NormalizeRule(row, headers, mapping)

	assert.Equal(t, "R-7", rec.Code)
	assert.Equal(t, "Resignation of Statutory Auditor", rec.ReportedChangeText)
	assert.Equal(t, models.SeverityHigh, rec.Severity)
	assert.Equal(t, "5", rec.TurnaroundDays, "turnaround truncates toward zero")
	assert.Equal(t, []string{"audit", "governance"}, rec.Tags)
	assert.Equal(t, map[string]string{"Source System": "legacy-ews"}, rec.Metadata,
		"unclaimed columns are retained losslessly")
}

func TestNormalizeRule_BadCellsBecomeAbsent(t *testing.T) {
	headers := []string{"Reported Change", "Severity", "Turnaround Days"}
	mapping := MapHeaders(headers, RuleFields)

	rec := NormalizeRule(map[string]string{
		"Reported Change": "Pledge of promoter shares",
		"Severity":        "urgent", // not h/m/l
		"Turnaround Days": "abc",
	}, headers, mapping)

	assert.Empty(t, rec.Severity)
	assert.Empty(t, rec.TurnaroundDays)
	assert.Nil(t, rec.Metadata)
}

func TestNormalizeEvent(t *testing.T) {
	headers := []string{"S No", "Company Name", "Reported Change", "Event Date", "Identification Date", "Flag"}
	mapping := MapHeaders(headers, EventFields)

	row := map[string]string{
		"S No":                "12",
		"Company Name":        "Acme Ltd",
		"Reported Change":     "Default on loan",
		"Event Date":          "07/03/2024",
		"Identification Date": "bad date",
		"Flag":                "red",
	}

	rec := NormalizeEvent(row, mapping, models.SheetOriginNew)

	assert.Equal(t, models.SheetOriginNew, rec.SheetOrigin)
	assert.Equal(t, "12", rec.SerialNumber)
	assert.Equal(t, "Acme Ltd", rec.Company)
	assert.Equal(t, models.TierUnmatched, rec.MatchTier)

	require.NotNil(t, rec.EventDate)
	assert.Equal(t, time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), *rec.EventDate)
	assert.Nil(t, rec.IdentificationDate, "malformed dates never block import")

	assert.Equal(t, row, rec.RawSource, "original row preserved for audit")
}

func TestSheetOrigin(t *testing.T) {
	assert.Equal(t, models.SheetOriginNew, SheetOrigin(0))
	assert.Equal(t, models.SheetOriginOld, SheetOrigin(1))
	assert.Equal(t, models.SheetOriginOld, SheetOrigin(5))
}
