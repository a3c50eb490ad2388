package workbook

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/riskdesk/ews-console/pkg/models"
)

// RuleFields is the target schema for rulebook sheets, in mapping priority
// order.
var RuleFields = []Field{
	{Key: "code", Label: "Rule Code"},
	{Key: "reportedChangeText", Label: "Reported Change"},
	{Key: "condition", Label: "Condition"},
	{Key: "severity", Label: "Severity"},
	{Key: "primaryAction", Label: "Primary Action"},
	{Key: "secondaryAction", Label: "Secondary Action"},
	{Key: "turnaroundDays", Label: "Turnaround Days"},
	{Key: "assignedTeam", Label: "Assigned Team"},
	{Key: "tags", Label: "Tags"},
}

// EventFields is the target schema for event-log sheets.
var EventFields = []Field{
	// Source sheets abbreviate the serial column as "S No"; the full spelling
	// still maps through the key.
	{Key: "serialNumber", Label: "S No"},
	{Key: "company", Label: "Company Name"},
	{Key: "companyIdentifier", Label: "Company CIN"},
	{Key: "reportedChangeText", Label: "Reported Change"},
	{Key: "description", Label: "Description"},
	{Key: "eventDate", Label: "Event Date"},
	{Key: "identificationDate", Label: "Identification Date"},
	{Key: "flag", Label: "Flag"},
	{Key: "regulatoryTrigger", Label: "Regulatory Trigger"},
}

// NormalizeRule maps one raw sheet row onto a RuleRecord. Unclaimed source
// columns land verbatim in Metadata.
func NormalizeRule(row map[string]string, headers []string, mapping Mapping) models.RuleRecord {
	rec := models.RuleRecord{
		Code:               mapping.Value(row, "code"),
		ReportedChangeText: mapping.Value(row, "reportedChangeText"),
		Condition:          mapping.Value(row, "condition"),
		PrimaryAction:      mapping.Value(row, "primaryAction"),
		SecondaryAction:    mapping.Value(row, "secondaryAction"),
		AssignedTeam:       mapping.Value(row, "assignedTeam"),
		Tags:               models.SplitTags(mapping.Value(row, "tags")),
	}

	if norm, ok := models.NormalizeSeverity(mapping.Value(row, "severity")); ok {
		rec.Severity = norm
	}
	rec.TurnaroundDays = normalizeDays(mapping.Value(row, "turnaroundDays"))

	if extra := mapping.Unclaimed(headers); len(extra) > 0 {
		rec.Metadata = make(map[string]string, len(extra))
		for _, h := range extra {
			rec.Metadata[h] = row[h]
		}
	}

	return rec
}

// NormalizeEvent maps one raw sheet row onto an EventRecord tagged with its
// worksheet-derived origin. The original row is preserved untouched in
// RawSource for the audit trail.
func NormalizeEvent(row map[string]string, mapping Mapping, origin string) models.EventRecord {
	rec := models.EventRecord{
		SheetOrigin:        origin,
		SerialNumber:       mapping.Value(row, "serialNumber"),
		Company:            mapping.Value(row, "company"),
		CompanyIdentifier:  mapping.Value(row, "companyIdentifier"),
		ReportedChangeText: mapping.Value(row, "reportedChangeText"),
		Description:        mapping.Value(row, "description"),
		Flag:               mapping.Value(row, "flag"),
		RegulatoryTrigger:  mapping.Value(row, "regulatoryTrigger"),
		MatchTier:          models.TierUnmatched,
	}

	rec.EventDate = normalizeDatePtr(mapping.Value(row, "eventDate"))
	rec.IdentificationDate = normalizeDatePtr(mapping.Value(row, "identificationDate"))

	rec.RawSource = make(map[string]string, len(row))
	for k, v := range row {
		rec.RawSource[k] = v
	}

	return rec
}

// SheetOrigin derives the event partition from worksheet position: the first
// sheet is "new", the second is "old".
func SheetOrigin(index int) string {
	if index == 0 {
		return models.SheetOriginNew
	}
	return models.SheetOriginOld
}

func normalizeDatePtr(cell string) *time.Time {
	if t, ok := NormalizeDate(cell); ok {
		return &t
	}
	return nil
}

// normalizeDays truncates a numeric cell toward zero; non-numeric and
// non-finite cells normalize to absent. Bad cells never block an import.
func normalizeDays(cell string) string {
	if cell == "" {
		return ""
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.Itoa(int(math.Trunc(f)))
}
