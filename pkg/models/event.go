package models

import (
	"strconv"
	"strings"
	"time"
)

// SheetOrigin records which worksheet an event row came from: the first
// worksheet is the "new" partition, the second is "old".
const (
	SheetOriginNew = "new"
	SheetOriginOld = "old"
)

// Match tiers for an event against the rule catalog. Auto-accepting a shaky
// match can misclassify an event with real compliance consequences, so only
// "matched" is trusted without a human override.
const (
	TierUnmatched     = "unmatched"
	TierLowConfidence = "low-confidence"
	TierMatched       = "matched"
)

// EventRecord is a normalized event-log row. RawSource preserves the original
// untouched source row for the audit trail. The rule-derived fields
// (Condition through AssignedTeam) are populated when a match is applied.
type EventRecord struct {
	ServerID           string     `json:"id,omitempty"`
	SheetOrigin        string     `json:"sheetOrigin,omitempty"`
	SerialNumber       string     `json:"serialNumber,omitempty"`
	Company            string     `json:"company"`
	CompanyIdentifier  string     `json:"companyIdentifier,omitempty"`
	ReportedChangeText string     `json:"reportedChangeText"`
	Description        string     `json:"description,omitempty"`
	EventDate          *time.Time `json:"eventDate,omitempty"`
	IdentificationDate *time.Time `json:"identificationDate,omitempty"`
	Flag               string     `json:"flag,omitempty"`
	RegulatoryTrigger  string     `json:"regulatoryTrigger,omitempty"`

	Condition       string `json:"condition,omitempty"`
	Severity        string `json:"severity,omitempty"`
	PrimaryAction   string `json:"primaryAction,omitempty"`
	SecondaryAction string `json:"secondaryAction,omitempty"`
	TurnaroundDays  string `json:"turnaroundDays,omitempty"`
	AssignedTeam    string `json:"assignedTeam,omitempty"`

	RawSource map[string]string `json:"rawSource,omitempty"`

	// MatchedRule is a view of a catalog entry, not owned by the event.
	MatchedRule *RuleRecord `json:"matchedRule,omitempty"`
	MatchTier   string      `json:"matchTier,omitempty"`
	MatchScore  *float64    `json:"matchScore,omitempty"`

	// AlertRaised marks a row that already produced an alert, so re-saving
	// an unchanged draft does not raise it again.
	AlertRaised bool `json:"alertRaised,omitempty"`
}

// ApplyRule copies every rule-derived field from the candidate into the row
// and makes the candidate's canonical phrasing authoritative, overwriting the
// operator's transcription.
func (e *EventRecord) ApplyRule(rule *RuleRecord, tier string, score *float64) {
	e.MatchedRule = rule
	e.MatchTier = tier
	e.MatchScore = score

	e.ReportedChangeText = rule.ReportedChangeText
	e.Condition = rule.Condition
	if norm, ok := NormalizeSeverity(rule.Severity); ok {
		e.Severity = norm
	} else {
		e.Severity = rule.Severity
	}
	e.PrimaryAction = rule.PrimaryAction
	e.SecondaryAction = rule.SecondaryAction
	if days, ok := rule.TurnaroundDaysInt(); ok {
		e.TurnaroundDays = strconv.Itoa(days)
	} else {
		e.TurnaroundDays = ""
	}
	e.AssignedTeam = rule.AssignedTeam
}

// ClearMatch resets the row to unmatched; used when a reviewer picks
// "no rule" in the manual override.
func (e *EventRecord) ClearMatch() {
	e.MatchedRule = nil
	e.MatchTier = TierUnmatched
	e.MatchScore = nil
}

// Validate mirrors RuleRecord.Validate for the fields an event row shares
// with the rule schema. Severity is normalized in place on success.
func (e *EventRecord) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(e.ReportedChangeText) == "" {
		errs["reportedChangeText"] = "reported change is required"
	}

	if strings.TrimSpace(e.TurnaroundDays) != "" {
		if _, err := strconv.ParseFloat(strings.TrimSpace(e.TurnaroundDays), 64); err != nil {
			errs["turnaroundDays"] = "turnaround days must be a number"
		}
	}

	if strings.TrimSpace(e.Severity) != "" {
		norm, ok := NormalizeSeverity(e.Severity)
		if !ok {
			errs["severity"] = "severity must be High, Medium or Low"
		} else {
			e.Severity = norm
		}
	}

	return errs
}

// MatchesQuery reports whether the row's searchable fields contain the query
// case-insensitively. An empty query matches everything.
func (e *EventRecord) MatchesQuery(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{e.Company, e.ReportedChangeText, e.Description} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// MatchesFlag reports whether the row's flag matches a categorical filter
// value (exact or substring, case-insensitive). Empty filter matches all.
func (e *EventRecord) MatchesFlag(flag string) bool {
	return matchesCategory(e.Flag, flag)
}

// MatchesTrigger is the categorical filter for the regulatory trigger column.
func (e *EventRecord) MatchesTrigger(trigger string) bool {
	return matchesCategory(e.RegulatoryTrigger, trigger)
}

func matchesCategory(value, filter string) bool {
	f := strings.ToLower(strings.TrimSpace(filter))
	if f == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), f)
}
