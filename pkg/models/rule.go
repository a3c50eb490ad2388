package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/riskdesk/ews-console/pkg/jsonutil"
)

// Severity tiers for a rule. Source workbooks abbreviate freely ("H", "med",
// "LOW RISK"), so anything starting with h/m/l normalizes to the tier.
const (
	SeverityHigh   = "High"
	SeverityMedium = "Medium"
	SeverityLow    = "Low"
)

// RuleCodePrefix prefixes every rule code, e.g. "R-14".
const RuleCodePrefix = "R-"

// RuleRecord is a normalized rulebook entry. ReportedChangeText is the
// canonical phrase the fuzzy matcher indexes; Metadata preserves source
// columns that did not map onto any known field.
type RuleRecord struct {
	ServerID           string            `json:"id,omitempty"`
	Code               string            `json:"code"`
	ReportedChangeText string            `json:"reportedChangeText"`
	Condition          string            `json:"condition,omitempty"`
	Severity           string            `json:"severity,omitempty"`
	PrimaryAction      string            `json:"primaryAction,omitempty"`
	SecondaryAction    string            `json:"secondaryAction,omitempty"`
	TurnaroundDays     string            `json:"turnaroundDays,omitempty"`
	AssignedTeam       string            `json:"assignedTeam,omitempty"`
	Tags               []string          `json:"tags,omitempty"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// UnmarshalJSON tolerates backends that send turnaroundDays as a number and
// tags as a comma-joined string.
func (r *RuleRecord) UnmarshalJSON(data []byte) error {
	type alias RuleRecord
	aux := struct {
		*alias
		TurnaroundDays json.RawMessage `json:"turnaroundDays"`
		Tags           json.RawMessage `json:"tags"`
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.TurnaroundDays = jsonutil.FlexibleStringValue(aux.TurnaroundDays)

	if len(aux.Tags) > 0 && string(aux.Tags) != "null" {
		var list []string
		if err := json.Unmarshal(aux.Tags, &list); err == nil {
			r.Tags = list
		} else {
			r.Tags = SplitTags(jsonutil.FlexibleStringValue(aux.Tags))
		}
	}

	return nil
}

// Validate checks the fields a reviewer can break from the table editor and
// returns a field→message map, empty when the record is clean. Severity is
// normalized in place on success.
func (r *RuleRecord) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(r.ReportedChangeText) == "" {
		errs["reportedChangeText"] = "reported change is required"
	}

	if strings.TrimSpace(r.TurnaroundDays) != "" {
		if _, err := strconv.ParseFloat(strings.TrimSpace(r.TurnaroundDays), 64); err != nil {
			errs["turnaroundDays"] = "turnaround days must be a number"
		}
	}

	if strings.TrimSpace(r.Severity) != "" {
		norm, ok := NormalizeSeverity(r.Severity)
		if !ok {
			errs["severity"] = "severity must be High, Medium or Low"
		} else {
			r.Severity = norm
		}
	}

	return errs
}

// TurnaroundDaysInt parses the turnaround field, truncating toward zero.
// Returns false when the field is blank or unparsable.
func (r *RuleRecord) TurnaroundDaysInt() (int, bool) {
	return parseDays(r.TurnaroundDays)
}

// NormalizeSeverity maps free-form severity text onto one of the three tiers.
// Any value starting with h/m/l counts; everything else is rejected.
func NormalizeSeverity(s string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" {
		return "", false
	}
	switch trimmed[0] {
	case 'h':
		return SeverityHigh, true
	case 'm':
		return SeverityMedium, true
	case 'l':
		return SeverityLow, true
	}
	return "", false
}

// SplitTags splits a comma-separated cell into trimmed non-empty tags.
func SplitTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// NextRuleCode mints the next locally-unique code by scanning existing codes
// for the highest numeric suffix. Codes assigned here are a local convenience
// only; the server's numbering is authoritative after the next reload.
func NextRuleCode(codes []string) string {
	highest := 0
	for _, code := range codes {
		suffix := strings.TrimPrefix(strings.TrimSpace(code), RuleCodePrefix)
		if n, err := strconv.Atoi(suffix); err == nil && n > highest {
			highest = n
		}
	}
	return RuleCodePrefix + strconv.Itoa(highest+1)
}

// parseDays parses an integer day count, truncating toward zero and treating
// non-finite or blank input as absent.
func parseDays(s string) (int, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Trunc(f)), true
}
