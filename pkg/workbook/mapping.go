package workbook

import (
	"regexp"
	"strings"
)

// Field is one target of the column auto-mapper: a stable key used in the
// normalized schema plus the human label it usually appears under.
type Field struct {
	Key   string
	Label string
}

// severityPattern is the dedicated fallback for severity-like headers when
// no direct mapping was found.
var severityPattern = regexp.MustCompile(`(?i)severity|level|risk`)

// Mapping is the result of header auto-discovery: which source header feeds
// each target field, and which headers were claimed by any field.
type Mapping struct {
	byField map[string]string
	claimed map[string]bool
}

// MapHeaders assigns discovered headers to target fields. For each field, in
// order: exact case-insensitive match first, then substring containment in
// either direction (header contains field key, field label contains header,
// or field key contains header). First match wins. Case and internal
// whitespace are ignored throughout. The pass is deterministic, so re-running
// it over an already-mapped header set yields identical assignments.
func MapHeaders(headers []string, fields []Field) Mapping {
	m := Mapping{
		byField: make(map[string]string, len(fields)),
		claimed: make(map[string]bool),
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = foldHeader(h)
	}

	for _, field := range fields {
		key := foldHeader(field.Key)
		label := foldHeader(field.Label)

		idx := -1
		for i, h := range normalized {
			if h == "" {
				continue
			}
			if h == key || h == label {
				idx = i
				break
			}
		}
		if idx < 0 {
			for i, h := range normalized {
				if h == "" {
					continue
				}
				if strings.Contains(h, key) || strings.Contains(label, h) || strings.Contains(key, h) {
					idx = i
					break
				}
			}
		}
		if idx < 0 && field.Key == "severity" {
			for i, h := range headers {
				if severityPattern.MatchString(h) {
					idx = i
					break
				}
			}
		}

		if idx >= 0 {
			m.byField[field.Key] = headers[idx]
			m.claimed[headers[idx]] = true
		}
	}

	return m
}

// Header returns the source header mapped to a field key.
func (m Mapping) Header(fieldKey string) (string, bool) {
	h, ok := m.byField[fieldKey]
	return h, ok
}

// Value looks up a row cell through the mapping, trimmed. Unmapped or missing
// cells read as the empty string.
func (m Mapping) Value(row map[string]string, fieldKey string) string {
	header, ok := m.byField[fieldKey]
	if !ok {
		return ""
	}
	return strings.TrimSpace(row[header])
}

// Unclaimed returns the headers no field selected, in source order. Their
// cells are retained verbatim per-row so no source data is silently dropped.
func (m Mapping) Unclaimed(headers []string) []string {
	var out []string
	for _, h := range headers {
		if h != "" && !m.claimed[h] {
			out = append(out, h)
		}
	}
	return out
}

// foldHeader strips all whitespace and case so header variants compare equal.
func foldHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
