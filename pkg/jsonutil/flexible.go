package jsonutil

import (
	"encoding/json"
	"fmt"
)

// DecodeList decodes a response body that is either a bare JSON array or a
// {"data": [...]} envelope. The EWS backend has returned both shapes across
// versions, so the console must accept either.
func DecodeList[T any](raw []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	var envelope struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("expected array or data envelope: %w", err)
	}
	return envelope.Data, nil
}

// FlexibleStringValue converts a json.RawMessage to a string, handling fields
// the backend returns as numbers or booleans instead of strings (turnaround
// days is the usual offender). Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}
