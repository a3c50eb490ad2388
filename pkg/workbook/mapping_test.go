package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHeaders_CompanyVariants(t *testing.T) {
	// Both common header spellings must land on the company field.
	for _, header := range []string{"Company Name", "Name of Company"} {
		mapping := MapHeaders([]string{"S No", header, "Description"}, EventFields)

		got, ok := mapping.Header("company")
		require.True(t, ok, "header %q should map to company", header)
		assert.Equal(t, header, got)
	}
}

func TestMapHeaders_ExactBeatsSubstring(t *testing.T) {
	// "Company CIN" contains "company", but the exact label must win.
	mapping := MapHeaders([]string{"Company CIN", "Company Name"}, EventFields)

	company, _ := mapping.Header("company")
	assert.Equal(t, "Company Name", company)

	cin, _ := mapping.Header("companyIdentifier")
	assert.Equal(t, "Company CIN", cin)
}

func TestMapHeaders_SeverityFallback(t *testing.T) {
	tests := []string{"Risk Level", "Severity", "Criticality Level", "Risk"}
	for _, header := range tests {
		mapping := MapHeaders([]string{"Reported Change", header}, RuleFields)
		got, ok := mapping.Header("severity")
		require.True(t, ok, "header %q should map to severity", header)
		assert.Equal(t, header, got)
	}
}

func TestMapHeaders_CaseAndWhitespaceFolding(t *testing.T) {
	mapping := MapHeaders([]string{"REPORTED   CHANGE", "condition"}, RuleFields)

	got, ok := mapping.Header("reportedChangeText")
	require.True(t, ok)
	assert.Equal(t, "REPORTED   CHANGE", got, "internal whitespace and case are ignored")

	_, ok = mapping.Header("condition")
	assert.True(t, ok)
}

func TestMapHeaders_Idempotent(t *testing.T) {
	headers := []string{"Rule Code", "Reported Change", "Risk Level", "Notes"}

	first := MapHeaders(headers, RuleFields)
	second := MapHeaders(headers, RuleFields)

	assert.Equal(t, first.byField, second.byField)
	assert.Equal(t, first.claimed, second.claimed)
}

func TestMapHeaders_UnclaimedRetained(t *testing.T) {
	headers := []string{"Reported Change", "Analyst Notes", "Source System"}
	mapping := MapHeaders(headers, RuleFields)

	assert.Equal(t, []string{"Analyst Notes", "Source System"}, mapping.Unclaimed(headers))
}

func TestMapping_ValueTrims(t *testing.T) {
	mapping := MapHeaders([]string{"Condition"}, RuleFields)
	row := map[string]string{"Condition": "  net worth drop > 25%  "}

	assert.Equal(t, "net worth drop > 25%", mapping.Value(row, "condition"))
	assert.Equal(t, "", mapping.Value(row, "severity"), "unmapped fields read empty")
}
