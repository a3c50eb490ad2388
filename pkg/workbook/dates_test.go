package workbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate_EquivalentEncodings(t *testing.T) {
	want := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
	}{
		{"time value", time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)},
		{"excel serial", 45358.0},
		{"excel serial as text", "45358"},
		{"year first dashes", "2024-03-07"},
		{"day first slashes", "07/03/2024"},
		{"day first dashes", "07-03-2024"},
		{"day first dots", "07.03.2024"},
		{"unpadded day first", "7/3/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeDate(tt.value)
			require.True(t, ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalizeDate_TextualLayouts(t *testing.T) {
	got, ok := NormalizeDate("07-Mar-2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), got)

	got, ok = NormalizeDate("2024-03-07T10:30:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), got,
		"time-of-day collapses to the calendar date")
}

func TestNormalizeDate_TwoDigitYear(t *testing.T) {
	got, ok := NormalizeDate("07/03/24")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC), got)
}

func TestNormalizeDate_UnparsableNeverErrors(t *testing.T) {
	values := []any{
		nil,
		"",
		"   ",
		"not a date",
		"31/02/2024", // February 31st does not exist
		"1/2",        // two parts only
		"a/b/c",
		-5.0,
		0.0,
		time.Time{},
		struct{}{},
	}

	for _, v := range values {
		_, ok := NormalizeDate(v)
		assert.False(t, ok, "value %v should normalize to no-date", v)
	}
}

func TestNormalizeDate_SerialMatchesTextForm(t *testing.T) {
	fromSerial, ok := NormalizeDate(43831.0)
	require.True(t, ok)

	fromText, ok := NormalizeDate("2020-01-01")
	require.True(t, ok)

	assert.Equal(t, fromText, fromSerial)
}
