package workbook

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Layouts tried for free-text cells before falling back to delimiter
// splitting. Delimited numeric forms (2024-03-07, 07/03/2024) are handled by
// the splitter so day-first input is not misread as month-first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// NormalizeDate converts a raw cell value into a canonical UTC instant.
// The attempts run in order: an actual time value is used directly, a numeric
// value is decoded as an Excel serial date, and text goes through layout
// parsing then delimiter splitting. Malformed dates must never block an
// import, so every failure path returns ok=false rather than an error.
func NormalizeDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v.UTC(), true
	case float64:
		return serialToDate(v)
	case int:
		return serialToDate(float64(v))
	case int64:
		return serialToDate(float64(v))
	case string:
		return normalizeDateText(v)
	default:
		return time.Time{}, false
	}
}

func normalizeDateText(s string) (time.Time, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, false
	}

	// A bare number is an Excel serial that survived as text.
	if !strings.ContainsAny(trimmed, "/-. ") {
		if serial, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return serialToDate(serial)
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return asUTCDate(t), true
		}
	}

	return splitDate(trimmed)
}

// serialToDate decodes a spreadsheet serial (days since the 1900 epoch,
// including excelize's handling of the leap-year quirk) and rebuilds the
// date in UTC from the decoded year/month/day.
func serialToDate(serial float64) (time.Time, bool) {
	if serial <= 0 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return asUTCDate(t), true
}

// splitDate disambiguates delimiter-separated dates: a 4-digit first part
// means year-first (YYYY-MM-DD), otherwise day-first (DD-MM-YYYY).
func splitDate(s string) (time.Time, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '-' || r == '.'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var yearStr, monthStr, dayStr string
	if len(parts[0]) == 4 {
		yearStr, monthStr, dayStr = parts[0], parts[1], parts[2]
	} else {
		dayStr, monthStr, yearStr = parts[0], parts[1], parts[2]
	}

	year, err1 := strconv.Atoi(yearStr)
	month, err2 := strconv.Atoi(monthStr)
	day, err3 := strconv.Atoi(dayStr)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 becomes Mar 2); reject that.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

func asUTCDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
