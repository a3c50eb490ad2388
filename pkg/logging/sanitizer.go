package logging

import (
	"regexp"
)

const (
	// MaxCellLogLength is the maximum length of a cell value to log
	MaxCellLogLength = 100
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// Pattern to match bearer tokens (three base64url segments separated by dots)
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9-_]+\.[A-Za-z0-9-_]+\.[A-Za-z0-9-_]*`)

	// Pattern to match password fields in request bodies or query strings
	passwordPattern = regexp.MustCompile(`(?i)("?password"?\s*[:=]\s*)"?[^",&\s]+"?`)

	// Pattern to match credentials embedded in URLs (user:pass@host)
	urlCredsPattern = regexp.MustCompile(`://[^:/\s]+:[^@/\s]+@[^/\s]+`)
)

// SanitizeError sanitizes error messages that might echo request payloads
// containing credentials or session tokens. Use this before logging any
// error from a backend call.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	sanitized := bearerPattern.ReplaceAllString(err.Error(), "Bearer "+RedactedText)
	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}"+RedactedText)
	sanitized = urlCredsPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)

	return sanitized
}

// SanitizeCell truncates a spreadsheet cell value for logging. Event
// descriptions can run to whole paragraphs; logs only need the head.
func SanitizeCell(v string) string {
	return TruncateString(v, MaxCellLogLength)
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
