package utils

import "time"

// FormatRFC3339 renders t in UTC, or "" for the zero time.
func FormatRFC3339(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
