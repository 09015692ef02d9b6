// Package biztime centralizes time handling for the settlement core.
// All storage and transport use UTC; implicit local timezone is prohibited.
package biztime

import "time"

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatMetadataTime formats a time for storage in free-form metadata fields.
func FormatMetadataTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
