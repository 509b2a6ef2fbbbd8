package media

import "strconv"

// formatDuration renders a duration in seconds as a plain decimal string
// for storage in a "*_duration_seconds" metadata field.
func formatDuration(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
