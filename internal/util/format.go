// Package util holds small display helpers shared by the command-line tools.
package util //nolint:revive // util is the established home for formatting helpers

import "time"

// FormatElapsed renders how long a job has been in the system. Zero or
// negative durations render as "-"; anything else is truncated to milliseconds.
func FormatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Millisecond:
		return d.String()
	default:
		return d.Truncate(time.Millisecond).String()
	}
}
