package services

import (
	"fmt"
	"time"
)

// FormatRelative renders t the way conversation lists and the feed show
// ages: "now", "5m", "3h", "2d", then a calendar date after a week.
func FormatRelative(now, t time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh", int(diff/time.Hour))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd", int(diff/(24*time.Hour)))
	default:
		return t.Format("Jan 2, 2006")
	}
}
