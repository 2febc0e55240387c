package render

import (
	"fmt"
	"strings"
	"time"
)

// Clock formats seconds as "1h 2m 3s", always with all three fields.
func Clock(seconds int64) string {
	if seconds < 0 {
		return "-" + Clock(-seconds)
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// Elapsed formats d compactly as "1d 2h 3m 4s", omitting leading zero
// fields. Seconds are always shown.
func Elapsed(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	days := secs / 86400
	hours := secs % 86400 / 3600
	mins := secs % 3600 / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	parts = append(parts, fmt.Sprintf("%ds", secs%60))
	return strings.Join(parts, " ")
}
