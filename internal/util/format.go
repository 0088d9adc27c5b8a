package util

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration formats an elapsed duration with one decimal place on the seconds
// component, so a live timer does not change width when it crosses a whole second
// ("5.0s", "1m0.0s", "1h2m5.3s").
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	// Round to tenths first so 59.99s reads "1m0.0s" and never "59.10s" or "0m60.0s".
	tenths := math.Round(d.Seconds() * 10)
	rounded := tenths / 10

	if rounded < 60 {
		return fmt.Sprintf("%.1fs", rounded)
	}
	if rounded < 3600 {
		mins := int(rounded) / 60
		secs := rounded - float64(mins*60)
		return fmt.Sprintf("%dm%.1fs", mins, secs)
	}
	hours := int(rounded) / 3600
	mins := (int(rounded) % 3600) / 60
	secs := rounded - float64(hours*3600+mins*60)
	return fmt.Sprintf("%dh%dm%.1fs", hours, mins, secs)
}

// Plural returns singular when n == 1 and plural otherwise.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
