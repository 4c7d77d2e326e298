// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NoDestination is shown when a trip has no destination set.
const NoDestination = "No destination"

// FormatMoney formats an amount with thousands separators. Amounts of 100 or
// more drop the cents. Trips carry no currency, so none is printed.
// e.g., 1234.5 -> "1,235", 42.5 -> "42.50"
func FormatMoney(v float64) string {
	if v < 0 {
		return "-" + FormatMoney(-v)
	}
	if v >= 100 {
		return FormatNumber(int64(math.Round(v)))
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 value as a whole percentage.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.0f%%", pct)
}

// FormatDaysUntil renders the countdown for an upcoming trip.
func FormatDaysUntil(days int) string {
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// FormatTripDay renders "Day 3 of 7".
func FormatTripDay(day, total int) string {
	return fmt.Sprintf("Day %d of %d", day, total)
}

// FormatDestination falls back to NoDestination for blank values.
func FormatDestination(d string) string {
	if strings.TrimSpace(d) == "" {
		return NoDestination
	}
	return d
}

// FormatDateRange renders a compact trip date range in loc, e.g. "Jul 8 - Jul 14"
// or "Dec 28, 2026 - Jan 3, 2027" when the years differ.
func FormatDateRange(start, end time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	s, e := start.In(loc), end.In(loc)
	if s.Year() != e.Year() {
		return s.Format("Jan 2, 2006") + " - " + e.Format("Jan 2, 2006")
	}
	return s.Format("Jan 2") + " - " + e.Format("Jan 2")
}

// FormatDuration formats a duration coarsely.
// e.g., 62*time.Minute -> "1h 2m", 2*time.Minute -> "2m", 45*time.Second -> "45s"
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatAgo renders how long before now t was, e.g. "5m ago".
func FormatAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	if d < time.Minute {
		return "just now"
	}
	if d >= 48*time.Hour {
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
	return FormatDuration(d) + " ago"
}
