// Package duration parses cache-age strings such as "12h", "30d" or "6mo".
package duration

import (
	"fmt"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Parse parses an age. Anything time.ParseDuration accepts is valid, plus
// the calendar-ish units d, w, mo and y (a month is 30 days, a year 365).
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return 0, fmt.Errorf("negative age: %s", s)
		}
		return d, nil
	}

	var n int
	var unit string
	if _, err := fmt.Sscanf(s, "%d%s", &n, &unit); err != nil {
		return 0, fmt.Errorf("invalid age format: %s (use e.g., 12h, 30d, 6mo)", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative age: %s", s)
	}

	var d time.Duration
	switch unit {
	case "d", "day", "days":
		d = day
	case "w", "wk", "wks", "week", "weeks":
		d = 7 * day
	case "mo", "month", "months":
		d = 30 * day
	case "y", "yr", "yrs", "year", "years":
		d = 365 * day
	default:
		return 0, fmt.Errorf("unknown age unit: %s", unit)
	}
	return time.Duration(n) * d, nil
}

// Cutoff returns the instant that lies age s before now.
func Cutoff(s string, now time.Time) (time.Time, error) {
	d, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}
