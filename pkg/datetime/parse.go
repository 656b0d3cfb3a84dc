// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iwvelando/renovation-forecast/pkg/constants"
)

const (
	// DateLayout is the format expected in config files and is also the output
	// date format.
	DateLayout = constants.DateLayout

	day = 24 * time.Hour
)

// ParseDate parses a calendar date in DateLayout as midnight UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s: %w", value, DateLayout, err)
	}
	return t, nil
}

// MustParseDate parses a date string and panics on error.
// This is intended for built-in tables and tests where the date string is known to be valid.
func MustParseDate(value string) time.Time {
	t, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return t
}

// DaysUntil returns the number of days from reference to target, rounded up
// so that any remaining fraction of a day counts as a full day. The result is
// negative when target is before reference.
func DaysUntil(reference, target time.Time) int {
	return int(math.Ceil(float64(target.Sub(reference)) / float64(day)))
}

// Truncate returns the calendar day of t in UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
