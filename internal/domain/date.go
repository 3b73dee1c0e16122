package domain

import (
	"fmt"
	"strconv"
	"time"
)

const dateLayout = "20060102"

// ParseDate parses an 8-digit YYYYMMDD date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(dateLayout) {
		return time.Time{}, fmt.Errorf("parse date %q: want YYYYMMDD", s)
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate is the inverse of ParseDate.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// Year returns the cutoff table key for a date.
func Year(t time.Time) string {
	return strconv.Itoa(t.Year())
}

// DaysBetween counts calendar days from a to b. It works on day numbers
// rather than time.Duration so that the zero time stays usable as "before any
// real date".
func DaysBetween(a, b time.Time) int {
	return int(dayNumber(b) - dayNumber(a))
}

func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
