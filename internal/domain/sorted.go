package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnsorted is returned when extreme days are not strictly ordered by
// (location, date).
var ErrUnsorted = errors.New("extreme days not sorted by location and date")

// ErrDuplicateDay is returned when the input holds two rows for the same
// location and date.
var ErrDuplicateDay = errors.New("duplicate extreme day for location and date")

// SortedDays is a sequence of extreme days known to be strictly ordered by
// (location, date). The zero value is an empty sequence.
type SortedDays struct {
	days []ExtremeDay
}

// SortDays returns a sorted copy of days. Duplicate (location, date) pairs
// are rejected since a location has one observation per day.
func SortDays(days []ExtremeDay) (SortedDays, error) {
	sorted := slices.Clone(days)
	slices.SortFunc(sorted, compareDays)
	return NewSortedDays(sorted)
}

// NewSortedDays wraps days that the caller claims are already sorted,
// verifying the order.
func NewSortedDays(days []ExtremeDay) (SortedDays, error) {
	for i := 1; i < len(days); i++ {
		switch c := compareDays(days[i-1], days[i]); {
		case c == 0:
			return SortedDays{}, fmt.Errorf("%w: %s %s", ErrDuplicateDay,
				days[i].Location, FormatDate(days[i].Date))
		case c > 0:
			return SortedDays{}, fmt.Errorf("%w: %s %s after %s %s", ErrUnsorted,
				days[i].Location, FormatDate(days[i].Date), days[i-1].Location, FormatDate(days[i-1].Date))
		}
	}
	return SortedDays{days: days}, nil
}

// Len returns the number of days.
func (s SortedDays) Len() int { return len(s.days) }

// Days returns the underlying slice. Callers must not reorder it.
func (s SortedDays) Days() []ExtremeDay { return s.days }

func compareDays(a, b ExtremeDay) int {
	if c := strings.Compare(a.Location, b.Location); c != 0 {
		return c
	}
	return a.Date.Compare(b.Date)
}
