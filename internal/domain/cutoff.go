package domain

// MissingCutoff is the magnitude of the fallback threshold used when a
// (year, location) pair has no cutoff. The sign is chosen per comparison so
// that no real value can cross it.
const MissingCutoff = 1e100

// CutoffTable maps year -> location -> threshold.
type CutoffTable map[string]map[string]float64

// Set records the threshold for a year and location.
func (t CutoffTable) Set(year, location string, threshold float64) {
	byLocation, ok := t[year]
	if !ok {
		byLocation = make(map[string]float64)
		t[year] = byLocation
	}
	byLocation[location] = threshold
}

// Lookup returns the threshold for a year and location, if present.
func (t CutoffTable) Lookup(year, location string) (float64, bool) {
	v, ok := t[year][location]
	return v, ok
}

// Threshold returns the cutoff for a year and location, falling back to a
// value that cmp can never cross: -MissingCutoff for LessThan and
// +MissingCutoff for GreaterThan.
func (t CutoffTable) Threshold(year, location string, cmp Comparison) float64 {
	if v, ok := t.Lookup(year, location); ok {
		return v
	}
	if cmp == GreaterThan {
		return MissingCutoff
	}
	return -MissingCutoff
}

// Len counts the (year, location) entries in the table.
func (t CutoffTable) Len() int {
	n := 0
	for _, byLocation := range t {
		n += len(byLocation)
	}
	return n
}
