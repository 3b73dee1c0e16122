package domain

// IsExtreme reports whether an observation strictly crosses its cutoff.
func IsExtreme(o Observation, cutoffs CutoffTable, cmp Comparison) bool {
	threshold := cutoffs.Threshold(Year(o.Date), o.Location, cmp)
	switch cmp {
	case LessThan:
		return o.Value < threshold
	case GreaterThan:
		return o.Value > threshold
	default:
		return false
	}
}

// Filter selects the extreme observations and tags them with label. The
// result keeps input order and is not sorted.
func Filter(observations []Observation, cutoffs CutoffTable, cmp Comparison, label Label) []ExtremeDay {
	var days []ExtremeDay
	for _, o := range observations {
		if IsExtreme(o, cutoffs, cmp) {
			days = append(days, ExtremeDay{Location: o.Location, Date: o.Date, Label: label})
		}
	}
	return days
}

// ComparisonFor returns the comparison used for a label: cold days fall
// below a low cutoff, hot days rise above a high one.
func ComparisonFor(label Label) Comparison {
	if label == Hot {
		return GreaterThan
	}
	return LessThan
}
