package domain

import "fmt"

// VerifyRows checks a complete output table for the properties every run
// must satisfy:
//   - wave ids start at 1 and increase by one from wave to wave
//   - each wave has one location and one label, indexes 1..length and
//     back-to-back dates
//   - two waves of the same location and label never touch (waves are maximal)
//   - all cold rows precede all hot rows
//
// It returns every violation found, or nil.
func VerifyRows(rows []WaveRow) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	type lastWave struct {
		waveID int
		end    ExtremeDay
	}
	lastByKey := make(map[string]lastWave)
	seenHot := false
	expectedID := 0

	for i := 0; i < len(rows); {
		first := rows[i]
		expectedID++
		if first.WaveID != expectedID {
			fail("row %d: wave id %d, want %d", i+1, first.WaveID, expectedID)
			expectedID = first.WaveID
		}

		switch first.Label {
		case Cold:
			if seenHot {
				fail("row %d: cold wave %d after hot rows", i+1, first.WaveID)
			}
		case Hot:
			seenHot = true
		default:
			fail("row %d: unknown extreme label %q", i+1, first.Label)
		}

		j := i
		for j < len(rows) && rows[j].WaveID == first.WaveID {
			r := rows[j]
			pos := j - i + 1
			if r.Location != first.Location || r.Label != first.Label {
				fail("row %d: wave %d mixes %s/%s with %s/%s", j+1, r.WaveID, first.Location, first.Label, r.Location, r.Label)
			}
			if r.Index != pos {
				fail("row %d: wave %d index %d, want %d", j+1, r.WaveID, r.Index, pos)
			}
			if r.Length != first.Length {
				fail("row %d: wave %d length %d, want %d", j+1, r.WaveID, r.Length, first.Length)
			}
			if j > i {
				if gap := DaysBetween(rows[j-1].Date, r.Date); gap != 1 {
					fail("row %d: wave %d dates %s and %s are %d days apart", j+1, r.WaveID,
						FormatDate(rows[j-1].Date), FormatDate(r.Date), gap)
				}
			}
			j++
		}
		if n := j - i; n != first.Length {
			fail("row %d: wave %d has %d rows, length says %d", i+1, first.WaveID, n, first.Length)
		}

		key := first.Location + "\x00" + string(first.Label)
		if prev, ok := lastByKey[key]; ok && DaysBetween(prev.end.Date, first.Date) <= 1 {
			fail("row %d: wave %d touches wave %d of %s (%s)", i+1, first.WaveID, prev.waveID, first.Location, first.Label)
		}
		last := rows[j-1]
		lastByKey[key] = lastWave{waveID: first.WaveID, end: ExtremeDay{Location: last.Location, Date: last.Date, Label: last.Label}}

		i = j
	}
	return errs
}
