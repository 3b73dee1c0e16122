package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Label names the kind of extreme a detector tracks.
type Label string

const (
	Cold Label = "cold"
	Hot  Label = "hot"
)

// Valid reports whether l is one of the known labels.
func (l Label) Valid() bool {
	return l == Cold || l == Hot
}

// Comparison selects how an observation is compared against its cutoff.
type Comparison int

const (
	// LessThan keeps observations strictly below the cutoff.
	LessThan Comparison = iota
	// GreaterThan keeps observations strictly above the cutoff.
	GreaterThan
)

func (c Comparison) String() string {
	switch c {
	case LessThan:
		return "<"
	case GreaterThan:
		return ">"
	default:
		return "?"
	}
}

// Observation is one daily value for one location.
type Observation struct {
	Location string
	Date     time.Time
	Value    float64
}

// ExtremeDay is an observation that crossed its cutoff.
type ExtremeDay struct {
	Location string
	Date     time.Time
	Label    Label
}

// WaveRow is one day of a closed wave as written to the output table.
type WaveRow struct {
	Location string
	Date     time.Time
	Label    Label
	WaveID   int
	Length   int
	Index    int
}

// Record renders the row in OutputColumns order, without the location
// column name.
func (r WaveRow) Record() []string {
	return []string{
		r.Location,
		strconv.Itoa(r.Date.Year()),
		strconv.Itoa(int(r.Date.Month())),
		strconv.Itoa(r.Date.Day()),
		string(r.Label),
		strconv.Itoa(r.WaveID),
		strconv.Itoa(r.Length),
		strconv.Itoa(r.Index),
	}
}

// OutputColumns returns the output header for the given location column.
func OutputColumns(locationField string) []string {
	return []string{locationField, "year", "month", "day", "extreme", "wave_id", "wave_length", "wave_index"}
}

// WaveSummary condenses one closed wave for downstream loaders.
type WaveSummary struct {
	RunID      string    `json:"run_id"`
	Dataset    string    `json:"dataset"`
	WaveID     int       `json:"wave_id"`
	Location   string    `json:"location"`
	Label      Label     `json:"extreme"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Length     int       `json:"length"`
	DetectedAt time.Time `json:"detected_at"`
}

// SummarizeWave folds the rows of a single wave into a WaveSummary. Rows must
// be in chronological order, as emitted by a Detector flush.
func SummarizeWave(rows []WaveRow) (WaveSummary, error) {
	if len(rows) == 0 {
		return WaveSummary{}, fmt.Errorf("summarize wave: no rows")
	}
	first, last := rows[0], rows[len(rows)-1]
	return WaveSummary{
		WaveID:     first.WaveID,
		Location:   first.Location,
		Label:      first.Label,
		Start:      first.Date,
		End:        last.Date,
		Length:     len(rows),
		DetectedAt: clock.Now().UTC(),
	}, nil
}
