package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrLabelMismatch is returned when a detector is pushed a day of another label.
var ErrLabelMismatch = errors.New("extreme day label does not match detector")

// TableSink receives the output table. WriteWave is called once per closed
// wave with its rows in chronological order.
type TableSink interface {
	WriteHeader(columns []string) error
	WriteWave(rows []WaveRow) error
}

// DetectorConfig configures a Detector.
type DetectorConfig struct {
	// LocationField names the output column holding the location id. It is
	// carried over from the input table.
	LocationField string
	Label         Label
	// WaveIDStart is the last id handed out by a previous detector sharing
	// the same output. Zero means this detector starts the table and writes
	// the header.
	WaveIDStart int
	// Continue marks a detector appending to a table another detector
	// started. It never writes the header, even when the earlier detector
	// closed no wave and WaveIDStart is still zero.
	Continue bool
}

// Detector groups sorted extreme days into waves. One detector handles one
// label; a second detector seeded with LastWaveID continues the numbering.
type Detector struct {
	label Label
	sink  TableSink

	waveID       int
	pending      []time.Time
	lastLocation string
	lastDate     time.Time // zero time sorts before any real date
	seen         bool
}

// NewDetector creates a detector and writes the table header when
// cfg.WaveIDStart is zero and cfg.Continue is unset.
func NewDetector(cfg DetectorConfig, sink TableSink) (*Detector, error) {
	if !cfg.Label.Valid() {
		return nil, fmt.Errorf("new detector: invalid label %q", cfg.Label)
	}
	if cfg.WaveIDStart < 0 {
		return nil, fmt.Errorf("new detector: negative wave id start %d", cfg.WaveIDStart)
	}
	if cfg.LocationField == "" {
		return nil, errors.New("new detector: location field is required")
	}
	if cfg.WaveIDStart == 0 && !cfg.Continue {
		if err := sink.WriteHeader(OutputColumns(cfg.LocationField)); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return &Detector{
		label:  cfg.Label,
		sink:   sink,
		waveID: cfg.WaveIDStart,
	}, nil
}

// Push adds the next day in (location, date) order, closing the open wave
// first when the location changes or the day does not directly follow the
// previous one.
func (d *Detector) Push(day ExtremeDay) error {
	if day.Label != d.label {
		return fmt.Errorf("%w: got %q, want %q", ErrLabelMismatch, day.Label, d.label)
	}
	if d.seen {
		if day.Location == d.lastLocation && day.Date.Equal(d.lastDate) {
			return fmt.Errorf("%w: %s %s", ErrDuplicateDay, day.Location, FormatDate(day.Date))
		}
		if day.Location < d.lastLocation ||
			(day.Location == d.lastLocation && day.Date.Before(d.lastDate)) {
			return fmt.Errorf("%w: %s %s after %s %s", ErrUnsorted,
				day.Location, FormatDate(day.Date), d.lastLocation, FormatDate(d.lastDate))
		}
	}

	newGroup := !d.seen || day.Location != d.lastLocation || DaysBetween(d.lastDate, day.Date) > 1
	if newGroup && len(d.pending) > 0 {
		if err := d.Flush(); err != nil {
			return err
		}
	}

	d.pending = append(d.pending, day.Date)
	d.lastLocation = day.Location
	d.lastDate = day.Date
	d.seen = true
	return nil
}

// Flush closes the open wave, if any, assigning it the next id. It must be
// called after the last Push.
func (d *Detector) Flush() error {
	if len(d.pending) == 0 {
		return nil
	}
	d.waveID++
	rows := make([]WaveRow, len(d.pending))
	for i, date := range d.pending {
		rows[i] = WaveRow{
			Location: d.lastLocation,
			Date:     date,
			Label:    d.label,
			WaveID:   d.waveID,
			Length:   len(d.pending),
			Index:    i + 1,
		}
	}
	d.pending = d.pending[:0]
	if err := d.sink.WriteWave(rows); err != nil {
		return fmt.Errorf("write wave %d: %w", d.waveID, err)
	}
	return nil
}

// Detect pushes every day and flushes the final wave.
func (d *Detector) Detect(days SortedDays) error {
	for _, day := range days.days {
		if err := d.Push(day); err != nil {
			return err
		}
	}
	return d.Flush()
}

// LastWaveID returns the most recently assigned wave id, or the configured
// start when no wave has closed yet.
func (d *Detector) LastWaveID() int {
	return d.waveID
}

// Label returns the label this detector tracks.
func (d *Detector) Label() Label {
	return d.label
}
