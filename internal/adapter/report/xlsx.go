// Package report builds a spreadsheet summary of detected waves.
package report

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/schwartzgroup/daymet-aggregation/internal/adapter/fsutil"
	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

const (
	wavesSheet     = "waves"
	locationsSheet = "locations"
)

// maxSheetRows is the row limit of one worksheet, header included.
var maxSheetRows = excelize.TotalRows

var (
	wavesHeader     = []any{"dataset", "run_id", "wave_id", "location", "extreme", "start", "end", "length"}
	locationsHeader = []any{"dataset", "location", "extreme", "waves", "extreme_days", "longest_wave"}
)

// Workbook accumulates wave summaries across jobs and writes them as an
// XLSX file. It implements pipeline.WaveLoader.
type Workbook struct {
	mu    sync.Mutex
	waves []domain.WaveSummary
}

func NewWorkbook() *Workbook {
	return &Workbook{}
}

func (w *Workbook) Name() string { return "report" }

func (w *Workbook) LoadWaves(_ context.Context, waves []domain.WaveSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waves = append(w.waves, waves...)
	return nil
}

// Len returns the number of waves collected so far.
func (w *Workbook) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waves)
}

// Save renders the workbook and atomically writes it to path.
func (w *Workbook) Save(path string) error {
	data, err := w.Render()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Render builds the XLSX document: one row per wave on the waves sheet and
// one row per dataset, location and extreme on the locations sheet. Tables
// longer than a worksheet continue on waves_2, waves_3 and so on.
func (w *Workbook) Render() ([]byte, error) {
	w.mu.Lock()
	waves := append([]domain.WaveSummary(nil), w.waves...)
	w.mu.Unlock()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", wavesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	err := writeTable(f, wavesSheet, wavesHeader, len(waves), func(i int) []any {
		s := waves[i]
		return []any{
			s.Dataset,
			s.RunID,
			s.WaveID,
			s.Location,
			string(s.Label),
			s.Start.Format("2006-01-02"),
			s.End.Format("2006-01-02"),
			s.Length,
		}
	})
	if err != nil {
		return nil, err
	}

	stats := locationStats(waves)
	err = writeTable(f, locationsSheet, locationsHeader, len(stats), func(i int) []any {
		st := stats[i]
		return []any{st.dataset, st.location, string(st.label), st.waves, st.days, st.longest}
	})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeTable writes n rows under header on sheet name, moving on to name_2,
// name_3 and so on whenever a sheet is full. Missing sheets are added.
func writeTable(f *excelize.File, name string, header []any, n int, row func(int) []any) error {
	perSheet := maxSheetRows - 1
	for part, first := 1, 0; part == 1 || first < n; part, first = part+1, first+perSheet {
		sheet := name
		if part > 1 {
			sheet = fmt.Sprintf("%s_%d", name, part)
		}
		idx, err := f.GetSheetIndex(sheet)
		if err != nil {
			return fmt.Errorf("look up sheet %s: %w", sheet, err)
		}
		if idx < 0 {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("add sheet %s: %w", sheet, err)
			}
		}
		if err := setRow(f, sheet, 1, header); err != nil {
			return err
		}
		last := min(first+perSheet, n)
		for i := first; i < last; i++ {
			if err := setRow(f, sheet, i-first+2, row(i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

type locationKey struct {
	dataset  string
	location string
	label    domain.Label
}

type locationStat struct {
	locationKey
	waves   int
	days    int
	longest int
}

// locationStats groups waves by dataset, location and extreme, ordered by
// those keys with cold before hot.
func locationStats(waves []domain.WaveSummary) []locationStat {
	byKey := make(map[locationKey]*locationStat)
	for _, w := range waves {
		k := locationKey{dataset: w.Dataset, location: w.Location, label: w.Label}
		st, ok := byKey[k]
		if !ok {
			st = &locationStat{locationKey: k}
			byKey[k] = st
		}
		st.waves++
		st.days += w.Length
		st.longest = max(st.longest, w.Length)
	}

	stats := make([]locationStat, 0, len(byKey))
	for _, st := range byKey {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.dataset != b.dataset {
			return a.dataset < b.dataset
		}
		if a.location != b.location {
			return a.location < b.location
		}
		return a.label == domain.Cold && b.label != domain.Cold
	})
	return stats
}
