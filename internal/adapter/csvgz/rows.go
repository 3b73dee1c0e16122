package csvgz

import (
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

// ReadWaveRows loads a complete wave table written by TableWriter and
// returns its rows along with the location column name.
func ReadWaveRows(path string) ([]domain.WaveRow, string, error) {
	t, err := openTable(path)
	if err != nil {
		return nil, "", err
	}
	defer t.Close()

	locationField := t.header[0]
	cols := make(map[string]int)
	for _, name := range domain.OutputColumns(locationField) {
		if cols[name], err = t.column(name); err != nil {
			return nil, "", err
		}
	}

	var rows []domain.WaveRow
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return rows, locationField, nil
		}
		if err != nil {
			return nil, "", err
		}

		ints := make(map[string]int, 6)
		for _, name := range []string{"year", "month", "day", "wave_id", "wave_length", "wave_index"} {
			v, err := strconv.Atoi(rec[cols[name]])
			if err != nil {
				return nil, "", t.errorf("parse %s %q: %v", name, rec[cols[name]], err)
			}
			ints[name] = v
		}

		y, m, d := ints["year"], ints["month"], ints["day"]
		date := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		if date.Year() != y || int(date.Month()) != m || date.Day() != d {
			return nil, "", t.errorf("invalid date %d-%d-%d", y, m, d)
		}
		label := domain.Label(rec[cols["extreme"]])
		if !label.Valid() {
			return nil, "", t.errorf("unknown extreme %q", label)
		}

		rows = append(rows, domain.WaveRow{
			Location: rec[cols[locationField]],
			Date:     date,
			Label:    label,
			WaveID:   ints["wave_id"],
			Length:   ints["wave_length"],
			Index:    ints["wave_index"],
		})
	}
}
