package csvgz

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

// PercentileColumn returns the quantile table column for a percentile,
// e.g. 1 -> "pctile01".
func PercentileColumn(percentile int) string {
	return fmt.Sprintf("pctile%02d", percentile)
}

// ReadCutoffs reduces a quantile table to the year -> location -> cutoff
// mapping for one percentile. Empty and "NA" cells are left out of the
// table, so those locations never produce extremes for that year.
func ReadCutoffs(path string, percentile int) (domain.CutoffTable, error) {
	t, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	yearCol, err := t.column("year")
	if err != nil {
		return nil, err
	}
	valueCol, err := t.column(PercentileColumn(percentile))
	if err != nil {
		return nil, err
	}

	cutoffs := domain.CutoffTable{}
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return cutoffs, nil
		}
		if err != nil {
			return nil, err
		}
		if len(rec) <= yearCol || len(rec) <= valueCol {
			return nil, t.errorf("short row with %d fields", len(rec))
		}

		raw := strings.TrimSpace(rec[valueCol])
		if raw == "" || raw == "NA" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, t.errorf("parse %s %q: %v", PercentileColumn(percentile), raw, err)
		}
		cutoffs.Set(strings.TrimSpace(rec[yearCol]), rec[0], value)
	}
}
