// Package csvgz reads and writes the gzip-compressed CSV tables exchanged
// between aggregation stages.
package csvgz

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

// table is an open CSV file, gzip-decoded when the name ends in ".gz".
type table struct {
	path   string
	file   *os.File
	gz     *gzip.Reader
	reader *csv.Reader
	header []string
	index  map[string]int
	line   int
}

func openTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	t := &table{path: path, file: f}

	var src io.Reader = f
	if IsGzip(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		t.gz = gz
		src = gz
	}

	t.reader = csv.NewReader(src)
	t.reader.ReuseRecord = true

	header, err := t.reader.Read()
	if err != nil {
		t.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: missing header", path)
		}
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}
	t.line = 1
	t.header = append([]string(nil), header...)
	if len(t.header) > 0 {
		t.header[0] = strings.TrimPrefix(t.header[0], "\ufeff")
	}
	t.index = make(map[string]int, len(t.header))
	for i, h := range t.header {
		t.index[strings.TrimSpace(h)] = i
	}
	return t, nil
}

func (t *table) column(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, fmt.Errorf("%s: missing column %q", t.path, name)
	}
	return i, nil
}

func (t *table) next() ([]string, error) {
	rec, err := t.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%s: %w", t.path, err)
	}
	t.line++
	return rec, nil
}

func (t *table) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", t.path, t.line, fmt.Sprintf(format, args...))
}

func (t *table) Close() error {
	if t.gz != nil {
		t.gz.Close()
	}
	return t.file.Close()
}

// IsGzip reports whether a path names a gzip-compressed table.
func IsGzip(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// LocationField returns the first header field of a table, which names the
// geography the rows are keyed by.
func LocationField(path string) (string, error) {
	t, err := openTable(path)
	if err != nil {
		return "", err
	}
	defer t.Close()
	if len(t.header) == 0 || t.header[0] == "" {
		return "", fmt.Errorf("%s: empty first column name", path)
	}
	return t.header[0], nil
}

// DailyReader streams observations from a daily mean temperature table.
type DailyReader struct {
	t        *table
	dateCol  int
	valueCol int
}

// OpenDaily opens a daily table with a location column first and "date"
// and "value" columns.
func OpenDaily(path string) (*DailyReader, error) {
	t, err := openTable(path)
	if err != nil {
		return nil, err
	}
	dateCol, err := t.column("date")
	if err != nil {
		t.Close()
		return nil, err
	}
	valueCol, err := t.column("value")
	if err != nil {
		t.Close()
		return nil, err
	}
	return &DailyReader{t: t, dateCol: dateCol, valueCol: valueCol}, nil
}

// LocationField returns the name of the location column.
func (r *DailyReader) LocationField() string {
	return r.t.header[0]
}

// Next returns the next observation, or io.EOF at the end of the table.
// Malformed dates and values are errors; they are never skipped.
func (r *DailyReader) Next() (domain.Observation, error) {
	rec, err := r.t.next()
	if err != nil {
		return domain.Observation{}, err
	}
	if len(rec) <= r.dateCol || len(rec) <= r.valueCol {
		return domain.Observation{}, r.t.errorf("short row with %d fields", len(rec))
	}
	date, err := domain.ParseDate(strings.TrimSpace(rec[r.dateCol]))
	if err != nil {
		return domain.Observation{}, r.t.errorf("%v", err)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(rec[r.valueCol]), 64)
	if err != nil {
		return domain.Observation{}, r.t.errorf("parse value %q: %v", rec[r.valueCol], err)
	}
	return domain.Observation{
		Location: rec[0],
		Date:     date,
		Value:    value,
	}, nil
}

// Line returns the number of lines consumed so far, header included.
func (r *DailyReader) Line() int {
	return r.t.line
}

// Close releases the underlying file.
func (r *DailyReader) Close() error {
	return r.t.Close()
}
