package csvgz

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

// TableWriter writes the wave table as CSV, optionally gzip-compressed.
// It implements domain.TableSink.
type TableWriter struct {
	gz   *gzip.Writer
	csv  *csv.Writer
	rows int
}

// NewTableWriter wraps w. Close must be called to flush buffered data; it
// does not close w.
func NewTableWriter(w io.Writer, compress bool) *TableWriter {
	tw := &TableWriter{}
	if compress {
		tw.gz = gzip.NewWriter(w)
		w = tw.gz
	}
	tw.csv = csv.NewWriter(w)
	return tw
}

func (w *TableWriter) WriteHeader(columns []string) error {
	return w.csv.Write(columns)
}

func (w *TableWriter) WriteWave(rows []domain.WaveRow) error {
	for _, r := range rows {
		if err := w.csv.Write(r.Record()); err != nil {
			return err
		}
	}
	w.rows += len(rows)
	return nil
}

// Rows returns the number of data rows written.
func (w *TableWriter) Rows() int {
	return w.rows
}

// Close flushes the CSV buffer and finishes the gzip stream.
func (w *TableWriter) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			return fmt.Errorf("close gzip: %w", err)
		}
	}
	return nil
}
