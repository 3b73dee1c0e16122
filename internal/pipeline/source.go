package pipeline

import (
	"github.com/schwartzgroup/daymet-aggregation/internal/adapter/csvgz"
	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

// ObservationReader streams daily observations from one table.
type ObservationReader interface {
	LocationField() string
	// Next returns io.EOF after the last observation.
	Next() (domain.Observation, error)
	Close() error
}

// Source opens the input tables of a job.
type Source interface {
	OpenDaily(path string) (ObservationReader, error)
	ReadCutoffs(path string, percentile int) (domain.CutoffTable, error)
}

// FileSource reads CSV tables from disk, gzip-compressed or plain.
type FileSource struct{}

func (FileSource) OpenDaily(path string) (ObservationReader, error) {
	r, err := csvgz.OpenDaily(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (FileSource) ReadCutoffs(path string, percentile int) (domain.CutoffTable, error) {
	return csvgz.ReadCutoffs(path, percentile)
}
