package pipeline_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
	"github.com/schwartzgroup/daymet-aggregation/internal/pipeline"
)

// Two tracts over six days of January 2020. Tract 25003 has no cutoffs, so
// its very cold and very warm days must never be reported.
const (
	tmaxDaily = `GEOID10,date,value
25001,20200101,-1
25001,20200102,-2
25001,20200103,5
25001,20200104,-3
25001,20200105,5
25001,20200106,5
25002,20200101,5
25002,20200102,5
25002,20200103,0
25002,20200104,5
25002,20200105,5
25002,20200106,-1
25003,20200101,-100
`
	tminDaily = `GEOID10,date,value
25001,20200101,10
25001,20200102,10
25001,20200103,25
25001,20200104,25
25001,20200105,10
25001,20200106,10
25002,20200101,21
25002,20200102,20
25002,20200103,10
25003,20200101,100
`
	tmaxQuantiles = `GEOID10,year,pctile01,pctile03
25001,2020,0,1
25002,2020,0,1
25003,2020,NA,NA
`
	tminQuantiles = `GEOID10,year,pctile97,pctile99
25001,2020,19,20
25002,2020,19,20
25003,2020,,
`
)

// wantRows is the table produced for the fixtures with cutoffs 1 and 99.
// 25002 on 20200103 equals its cold cutoff and 20200102 equals its hot
// cutoff, so neither is extreme.
var wantRows = [][]string{
	{"GEOID10", "year", "month", "day", "extreme", "wave_id", "wave_length", "wave_index"},
	{"25001", "2020", "1", "1", "cold", "1", "2", "1"},
	{"25001", "2020", "1", "2", "cold", "1", "2", "2"},
	{"25001", "2020", "1", "4", "cold", "2", "1", "1"},
	{"25002", "2020", "1", "6", "cold", "3", "1", "1"},
	{"25001", "2020", "1", "3", "hot", "4", "2", "1"},
	{"25001", "2020", "1", "4", "hot", "4", "2", "2"},
	{"25002", "2020", "1", "1", "hot", "5", "1", "1"},
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func readGzipRecords(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(gz)
	require.NoError(t, err)

	var records [][]string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		records = append(records, strings.Split(line, ","))
	}
	return records
}

// testJob writes the fixture tables into dir and returns a job over them.
func testJob(t *testing.T, dir string) pipeline.Job {
	t.Helper()
	job := pipeline.Job{
		TmaxPath:          filepath.Join(dir, "mean_tmax.csv.gz"),
		TmaxQuantilesPath: filepath.Join(dir, "tmax_quantiles.csv.gz"),
		ColdPercentile:    1,
		TminPath:          filepath.Join(dir, "mean_tmin.csv.gz"),
		TminQuantilesPath: filepath.Join(dir, "tmin_quantiles.csv.gz"),
		HotPercentile:     99,
		OutputPath:        filepath.Join(dir, "out", "extreme_temps_pctile01_pctile99.csv.gz"),
	}
	writeGzip(t, job.TmaxPath, tmaxDaily)
	writeGzip(t, job.TminPath, tminDaily)
	writeGzip(t, job.TmaxQuantilesPath, tmaxQuantiles)
	writeGzip(t, job.TminQuantilesPath, tminQuantiles)
	return job
}

// recordingLoader keeps every batch of summaries it receives.
type recordingLoader struct {
	mu    sync.Mutex
	name  string
	err   error
	waves []domain.WaveSummary
}

func (l *recordingLoader) Name() string { return l.name }

func (l *recordingLoader) LoadWaves(_ context.Context, waves []domain.WaveSummary) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waves = append(l.waves, waves...)
	return l.err
}
