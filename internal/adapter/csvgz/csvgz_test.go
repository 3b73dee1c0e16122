package csvgz

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

func writeGzip(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func readAllDaily(t *testing.T, r *DailyReader) ([]domain.Observation, error) {
	t.Helper()
	var out []domain.Observation
	for {
		o, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, o)
	}
}

func TestOpenDaily(t *testing.T) {
	path := writeGzip(t, "mean_tmax.csv.gz", "GEOID10,date,value\n25025,20200101,-1.5\n25025,20200102,3\n")

	r, err := OpenDaily(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "GEOID10", r.LocationField())
	obs, err := readAllDaily(t, r)
	require.NoError(t, err)
	assert.Equal(t, []domain.Observation{
		{Location: "25025", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Value: -1.5},
		{Location: "25025", Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Value: 3},
	}, obs)
	assert.Equal(t, 3, r.Line())
}

func TestOpenDaily_PlainCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mean_tmin.csv")
	require.NoError(t, os.WriteFile(path, []byte("\ufeffzcta,value,date\n02138,7.25,20200704\n"), 0o644))

	r, err := OpenDaily(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "zcta", r.LocationField())
	obs, err := readAllDaily(t, r)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, "02138", obs[0].Location)
	assert.InDelta(t, 7.25, obs[0].Value, 1e-9)
}

func TestOpenDaily_MalformedRowsFail(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{"bad date", "GEOID,date,value\nA,2020-01-01,1\n", ":2: parse date"},
		{"short date", "GEOID,date,value\nA,2020011,1\n", "want YYYYMMDD"},
		{"non-numeric value", "GEOID,date,value\nA,20200101,1\nA,20200102,warm\n", ":3: parse value"},
		{"empty value", "GEOID,date,value\nA,20200101,\n", "parse value"},
		{"ragged row", "GEOID,date,value\nA,20200101\n", "wrong number of fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := OpenDaily(writeGzip(t, "daily.csv.gz", tt.content))
			require.NoError(t, err)
			defer r.Close()

			_, err = readAllDaily(t, r)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestOpenDaily_MissingColumns(t *testing.T) {
	_, err := OpenDaily(writeGzip(t, "daily.csv.gz", "GEOID,day,value\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "date"`)

	_, err = OpenDaily(writeGzip(t, "daily.csv.gz", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing header")

	_, err = OpenDaily(filepath.Join(t.TempDir(), "absent.csv.gz"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadCutoffs(t *testing.T) {
	path := writeGzip(t, "tmax_quantiles.csv.gz", strings.Join([]string{
		"GEOID,year,pctile01,pctile99",
		"A,2020,-10.5,30.25",
		"B,2020,NA,31",
		"A,2021,-11,29",
		"C,2021,,28",
	}, "\n")+"\n")

	low, err := ReadCutoffs(path, 1)
	require.NoError(t, err)
	v, ok := low.Lookup("2020", "A")
	require.True(t, ok)
	assert.InDelta(t, -10.5, v, 1e-9)
	_, ok = low.Lookup("2020", "B")
	assert.False(t, ok, "NA cells are missing entries")
	_, ok = low.Lookup("2021", "C")
	assert.False(t, ok, "empty cells are missing entries")
	assert.Equal(t, 2, low.Len())

	high, err := ReadCutoffs(path, 99)
	require.NoError(t, err)
	assert.Equal(t, 4, high.Len())

	_, err = ReadCutoffs(path, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "pctile05"`)
}

func TestReadCutoffs_BadValue(t *testing.T) {
	path := writeGzip(t, "q.csv.gz", "GEOID,year,pctile10\nA,2020,cold\n")
	_, err := ReadCutoffs(path, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pctile10")
}

func TestPercentileColumn(t *testing.T) {
	assert.Equal(t, "pctile01", PercentileColumn(1))
	assert.Equal(t, "pctile15", PercentileColumn(15))
	assert.Equal(t, "pctile99", PercentileColumn(99))
}

func TestLocationField(t *testing.T) {
	field, err := LocationField(writeGzip(t, "q.csv.gz", "tract,year,pctile01\n"))
	require.NoError(t, err)
	assert.Equal(t, "tract", field)
}

func TestTableWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extreme_temps.csv.gz")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := NewTableWriter(f, true)
	require.NoError(t, w.WriteHeader(domain.OutputColumns("GEOID")))
	want := []domain.WaveRow{
		{Location: "A", Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Label: domain.Cold, WaveID: 1, Length: 2, Index: 1},
		{Location: "A", Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Label: domain.Cold, WaveID: 1, Length: 2, Index: 2},
		{Location: "B", Date: time.Date(2020, 7, 4, 0, 0, 0, 0, time.UTC), Label: domain.Hot, WaveID: 2, Length: 1, Index: 1},
	}
	require.NoError(t, w.WriteWave(want[:2]))
	require.NoError(t, w.WriteWave(want[2:]))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	assert.Equal(t, 3, w.Rows())

	got, field, err := ReadWaveRows(path)
	require.NoError(t, err)
	assert.Equal(t, "GEOID", field)
	assert.Equal(t, want, got)
}

func TestTableWriter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	w := NewTableWriter(&buf, false)
	require.NoError(t, w.WriteHeader(domain.OutputColumns("county")))
	require.NoError(t, w.WriteWave([]domain.WaveRow{
		{Location: "01001", Date: time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC), Label: domain.Cold, WaveID: 7, Length: 1, Index: 1},
	}))
	require.NoError(t, w.Close())

	assert.Equal(t,
		"county,year,month,day,extreme,wave_id,wave_length,wave_index\n01001,2019,12,31,cold,7,1,1\n",
		buf.String())
}

func TestReadWaveRows_Invalid(t *testing.T) {
	_, _, err := ReadWaveRows(writeGzip(t, "out.csv.gz", "GEOID,year,month,day,extreme,wave_id,wave_length\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wave_index")

	_, _, err = ReadWaveRows(writeGzip(t, "out.csv.gz",
		"GEOID,year,month,day,extreme,wave_id,wave_length,wave_index\nA,2020,2,30,cold,1,1,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")

	_, _, err = ReadWaveRows(writeGzip(t, "out.csv.gz",
		"GEOID,year,month,day,extreme,wave_id,wave_length,wave_index\nA,2020,2,3,warm,1,1,1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown extreme")
}
