package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCutoffs() CutoffTable {
	cutoffs := CutoffTable{}
	cutoffs.Set("2020", "A", -5.0)
	cutoffs.Set("2020", "B", 0.0)
	cutoffs.Set("2021", "A", -4.0)
	return cutoffs
}

func TestIsExtreme(t *testing.T) {
	cutoffs := testCutoffs()

	tests := []struct {
		name string
		obs  Observation
		cmp  Comparison
		want bool
	}{
		{"cold below cutoff", Observation{"A", date(t, "20200115"), -5.5}, LessThan, true},
		{"cold equal is not extreme", Observation{"A", date(t, "20200115"), -5.0}, LessThan, false},
		{"cold above cutoff", Observation{"A", date(t, "20200115"), -4.9}, LessThan, false},
		{"hot above cutoff", Observation{"B", date(t, "20200715"), 0.1}, GreaterThan, true},
		{"hot equal is not extreme", Observation{"B", date(t, "20200715"), 0.0}, GreaterThan, false},
		{"per-year cutoff", Observation{"A", date(t, "20210115"), -4.5}, LessThan, true},
		{"missing location is never cold", Observation{"Z", date(t, "20200115"), -1e90}, LessThan, false},
		{"missing year is never cold", Observation{"A", date(t, "19990115"), -1e90}, LessThan, false},
		{"missing location is never hot", Observation{"Z", date(t, "20200715"), 1e90}, GreaterThan, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExtreme(tt.obs, cutoffs, tt.cmp))
		})
	}
}

func TestCutoffTable_Threshold(t *testing.T) {
	cutoffs := testCutoffs()

	assert.InDelta(t, -5.0, cutoffs.Threshold("2020", "A", LessThan), 1e-9)
	assert.InDelta(t, -MissingCutoff, cutoffs.Threshold("2020", "Z", LessThan), 1)
	assert.InDelta(t, MissingCutoff, cutoffs.Threshold("2020", "Z", GreaterThan), 1)

	_, ok := cutoffs.Lookup("2022", "A")
	assert.False(t, ok)
	assert.Equal(t, 3, cutoffs.Len())
}

func TestFilter(t *testing.T) {
	obs := []Observation{
		{"A", date(t, "20200102"), -6},
		{"B", date(t, "20200101"), 1},
		{"A", date(t, "20200101"), -7},
		{"B", date(t, "20200102"), -1},
	}

	got := Filter(obs, testCutoffs(), LessThan, Cold)
	assert.Equal(t, []ExtremeDay{
		{Location: "A", Date: date(t, "20200102"), Label: Cold},
		{Location: "A", Date: date(t, "20200101"), Label: Cold},
		{Location: "B", Date: date(t, "20200102"), Label: Cold},
	}, got)

	assert.Empty(t, Filter(nil, testCutoffs(), LessThan, Cold))
}

func TestComparisonFor(t *testing.T) {
	assert.Equal(t, LessThan, ComparisonFor(Cold))
	assert.Equal(t, GreaterThan, ComparisonFor(Hot))
	assert.Equal(t, "<", LessThan.String())
	assert.Equal(t, ">", GreaterThan.String())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("20200229")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.February, 29, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, "20200229", FormatDate(d))
	assert.Equal(t, "2020", Year(d))

	for _, bad := range []string{"", "2020011", "2020-01-01", "20200230", "2020010a", "202001011"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 1, DaysBetween(date(t, "20201231"), date(t, "20210101")))
	assert.Equal(t, 2, DaysBetween(date(t, "20200228"), date(t, "20200301")))
	assert.Equal(t, 0, DaysBetween(date(t, "20200101"), date(t, "20200101")))
	assert.Equal(t, -3, DaysBetween(date(t, "20200104"), date(t, "20200101")))
	assert.Greater(t, DaysBetween(time.Time{}, date(t, "18000101")), 1)
}

func TestWaveRow_Record(t *testing.T) {
	r := row(t, "25025", "20200105", Hot, 12, 3, 2)
	assert.Equal(t, []string{"25025", "2020", "1", "5", "hot", "12", "3", "2"}, r.Record())
}

func TestSummarizeWave_UsesClock(t *testing.T) {
	frozen := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })

	summary, err := SummarizeWave([]WaveRow{row(t, "A", "20200101", Cold, 1, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, frozen, summary.DetectedAt)
}
