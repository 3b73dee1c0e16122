// Command genmock writes a synthetic temperature dataset in the directory
// layout that extremetemps scans in batch mode: daily mean tmax and tmin
// tables under aggregated-combined/<group> and per-year quantile tables
// under extra/<group>.
//
// Usage:
//
//	go run ./cmd/genmock -root output -groups tracts_2010,zips -locations 25 -years 2015:2020
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/schwartzgroup/daymet-aggregation/internal/adapter/csvgz"
	"github.com/schwartzgroup/daymet-aggregation/internal/adapter/fsutil"
	"github.com/schwartzgroup/daymet-aggregation/internal/config"
	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

const locationField = "GEOID10"

type options struct {
	root      string
	groups    []string
	locations int
	firstYear int
	lastYear  int
	seed      int64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	root := flag.String("root", "output", "output root to create the dataset under")
	groups := flag.String("groups", "tracts", "comma-separated location group names")
	locations := flag.Int("locations", 10, "locations per group")
	years := flag.String("years", "2018:2020", "inclusive year range first:last")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	first, last, err := parseYears(*years)
	if err != nil {
		return err
	}
	if *locations < 1 {
		return fmt.Errorf("-locations must be positive")
	}

	opts := options{
		root:      *root,
		groups:    strings.Split(*groups, ","),
		locations: *locations,
		firstYear: first,
		lastYear:  last,
		seed:      *seed,
	}

	plan := config.DefaultPlan()
	for i, group := range opts.groups {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		rng := rand.New(rand.NewSource(opts.seed + int64(i)))
		ds := generate(rng, opts, 25000+i*1000)
		if err := ds.write(opts.root, group, plan); err != nil {
			return fmt.Errorf("group %s: %w", group, err)
		}
		log.Printf("%s: %d locations, %d days", group, opts.locations, len(ds.tmax)/opts.locations)
	}
	return nil
}

func parseYears(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("-years %q: want first:last", s)
	}
	first, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("-years: %w", err)
	}
	last, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("-years: %w", err)
	}
	if last < first {
		return 0, 0, fmt.Errorf("-years %q: last before first", s)
	}
	return first, last, nil
}

type dataset struct {
	tmax []domain.Observation
	tmin []domain.Observation
}

// generate draws a seasonal cycle with autocorrelated anomalies per
// location, so extreme days cluster into multi-day waves.
func generate(rng *rand.Rand, opts options, firstID int) dataset {
	var ds dataset
	start := time.Date(opts.firstYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(opts.lastYear+1, time.January, 1, 0, 0, 0, 0, time.UTC)

	for l := 0; l < opts.locations; l++ {
		loc := strconv.Itoa(firstID + l)
		offset := rng.NormFloat64() * 3
		anomaly := 0.0
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			season := -math.Cos(2 * math.Pi * float64(d.YearDay()) / 365.25)
			anomaly = 0.8*anomaly + rng.NormFloat64()*2.5
			mean := 12 + 14*season + offset + anomaly
			spread := 5 + rng.Float64()*4
			ds.tmax = append(ds.tmax, domain.Observation{Location: loc, Date: d, Value: round1(mean + spread)})
			ds.tmin = append(ds.tmin, domain.Observation{Location: loc, Date: d, Value: round1(mean - spread)})
		}
	}
	return ds
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (ds dataset) write(root, group string, plan config.Plan) error {
	dailyDir := filepath.Join(root, plan.CombinedDir, group)
	extraDir := filepath.Join(root, plan.ExtraDir, group)

	if err := writeDaily(filepath.Join(dailyDir, plan.TmaxFile), ds.tmax); err != nil {
		return err
	}
	if err := writeDaily(filepath.Join(dailyDir, plan.TminFile), ds.tmin); err != nil {
		return err
	}
	if err := writeQuantiles(filepath.Join(extraDir, plan.TmaxQuantilesFile), ds.tmax); err != nil {
		return err
	}
	return writeQuantiles(filepath.Join(extraDir, plan.TminQuantilesFile), ds.tmin)
}

func writeDaily(path string, obs []domain.Observation) error {
	records := make([][]string, 0, len(obs)+1)
	records = append(records, []string{locationField, "date", "value"})
	for _, o := range obs {
		records = append(records, []string{
			o.Location,
			domain.FormatDate(o.Date),
			strconv.FormatFloat(o.Value, 'f', -1, 64),
		})
	}
	return writeTable(path, records)
}

// writeQuantiles computes nearest-rank percentiles 1 to 99 for each
// location and year.
func writeQuantiles(path string, obs []domain.Observation) error {
	type key struct{ year, location string }
	values := make(map[key][]float64)
	for _, o := range obs {
		k := key{year: domain.Year(o.Date), location: o.Location}
		values[k] = append(values[k], o.Value)
	}
	keys := make([]key, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].location != keys[j].location {
			return keys[i].location < keys[j].location
		}
		return keys[i].year < keys[j].year
	})

	header := []string{locationField, "year"}
	for p := 1; p <= 99; p++ {
		header = append(header, csvgz.PercentileColumn(p))
	}
	records := [][]string{header}
	for _, k := range keys {
		vs := values[k]
		sort.Float64s(vs)
		rec := []string{k.location, k.year}
		for p := 1; p <= 99; p++ {
			i := int(math.Round(float64(p) / 100 * float64(len(vs)-1)))
			rec = append(rec, strconv.FormatFloat(vs[i], 'f', -1, 64))
		}
		records = append(records, rec)
	}
	return writeTable(path, records)
}

func writeTable(path string, records [][]string) error {
	f, err := fsutil.CreateAtomic(path, 0o644)
	if err != nil {
		return err
	}
	defer f.Abort() //nolint:errcheck // no-op after Commit

	gz := gzip.NewWriter(f)
	w := csv.NewWriter(gz)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Commit(); err != nil {
		return err
	}
	log.Printf("wrote %s (%d rows)", path, len(records)-1)
	return nil
}
