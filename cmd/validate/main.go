// Command validate checks an extreme-temperature wave table. It verifies the
// wave structure of the table and, when the inputs are given, that every
// extreme day of the inputs appears in exactly one wave.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -table output/extra/tracts/extreme_temps_pctile01_pctile99.csv.gz \
//	  -tmax output/aggregated-combined/tracts/mean_tmax.csv.gz \
//	  -tmax-quantiles output/extra/tracts/tmax_quantiles.csv.gz -cold 1 \
//	  -tmin output/aggregated-combined/tracts/mean_tmin.csv.gz \
//	  -tmin-quantiles output/extra/tracts/tmin_quantiles.csv.gz -hot 99
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/schwartzgroup/daymet-aggregation/internal/adapter/csvgz"
	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	skipped bool
	errors  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type inputs struct {
	tmax, tmaxQuantiles string
	tmin, tminQuantiles string
	cold, hot           int
}

func (in inputs) given() bool {
	return in.tmax != "" && in.tmaxQuantiles != "" && in.tmin != "" && in.tminQuantiles != ""
}

func main() {
	table := flag.String("table", "", "wave table to validate")
	var in inputs
	flag.StringVar(&in.tmax, "tmax", "", "daily maximum temperature table used for the cold pass")
	flag.StringVar(&in.tmaxQuantiles, "tmax-quantiles", "", "tmax quantile table")
	flag.IntVar(&in.cold, "cold", 1, "cold cutoff percentile")
	flag.StringVar(&in.tmin, "tmin", "", "daily minimum temperature table used for the hot pass")
	flag.StringVar(&in.tminQuantiles, "tmin-quantiles", "", "tmin quantile table")
	flag.IntVar(&in.hot, "hot", 99, "hot cutoff percentile")
	flag.Parse()

	if *table == "" {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(os.Stdout, *table, in))
}

func run(out io.Writer, tablePath string, in inputs) int {
	fmt.Fprintln(out, "=== Extreme Temperature Wave Validation ===")
	fmt.Fprintln(out)

	rows, locationField, err := csvgz.ReadWaveRows(tablePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load wave table: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateWaves(rows),
		validateCoverage(rows, locationField, in),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "SKIPPED"
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	cold, hot := countWaves(rows)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d (%s), cold waves: %d, hot waves: %d\n", len(rows), locationField, cold, hot)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == 20 {
				fmt.Fprintf(out, "  ... and %d more\n", len(p.errors)-i)
				break
			}
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateWaves(rows []domain.WaveRow) *phase {
	p := &phase{name: "Wave structure"}
	for _, err := range domain.VerifyRows(rows) {
		p.errorf("%v", err)
	}
	return p
}

// validateCoverage recomputes the extreme days from the inputs and checks
// that the table holds exactly those days.
func validateCoverage(rows []domain.WaveRow, locationField string, in inputs) *phase {
	p := &phase{name: "Extreme day coverage"}
	if !in.given() {
		p.skipped = true
		return p
	}

	type dayKey struct {
		location string
		date     string
		label    domain.Label
	}
	want := make(map[dayKey]bool)
	for _, pass := range []struct {
		label      domain.Label
		daily      string
		quantiles  string
		percentile int
	}{
		{domain.Cold, in.tmax, in.tmaxQuantiles, in.cold},
		{domain.Hot, in.tmin, in.tminQuantiles, in.hot},
	} {
		days, field, err := extremeDays(pass.daily, pass.quantiles, pass.percentile, pass.label)
		if err != nil {
			p.errorf("%s inputs: %v", pass.label, err)
			return p
		}
		if field != locationField {
			p.errorf("%s: location column %q, table uses %q", pass.daily, field, locationField)
		}
		for _, d := range days {
			want[dayKey{d.Location, domain.FormatDate(d.Date), d.Label}] = true
		}
	}

	seen := make(map[dayKey]bool, len(rows))
	for i, r := range rows {
		k := dayKey{r.Location, domain.FormatDate(r.Date), r.Label}
		if seen[k] {
			p.errorf("row %d: %s %s %s appears twice", i+1, k.location, k.date, k.label)
		}
		seen[k] = true
		if !want[k] {
			p.errorf("row %d: %s %s is not a %s day in the inputs", i+1, k.location, k.date, k.label)
		}
	}
	for k := range want {
		if !seen[k] {
			p.errorf("%s %s %s is missing from the table", k.location, k.date, k.label)
		}
	}
	return p
}

func extremeDays(dailyPath, quantilesPath string, percentile int, label domain.Label) ([]domain.ExtremeDay, string, error) {
	cutoffs, err := csvgz.ReadCutoffs(quantilesPath, percentile)
	if err != nil {
		return nil, "", err
	}
	r, err := csvgz.OpenDaily(dailyPath)
	if err != nil {
		return nil, "", err
	}
	defer r.Close()

	var obs []domain.Observation
	for {
		o, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", err
		}
		obs = append(obs, o)
	}
	return domain.Filter(obs, cutoffs, domain.ComparisonFor(label), label), r.LocationField(), nil
}

func countWaves(rows []domain.WaveRow) (cold, hot int) {
	seen := make(map[int]bool)
	for _, r := range rows {
		if seen[r.WaveID] {
			continue
		}
		seen[r.WaveID] = true
		if r.Label == domain.Cold {
			cold++
		} else {
			hot++
		}
	}
	return cold, hot
}
