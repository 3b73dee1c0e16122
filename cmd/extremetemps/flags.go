package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schwartzgroup/daymet-aggregation/internal/config"
	"github.com/schwartzgroup/daymet-aggregation/internal/pipeline"
)

// Options selects between one explicit job and batch autofill.
type Options struct {
	TmaxPath          string
	TmaxQuantilesPath string
	ColdPercentile    int
	TminPath          string
	TminQuantilesPath string
	HotPercentile     int
	OutputPath        string

	// AutofillDir restricts batch mode to a single location group.
	AutofillDir string
	// ReportPath, when set, receives an XLSX summary of every wave produced.
	ReportPath string
}

func defaultOptions() Options {
	return Options{ColdPercentile: 1, HotPercentile: 99}
}

// Explicit reports whether every path of a single job was given.
func (o Options) Explicit() bool {
	return o.TmaxPath != "" && o.TmaxQuantilesPath != "" &&
		o.TminPath != "" && o.TminQuantilesPath != "" && o.OutputPath != ""
}

func (o Options) anyPath() bool {
	return o.TmaxPath != "" || o.TmaxQuantilesPath != "" ||
		o.TminPath != "" || o.TminQuantilesPath != "" || o.OutputPath != ""
}

func (o Options) Validate() error {
	if o.anyPath() && !o.Explicit() {
		return errors.New("a single job needs -tmax, -tmax-quantiles, -tmin, -tmin-quantiles and -output")
	}
	if o.Explicit() && o.AutofillDir != "" {
		return errors.New("-autofill-args cannot be combined with explicit paths")
	}
	if err := config.ValidatePercentile(o.ColdPercentile); err != nil {
		return fmt.Errorf("-tmax-cutoff-quantile: %w", err)
	}
	if err := config.ValidatePercentile(o.HotPercentile); err != nil {
		return fmt.Errorf("-tmin-cutoff-quantile: %w", err)
	}
	return nil
}

// Job returns the explicit job described by the flags.
func (o Options) Job() pipeline.Job {
	return pipeline.Job{
		TmaxPath:          o.TmaxPath,
		TmaxQuantilesPath: o.TmaxQuantilesPath,
		ColdPercentile:    o.ColdPercentile,
		TminPath:          o.TminPath,
		TminQuantilesPath: o.TminQuantilesPath,
		HotPercentile:     o.HotPercentile,
		OutputPath:        o.OutputPath,
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Options, error) {
	opts := defaultOptions()

	stringFlag := func(p *string, short, long, usage string) {
		fs.StringVar(p, short, *p, usage)
		fs.StringVar(p, long, *p, usage)
	}
	intFlag := func(p *int, short, long, usage string) {
		fs.IntVar(p, short, *p, usage)
		fs.IntVar(p, long, *p, usage)
	}

	stringFlag(&opts.TmaxPath, "T", "tmax", "Daily maximum temperature table")
	stringFlag(&opts.TmaxQuantilesPath, "M", "tmax-quantiles", "Quantile table for maximum temperature")
	intFlag(&opts.ColdPercentile, "C", "tmax-cutoff-quantile", "Percentile below which tmax marks a cold day")
	stringFlag(&opts.TminPath, "t", "tmin", "Daily minimum temperature table")
	stringFlag(&opts.TminQuantilesPath, "m", "tmin-quantiles", "Quantile table for minimum temperature")
	intFlag(&opts.HotPercentile, "c", "tmin-cutoff-quantile", "Percentile above which tmin marks a hot day")
	stringFlag(&opts.OutputPath, "o", "output", "Output table (.csv or .csv.gz)")
	stringFlag(&opts.AutofillDir, "a", "autofill-args", "Only fill in outputs for this location group directory")
	fs.StringVar(&opts.ReportPath, "report", "", "Write an XLSX summary of the detected waves to this path")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nWithout explicit paths every group under $OUTPUT_ROOT/extra is filled in.")
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  extremetemps -T mean_tmax.csv.gz -M tmax_quantiles.csv.gz -t mean_tmin.csv.gz -m tmin_quantiles.csv.gz -o waves.csv.gz")
		fmt.Fprintln(fs.Output(), "  extremetemps -a output/extra/tracts_2010 -report waves.xlsx")
	}

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if fs.NArg() > 0 {
		return Options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}
