package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CutoffPair is one (cold, hot) percentile combination generated in batch mode.
type CutoffPair struct {
	Cold int `yaml:"cold"`
	Hot  int `yaml:"hot"`
}

func (p CutoffPair) String() string {
	return fmt.Sprintf("%d:%d", p.Cold, p.Hot)
}

// Plan describes the directory layout scanned in batch mode and the outputs
// generated for each location group.
type Plan struct {
	// ExtraDir is the directory under the output root holding one directory
	// per location group with its quantile tables and outputs.
	ExtraDir string `yaml:"extra_dir"`
	// CombinedDir replaces ExtraDir in a group path to find its daily tables.
	CombinedDir string `yaml:"combined_dir"`

	TmaxFile          string `yaml:"tmax_file"`
	TminFile          string `yaml:"tmin_file"`
	TmaxQuantilesFile string `yaml:"tmax_quantiles_file"`
	TminQuantilesFile string `yaml:"tmin_quantiles_file"`

	// OutputTemplate is formatted with the cold then hot percentile.
	OutputTemplate string       `yaml:"output_template"`
	CutoffPairs    []CutoffPair `yaml:"cutoff_pairs"`
}

// DefaultPlan matches the layout written by the aggregation and quantile stages.
func DefaultPlan() Plan {
	return Plan{
		ExtraDir:          "extra",
		CombinedDir:       "aggregated-combined",
		TmaxFile:          "mean_tmax.csv.gz",
		TminFile:          "mean_tmin.csv.gz",
		TmaxQuantilesFile: "tmax_quantiles.csv.gz",
		TminQuantilesFile: "tmin_quantiles.csv.gz",
		OutputTemplate:    "extreme_temps_pctile%02d_pctile%02d.csv.gz",
		CutoffPairs: []CutoffPair{
			{Cold: 1, Hot: 99},
			{Cold: 3, Hot: 97},
			{Cold: 5, Hot: 95},
			{Cold: 10, Hot: 90},
			{Cold: 15, Hot: 85},
		},
	}
}

// LoadPlan reads a YAML plan file over the defaults. Fields left out of the
// file keep their default values.
func LoadPlan(path string) (Plan, error) {
	plan := DefaultPlan()
	data, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("read plan file: %w", err)
	}
	var overlay Plan
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return plan, fmt.Errorf("parse plan file %s: %w", path, err)
	}
	return mergePlan(plan, overlay), nil
}

func mergePlan(base, override Plan) Plan {
	if override.ExtraDir != "" {
		base.ExtraDir = override.ExtraDir
	}
	if override.CombinedDir != "" {
		base.CombinedDir = override.CombinedDir
	}
	if override.TmaxFile != "" {
		base.TmaxFile = override.TmaxFile
	}
	if override.TminFile != "" {
		base.TminFile = override.TminFile
	}
	if override.TmaxQuantilesFile != "" {
		base.TmaxQuantilesFile = override.TmaxQuantilesFile
	}
	if override.TminQuantilesFile != "" {
		base.TminQuantilesFile = override.TminQuantilesFile
	}
	if override.OutputTemplate != "" {
		base.OutputTemplate = override.OutputTemplate
	}
	if len(override.CutoffPairs) > 0 {
		base.CutoffPairs = override.CutoffPairs
	}
	return base
}

// Validate checks that the plan can produce distinct outputs.
func (p Plan) Validate() error {
	if p.ExtraDir == "" || p.CombinedDir == "" {
		return errors.New("plan: extra_dir and combined_dir are required")
	}
	if p.ExtraDir == p.CombinedDir {
		return errors.New("plan: extra_dir and combined_dir must differ")
	}
	if p.TmaxFile == "" || p.TminFile == "" || p.TmaxQuantilesFile == "" || p.TminQuantilesFile == "" {
		return errors.New("plan: input file names are required")
	}
	if strings.Count(p.OutputTemplate, "%") != 2 {
		return fmt.Errorf("plan: output_template %q needs two percentile verbs", p.OutputTemplate)
	}
	if len(p.CutoffPairs) == 0 {
		return errors.New("plan: at least one cutoff pair is required")
	}
	seen := make(map[string]bool)
	for _, pair := range p.CutoffPairs {
		if err := ValidatePercentile(pair.Cold); err != nil {
			return fmt.Errorf("plan: cutoff pair %s: %w", pair, err)
		}
		if err := ValidatePercentile(pair.Hot); err != nil {
			return fmt.Errorf("plan: cutoff pair %s: %w", pair, err)
		}
		name := p.OutputName(pair)
		if seen[name] {
			return fmt.Errorf("plan: duplicate output %s", name)
		}
		seen[name] = true
	}
	return nil
}

// OutputName returns the output file name for a cutoff pair.
func (p Plan) OutputName(pair CutoffPair) string {
	return fmt.Sprintf(p.OutputTemplate, pair.Cold, pair.Hot)
}

// ValidatePercentile checks that a percentile names a pctileNN column.
func ValidatePercentile(pct int) error {
	if pct < 1 || pct > 99 {
		return fmt.Errorf("percentile %d out of range 1-99", pct)
	}
	return nil
}
