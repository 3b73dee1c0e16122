package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/schwartzgroup/daymet-aggregation/internal/adapter/fsutil"
	"github.com/schwartzgroup/daymet-aggregation/internal/config"
	"github.com/schwartzgroup/daymet-aggregation/internal/observability"
)

// ErrMissingInput is returned when a location group lacks one of its input tables.
var ErrMissingInput = errors.New("missing input file")

// JobRunner runs a single extraction job.
type JobRunner interface {
	Run(ctx context.Context, job Job) (Result, error)
}

// Group is one location group: a directory holding quantile tables and
// outputs, paired with the directory holding its daily tables.
type Group struct {
	Dir      string
	DailyDir string
}

// NewGroup pairs dir with its daily-table directory. For
// <root>/<extra>/<name> that is <root>/<combined>/<name>.
func NewGroup(dir string, plan config.Plan) Group {
	dir = filepath.Clean(dir)
	root := filepath.Dir(filepath.Dir(dir))
	return Group{
		Dir:      dir,
		DailyDir: filepath.Join(root, plan.CombinedDir, filepath.Base(dir)),
	}
}

// DiscoverGroups lists the group directories under <root>/<extra>, sorted by path.
func DiscoverGroups(root string, plan config.Plan) ([]Group, error) {
	matches, err := filepath.Glob(filepath.Join(root, plan.ExtraDir, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(matches)

	var groups []Group
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", m, err)
		}
		if info.IsDir() {
			groups = append(groups, NewGroup(m, plan))
		}
	}
	return groups, nil
}

// BatchResult lists what a batch produced.
type BatchResult struct {
	Generated []string
	Skipped   []string
	Failed    map[string]error
}

// Err joins every group failure, or returns nil when all groups succeeded.
func (r BatchResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	dirs := make([]string, 0, len(r.Failed))
	for dir := range r.Failed {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	errs := make([]error, 0, len(dirs))
	for _, dir := range dirs {
		errs = append(errs, fmt.Errorf("%s: %w", dir, r.Failed[dir]))
	}
	return errors.Join(errs...)
}

// Batch generates the outputs of every cutoff pair for a set of location groups.
type Batch struct {
	runner  JobRunner
	plan    config.Plan
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBatch creates a Batch that hands each job to runner.
func NewBatch(runner JobRunner, plan config.Plan, logger *slog.Logger, metrics *observability.Metrics) *Batch {
	return &Batch{runner: runner, plan: plan, logger: logger, metrics: metrics}
}

// Run processes groups in order. A failing group is recorded and the next
// group is attempted; cancellation stops the whole batch.
func (b *Batch) Run(ctx context.Context, groups []Group) BatchResult {
	res := BatchResult{Failed: make(map[string]error)}
	for _, g := range groups {
		if ctx.Err() != nil {
			res.Failed[g.Dir] = ctx.Err()
			continue
		}
		if err := b.runGroup(ctx, g, &res); err != nil {
			b.logger.Error("location group failed", "group", g.Dir, "error", err)
			res.Failed[g.Dir] = err
		}
	}
	b.logger.Info("batch complete",
		"groups", len(groups),
		"generated", len(res.Generated),
		"skipped", len(res.Skipped),
		"failed", len(res.Failed))
	return res
}

func (b *Batch) runGroup(ctx context.Context, g Group, res *BatchResult) error {
	tmax := filepath.Join(g.DailyDir, b.plan.TmaxFile)
	tmin := filepath.Join(g.DailyDir, b.plan.TminFile)
	tmaxQuantiles := filepath.Join(g.Dir, b.plan.TmaxQuantilesFile)
	tminQuantiles := filepath.Join(g.Dir, b.plan.TminQuantilesFile)

	for _, path := range []string{tmax, tmin, tmaxQuantiles, tminQuantiles} {
		if !fsutil.FileExists(path) {
			return fmt.Errorf("%w: %s", ErrMissingInput, path)
		}
	}

	for _, pair := range b.plan.CutoffPairs {
		output := filepath.Join(g.Dir, b.plan.OutputName(pair))
		if fsutil.FileExists(output) {
			b.logger.Info("output exists, skipping", "output", output)
			b.metrics.Jobs.WithLabelValues("skipped").Inc()
			res.Skipped = append(res.Skipped, output)
			continue
		}

		b.logger.Info("generating output", "output", output, "cutoffs", pair.String())
		_, err := b.runner.Run(ctx, Job{
			TmaxPath:          tmax,
			TmaxQuantilesPath: tmaxQuantiles,
			ColdPercentile:    pair.Cold,
			TminPath:          tmin,
			TminQuantilesPath: tminQuantiles,
			HotPercentile:     pair.Hot,
			OutputPath:        output,
		})
		if err != nil {
			b.metrics.Jobs.WithLabelValues("failed").Inc()
			return fmt.Errorf("cutoffs %s: %w", pair, err)
		}
		b.metrics.Jobs.WithLabelValues("generated").Inc()
		res.Generated = append(res.Generated, output)
	}
	return nil
}
