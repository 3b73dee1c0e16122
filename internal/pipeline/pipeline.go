package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/schwartzgroup/daymet-aggregation/internal/adapter/csvgz"
	"github.com/schwartzgroup/daymet-aggregation/internal/adapter/fsutil"
	"github.com/schwartzgroup/daymet-aggregation/internal/domain"
	"github.com/schwartzgroup/daymet-aggregation/internal/observability"
)

// ErrLocationFieldMismatch is returned when the tmax and tmin tables are
// keyed by different location columns.
var ErrLocationFieldMismatch = errors.New("tmax and tmin tables use different location columns")

// cancelCheckInterval is how many input rows are read between context checks.
const cancelCheckInterval = 1 << 16

// WaveLoader receives the summaries of every wave in a committed output.
type WaveLoader interface {
	Name() string
	LoadWaves(ctx context.Context, waves []domain.WaveSummary) error
}

// Job is one output file: cold waves from tmax against a low percentile,
// then hot waves from tmin against a high percentile.
type Job struct {
	TmaxPath          string
	TmaxQuantilesPath string
	ColdPercentile    int
	TminPath          string
	TminQuantilesPath string
	HotPercentile     int
	OutputPath        string
}

// Validate checks that every path is set and the percentiles are usable.
func (j Job) Validate() error {
	if j.TmaxPath == "" || j.TmaxQuantilesPath == "" || j.TminPath == "" || j.TminQuantilesPath == "" {
		return errors.New("job: input paths are required")
	}
	if j.OutputPath == "" {
		return errors.New("job: output path is required")
	}
	if j.ColdPercentile < 1 || j.ColdPercentile > 99 || j.HotPercentile < 1 || j.HotPercentile > 99 {
		return fmt.Errorf("job: percentiles %d/%d out of range 1-99", j.ColdPercentile, j.HotPercentile)
	}
	return nil
}

// PassResult describes one filter, sort and detect pass.
type PassResult struct {
	Label        domain.Label
	Observations int
	ExtremeDays  int
	Waves        int
	LastWaveID   int
	Duration     time.Duration
}

// Result describes a committed output file.
type Result struct {
	RunID         string
	OutputPath    string
	LocationField string
	Cold          PassResult
	Hot           PassResult
	Rows          int
	Duration      time.Duration
}

// Status is a snapshot of job progress, served on the status endpoint.
type Status struct {
	Running       bool   `json:"running"`
	CurrentOutput string `json:"current_output,omitempty"`
	Completed     int    `json:"completed"`
	Failed        int    `json:"failed"`
	LastRunID     string `json:"last_run_id,omitempty"`
	LastError     string `json:"last_error,omitempty"`
}

// Pipeline runs extraction jobs.
type Pipeline struct {
	source  Source
	loaders []WaveLoader
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	ready   atomic.Bool

	mu     sync.Mutex
	status Status
}

// New creates a Pipeline reading from source. Loaders run after each output
// is committed.
func New(source Source, logger *slog.Logger, metrics *observability.Metrics, loaders ...WaveLoader) *Pipeline {
	return &Pipeline{
		source:  source,
		loaders: loaders,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
}

// SetClock swaps the time source used for durations.
func (p *Pipeline) SetClock(c clockwork.Clock) {
	p.clock = c
}

// CheckReadiness returns nil once at least one job has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no extraction job has completed yet")
	}
	return nil
}

// Status returns the current job progress.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Run executes a job. The output only appears at job.OutputPath once both
// passes succeeded; on any error nothing is left behind.
func (p *Pipeline) Run(ctx context.Context, job Job) (Result, error) {
	p.mu.Lock()
	p.status.Running = true
	p.status.CurrentOutput = job.OutputPath
	p.mu.Unlock()

	res, err := p.run(ctx, job)

	p.mu.Lock()
	p.status.Running = false
	p.status.CurrentOutput = ""
	p.status.LastRunID = res.RunID
	if err != nil {
		p.status.Failed++
		p.status.LastError = err.Error()
	} else {
		p.status.Completed++
		p.status.LastError = ""
	}
	p.mu.Unlock()
	return res, err
}

func (p *Pipeline) run(ctx context.Context, job Job) (Result, error) {
	if err := job.Validate(); err != nil {
		return Result{}, err
	}
	start := p.clock.Now()
	res := Result{RunID: uuid.NewString(), OutputPath: job.OutputPath}
	logger := p.logger.With("run_id", res.RunID, "output", job.OutputPath)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	coldCutoffs, err := p.source.ReadCutoffs(job.TmaxQuantilesPath, job.ColdPercentile)
	if err != nil {
		return res, fmt.Errorf("read cold cutoffs: %w", err)
	}
	hotCutoffs, err := p.source.ReadCutoffs(job.TminQuantilesPath, job.HotPercentile)
	if err != nil {
		return res, fmt.Errorf("read hot cutoffs: %w", err)
	}
	logger.Info("cutoffs loaded",
		"cold_percentile", job.ColdPercentile, "cold_entries", coldCutoffs.Len(),
		"hot_percentile", job.HotPercentile, "hot_entries", hotCutoffs.Len())

	out, err := fsutil.CreateAtomic(job.OutputPath, 0o644)
	if err != nil {
		return res, fmt.Errorf("create output: %w", err)
	}
	defer out.Abort() //nolint:errcheck // no-op after Commit

	table := csvgz.NewTableWriter(out, csvgz.IsGzip(job.OutputPath))
	sink := &summarySink{
		table:   table,
		runID:   res.RunID,
		dataset: filepath.Base(job.OutputPath),
		metrics: p.metrics,
	}

	// The hot pass numbers its waves after the cold pass's last id, so the
	// cold pass must finish, final flush included, before it starts.
	res.Cold, res.LocationField, err = p.pass(ctx, logger, passInput{
		label:   domain.Cold,
		path:    job.TmaxPath,
		cutoffs: coldCutoffs,
		sink:    sink,
	})
	if err != nil {
		return res, fmt.Errorf("cold pass: %w", err)
	}
	res.Hot, _, err = p.pass(ctx, logger, passInput{
		label:         domain.Hot,
		path:          job.TminPath,
		cutoffs:       hotCutoffs,
		sink:          sink,
		waveIDStart:   res.Cold.LastWaveID,
		continues:     true,
		locationField: res.LocationField,
	})
	if err != nil {
		return res, fmt.Errorf("hot pass: %w", err)
	}

	if err := table.Close(); err != nil {
		return res, fmt.Errorf("finish output: %w", err)
	}
	if err := out.Commit(); err != nil {
		return res, fmt.Errorf("commit output: %w", err)
	}
	res.Rows = table.Rows()
	res.Duration = p.clock.Since(start)
	p.metrics.JobDuration.Observe(res.Duration.Seconds())

	logger.Info("output committed",
		"rows", res.Rows,
		"cold_waves", res.Cold.Waves,
		"hot_waves", res.Hot.Waves,
		"last_wave_id", res.Hot.LastWaveID,
		"duration", res.Duration)

	p.load(ctx, logger, sink.summaries)
	p.ready.Store(true)
	return res, nil
}

// passInput describes one extreme kind within a job.
type passInput struct {
	label       domain.Label
	path        string
	cutoffs     domain.CutoffTable
	sink        domain.TableSink
	waveIDStart int
	continues   bool
	// locationField, when set, is the column the input must be keyed by.
	locationField string
}

// pass streams one daily table through the filter, sorts the extreme days
// and runs them through a fresh detector.
func (p *Pipeline) pass(ctx context.Context, logger *slog.Logger, ps passInput) (PassResult, string, error) {
	start := p.clock.Now()
	res := PassResult{Label: ps.label}
	logger = logger.With("extreme", string(ps.label), "path", ps.path)

	r, err := p.source.OpenDaily(ps.path)
	if err != nil {
		return res, "", err
	}
	defer r.Close()

	field := r.LocationField()
	if ps.locationField != "" && field != ps.locationField {
		return res, field, fmt.Errorf("%w: %q and %q", ErrLocationFieldMismatch, ps.locationField, field)
	}

	cmp := domain.ComparisonFor(ps.label)
	var days []domain.ExtremeDay
	for {
		o, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, field, err
		}
		res.Observations++
		if res.Observations%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return res, field, err
			}
		}
		if domain.IsExtreme(o, ps.cutoffs, cmp) {
			days = append(days, domain.ExtremeDay{Location: o.Location, Date: o.Date, Label: ps.label})
		}
	}
	res.ExtremeDays = len(days)
	p.metrics.ObservationsRead.WithLabelValues(string(ps.label)).Add(float64(res.Observations))
	p.metrics.ExtremeDays.WithLabelValues(string(ps.label)).Add(float64(res.ExtremeDays))
	logger.Info("extreme days extracted", "observations", res.Observations, "extreme_days", res.ExtremeDays)

	sorted, err := domain.SortDays(days)
	if err != nil {
		return res, field, err
	}
	if err := ctx.Err(); err != nil {
		return res, field, err
	}

	detector, err := domain.NewDetector(domain.DetectorConfig{
		LocationField: field,
		Label:         ps.label,
		WaveIDStart:   ps.waveIDStart,
		Continue:      ps.continues,
	}, ps.sink)
	if err != nil {
		return res, field, err
	}
	if err := detector.Detect(sorted); err != nil {
		return res, field, err
	}

	res.LastWaveID = detector.LastWaveID()
	res.Waves = res.LastWaveID - ps.waveIDStart
	res.Duration = p.clock.Since(start)
	p.metrics.PassDuration.WithLabelValues(string(ps.label)).Observe(res.Duration.Seconds())
	logger.Info("waves detected", "waves", res.Waves, "last_wave_id", res.LastWaveID, "duration", res.Duration)
	return res, field, nil
}

// load hands the wave summaries to every loader. The output is already
// committed, so failures are logged and counted rather than returned.
func (p *Pipeline) load(ctx context.Context, logger *slog.Logger, waves []domain.WaveSummary) {
	for _, l := range p.loaders {
		if err := l.LoadWaves(ctx, waves); err != nil {
			logger.Error("wave loader failed", "loader", l.Name(), "waves", len(waves), "error", err)
			p.metrics.LoaderErrors.WithLabelValues(l.Name()).Inc()
			continue
		}
		logger.Debug("waves loaded", "loader", l.Name(), "waves", len(waves))
	}
}

// summarySink forwards the table to the output writer and keeps a summary
// of every wave for the loaders.
type summarySink struct {
	table     domain.TableSink
	runID     string
	dataset   string
	metrics   *observability.Metrics
	summaries []domain.WaveSummary
}

func (s *summarySink) WriteHeader(columns []string) error {
	return s.table.WriteHeader(columns)
}

func (s *summarySink) WriteWave(rows []domain.WaveRow) error {
	if err := s.table.WriteWave(rows); err != nil {
		return err
	}
	summary, err := domain.SummarizeWave(rows)
	if err != nil {
		return err
	}
	summary.RunID = s.runID
	summary.Dataset = s.dataset
	s.summaries = append(s.summaries, summary)

	label := string(summary.Label)
	s.metrics.WavesDetected.WithLabelValues(label).Inc()
	s.metrics.WaveLength.WithLabelValues(label).Observe(float64(summary.Length))
	return nil
}
