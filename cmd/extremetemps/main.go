// Command extremetemps annotates daily temperature tables with cold and hot
// extreme-temperature waves.
//
// With explicit paths it writes one output table. Without them it scans the
// aggregation output tree and fills in every missing output for the
// configured cutoff pairs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	httpadapter "github.com/schwartzgroup/daymet-aggregation/internal/adapter/http"
	kafkaadapter "github.com/schwartzgroup/daymet-aggregation/internal/adapter/kafka"
	"github.com/schwartzgroup/daymet-aggregation/internal/adapter/postgres"
	"github.com/schwartzgroup/daymet-aggregation/internal/adapter/report"
	"github.com/schwartzgroup/daymet-aggregation/internal/config"
	"github.com/schwartzgroup/daymet-aggregation/internal/observability"
	"github.com/schwartzgroup/daymet-aggregation/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(flag.NewFlagSet("extremetemps", flag.ContinueOnError), args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}
	if err := opts.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, opts, cfg, logger, metrics); err != nil {
		logger.Error("extreme temperature extraction failed", "error", err)
		return 1
	}
	return 0
}

// execute wires the optional loaders and HTTP server around a pipeline and
// runs either the explicit job or the batch.
func execute(ctx context.Context, opts Options, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	loaders, workbook, closeLoaders, err := buildLoaders(ctx, opts, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLoaders()

	p := pipeline.New(pipeline.FileSource{}, logger, metrics, loaders...)

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	var runErr error
	if opts.Explicit() {
		runErr = runJob(ctx, p, opts.Job(), metrics)
	} else {
		runErr = runBatch(ctx, p, opts, cfg, logger, metrics)
	}

	if workbook != nil {
		if err := workbook.Save(opts.ReportPath); err != nil {
			runErr = errors.Join(runErr, err)
		} else {
			logger.Info("report written", "path", opts.ReportPath, "waves", workbook.Len())
		}
	}
	return runErr
}

func runJob(ctx context.Context, p *pipeline.Pipeline, job pipeline.Job, metrics *observability.Metrics) error {
	if _, err := p.Run(ctx, job); err != nil {
		metrics.Jobs.WithLabelValues("failed").Inc()
		return err
	}
	metrics.Jobs.WithLabelValues("generated").Inc()
	return nil
}

func runBatch(ctx context.Context, p *pipeline.Pipeline, opts Options, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	var groups []pipeline.Group
	if opts.AutofillDir != "" {
		groups = []pipeline.Group{pipeline.NewGroup(opts.AutofillDir, cfg.Plan)}
	} else {
		var err error
		if groups, err = pipeline.DiscoverGroups(cfg.OutputRoot, cfg.Plan); err != nil {
			return err
		}
		if len(groups) == 0 {
			logger.Warn("no location groups found", "root", cfg.OutputRoot, "dir", cfg.Plan.ExtraDir)
			return nil
		}
	}

	res := pipeline.NewBatch(p, cfg.Plan, logger, metrics).Run(ctx, groups)
	return res.Err()
}

// buildLoaders creates the enabled wave loaders. The returned close func
// releases all of them.
func buildLoaders(ctx context.Context, opts Options, cfg *config.Config, logger *slog.Logger) ([]pipeline.WaveLoader, *report.Workbook, func(), error) {
	var (
		loaders []pipeline.WaveLoader
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.WaveEventsEnabled {
		publisher := kafkaadapter.NewWavePublisher(cfg, logger)
		loaders = append(loaders, publisher)
		closers = append(closers, func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		})
		logger.Info("wave events enabled", "topic", cfg.KafkaWaveTopic, "brokers", cfg.KafkaBrokers)
	}

	if cfg.DatabaseURL != "" {
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		closers = append(closers, store.Close)
		if err := store.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, nil, err
		}
		loaders = append(loaders, store)
		logger.Info("wave store enabled")
	}

	var workbook *report.Workbook
	if opts.ReportPath != "" {
		workbook = report.NewWorkbook()
		loaders = append(loaders, workbook)
	}

	return loaders, workbook, closeAll, nil
}
