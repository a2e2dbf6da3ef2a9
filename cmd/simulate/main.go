package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tcgsim/battlesim/internal/bootstrap"
	"github.com/tcgsim/battlesim/internal/config"
	"github.com/tcgsim/battlesim/internal/report"
	"github.com/tcgsim/battlesim/internal/sim"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	matches    = flag.Int("matches", -1, "number of matches (overrides config)")
	seed       = flag.Uint64("seed", 0, "run seed (overrides config when non-zero)")
	workers    = flag.Int("workers", -1, "concurrent matches (overrides config)")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *matches >= 0 {
		cfg.Simulation.Matches = *matches
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}
	if *workers >= 0 {
		cfg.Simulation.Workers = *workers
	}

	logger, err := bootstrap.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("simulation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting simulation",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// An interrupt stops dispatching matches; the partial result is still reported.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := bootstrap.LoadCatalog(ctx, cfg.Catalog, logger)
	if err != nil {
		return err
	}
	harness, err := bootstrap.NewHarness(cfg, cat, nil, logger)
	if err != nil {
		return err
	}

	res, runErr := harness.Run(ctx, cfg.Simulation.Matches, cfg.Simulation.Archetypes)
	if res == nil {
		return runErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		logger.Warn("simulation interrupted, reporting partial result", zap.Int("recorded", res.Recorded()))
	}

	if cfg.Report.CSVPath != "" {
		if err := report.WriteCSVFile(cfg.Report.CSVPath, res); err != nil {
			return err
		}
		logger.Info("csv report written", zap.String("path", cfg.Report.CSVPath))
	}

	if cfg.Report.SQLitePath != "" {
		if err := saveRun(ctx, cfg.Report.SQLitePath, res, logger); err != nil {
			return err
		}
	}

	return report.WriteSummary(os.Stdout, res)
}

func saveRun(ctx context.Context, path string, res *sim.AggregateResult, logger *zap.Logger) error {
	store, err := report.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return err
	}
	// The run is saved even after an interrupt.
	runID := uuid.NewString()
	if err := store.SaveRun(context.WithoutCancel(ctx), runID, res); err != nil {
		return err
	}
	logger.Info("run saved", zap.String("path", path), zap.String("run_id", runID))
	return nil
}
