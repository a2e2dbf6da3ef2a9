// Package bootstrap turns a loaded configuration into the running pieces
// shared by the command line simulator and the server.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tcgsim/battlesim/internal/catalog"
	"github.com/tcgsim/battlesim/internal/config"
	"github.com/tcgsim/battlesim/internal/deck"
	"github.com/tcgsim/battlesim/internal/game"
	"github.com/tcgsim/battlesim/internal/policy"
	"github.com/tcgsim/battlesim/internal/sim"
)

// NewLogger initializes the zap logger based on configuration.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// LoadCatalog reads card definitions from Postgres when a database URL is
// configured, otherwise from the catalog file.
func LoadCatalog(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger) (*catalog.Catalog, error) {
	if cfg.DatabaseURL == "" {
		cat, err := catalog.LoadFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("catalog loaded", zap.String("path", cfg.Path), zap.Int("cards", cat.Len()))
		return cat, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}
	cat, err := catalog.LoadPostgres(ctx, pool)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded from database", zap.Int("cards", cat.Len()))
	return cat, nil
}

// RuleHook maps the match.rules setting to a hook.
func RuleHook(name string) (game.RuleHook, error) {
	switch name {
	case "", "standard":
		return game.StandardRules{}, nil
	case "none":
		return game.NoEffects{}, nil
	default:
		return nil, fmt.Errorf("unknown rules %q", name)
	}
}

// MatchConfig is the per-match template of a run.
func MatchConfig(cfg config.MatchConfig) (game.MatchConfig, error) {
	hook, err := RuleHook(cfg.Rules)
	if err != nil {
		return game.MatchConfig{}, err
	}
	return game.MatchConfig{
		MaxTurns:          cfg.MaxTurns,
		MaxActionsPerTurn: cfg.MaxActionsPerTurn,
		OpeningHand:       cfg.OpeningHand,
		PrizeCards:        cfg.PrizeCards,
		PrizesPerKnockout: cfg.PrizesPerKnockout,
		BenchSize:         cfg.BenchSize,
		AttachLimit:       cfg.AttachLimit,
		Hook:              hook,
	}, nil
}

// NewBuilder creates the deck builder with any profiles file applied.
func NewBuilder(cfg config.DeckConfig) (*deck.Builder, error) {
	var overrides []deck.Profile
	if cfg.ProfilesFile != "" {
		profiles, err := deck.LoadProfiles(cfg.ProfilesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load deck profiles: %w", err)
		}
		overrides = profiles
	}
	b := deck.NewBuilder(overrides...)
	b.MinSize = cfg.MinSize
	b.MaxSize = cfg.MaxSize
	if cfg.MaxCopies > 0 {
		b.MaxCopies = cfg.MaxCopies
	}
	return b, nil
}

// NewHarness wires a harness over cat from configuration. observer may be nil.
func NewHarness(cfg *config.Config, cat *catalog.Catalog, observer sim.Observer, logger *zap.Logger) (*sim.Harness, error) {
	builder, err := NewBuilder(cfg.Deck)
	if err != nil {
		return nil, err
	}
	policies, err := policy.ByName(cfg.Simulation.Policy)
	if err != nil {
		return nil, err
	}
	match, err := MatchConfig(cfg.Match)
	if err != nil {
		return nil, err
	}

	var recorder *game.ReplayRecorder
	if cfg.Simulation.RecordReplay {
		recorder = game.NewReplayRecorder(logger, cfg.Simulation.ReplayDir)
	}

	return sim.NewHarness(sim.NewCatalogDecks(builder, cat), sim.Options{
		Workers:  cfg.Simulation.Workers,
		Seed:     cfg.Simulation.Seed,
		Match:    match,
		Policies: policies,
		Observer: observer,
		Recorder: recorder,
		Logger:   logger,
	}), nil
}
