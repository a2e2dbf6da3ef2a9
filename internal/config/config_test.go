package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Simulation.Matches)
	assert.Equal(t, []string{"Control", "Aggro", "Stall"}, cfg.Simulation.Archetypes)
	assert.Equal(t, "heuristic", cfg.Simulation.Policy)
	assert.Equal(t, 200, cfg.Match.MaxTurns)
	assert.Equal(t, 20, cfg.Match.MaxActionsPerTurn)
	assert.Equal(t, 7, cfg.Match.OpeningHand)
	assert.Equal(t, 6, cfg.Match.PrizeCards)
	assert.Equal(t, 5, cfg.Match.BenchSize)
	assert.Equal(t, 10, cfg.Deck.MinSize)
	assert.Equal(t, 20, cfg.Deck.MaxSize)
	assert.Equal(t, 2, cfg.Deck.MaxCopies)
	assert.Equal(t, "archetype_performance.csv", cfg.Report.CSVPath)
	assert.Equal(t, ":50051", cfg.Server.GRPCAddress)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: debug
  format: json
simulation:
  matches: 500
  seed: 99
  archetypes: [Aggro, Stall]
match:
  max_turns: 80
`), 0o644))

	t.Setenv("BATTLESIM_SIMULATION_WORKERS", "3")
	t.Setenv("BATTLESIM_MATCH_MAX_TURNS", "60")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 500, cfg.Simulation.Matches)
	assert.Equal(t, uint64(99), cfg.Simulation.Seed)
	assert.Equal(t, []string{"Aggro", "Stall"}, cfg.Simulation.Archetypes)
	assert.Equal(t, 3, cfg.Simulation.Workers)
	assert.Equal(t, 60, cfg.Match.MaxTurns, "environment wins over the file")
	assert.Equal(t, 6, cfg.Match.PrizeCards)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Simulation.Matches)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("deck:\n  min_size: 30\n  max_size: 20\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("match:\n  rules: house\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
