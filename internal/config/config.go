package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the simulator.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Match      MatchConfig      `mapstructure:"match"`
	Deck       DeckConfig       `mapstructure:"deck"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Report     ReportConfig     `mapstructure:"report"`
	Server     ServerConfig     `mapstructure:"server"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// SimulationConfig holds batch run configuration.
type SimulationConfig struct {
	Matches      int      `mapstructure:"matches"`
	Workers      int      `mapstructure:"workers"` // 0 = GOMAXPROCS
	Seed         uint64   `mapstructure:"seed"`    // 0 = time-derived
	Archetypes   []string `mapstructure:"archetypes"`
	Policy       string   `mapstructure:"policy"` // heuristic or random
	RecordReplay bool     `mapstructure:"record_replays"`
	ReplayDir    string   `mapstructure:"replay_dir"`
}

// MatchConfig holds the rules of a single match.
type MatchConfig struct {
	MaxTurns          int    `mapstructure:"max_turns"`
	MaxActionsPerTurn int    `mapstructure:"max_actions_per_turn"`
	OpeningHand       int    `mapstructure:"opening_hand"`
	PrizeCards        int    `mapstructure:"prize_cards"`
	PrizesPerKnockout int    `mapstructure:"prizes_per_knockout"`
	BenchSize         int    `mapstructure:"bench_size"`
	AttachLimit       int    `mapstructure:"attach_limit"` // negative = unlimited
	Rules             string `mapstructure:"rules"`        // standard or none
}

// DeckConfig holds deck builder configuration.
type DeckConfig struct {
	MinSize      int    `mapstructure:"min_size"`
	MaxSize      int    `mapstructure:"max_size"`
	MaxCopies    int    `mapstructure:"max_copies"`
	ProfilesFile string `mapstructure:"profiles_file"`
}

// CatalogConfig says where card definitions come from. DatabaseURL wins
// over Path when both are set.
type CatalogConfig struct {
	Path        string `mapstructure:"path"`
	DatabaseURL string `mapstructure:"database_url"`
}

// ReportConfig holds output configuration.
type ReportConfig struct {
	CSVPath    string `mapstructure:"csv_path"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// ServerConfig holds listener addresses.
type ServerConfig struct {
	GRPCAddress      string `mapstructure:"grpc_address"`
	WebSocketAddress string `mapstructure:"websocket_address"`
}

// Load reads configuration from path, if it exists, then from BATTLESIM_
// environment variables. An empty path uses defaults and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BATTLESIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("simulation.matches", 100)
	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.archetypes", []string{"Control", "Aggro", "Stall"})
	v.SetDefault("simulation.policy", "heuristic")
	v.SetDefault("simulation.record_replays", false)
	v.SetDefault("simulation.replay_dir", "replays")

	v.SetDefault("match.max_turns", 200)
	v.SetDefault("match.max_actions_per_turn", 20)
	v.SetDefault("match.opening_hand", 7)
	v.SetDefault("match.prize_cards", 6)
	v.SetDefault("match.prizes_per_knockout", 1)
	v.SetDefault("match.bench_size", 5)
	v.SetDefault("match.attach_limit", 1)
	v.SetDefault("match.rules", "standard")

	v.SetDefault("deck.min_size", 10)
	v.SetDefault("deck.max_size", 20)
	v.SetDefault("deck.max_copies", 2)
	v.SetDefault("deck.profiles_file", "")

	v.SetDefault("catalog.path", "card_data.json")
	v.SetDefault("catalog.database_url", "")

	v.SetDefault("report.csv_path", "archetype_performance.csv")
	v.SetDefault("report.sqlite_path", "")

	v.SetDefault("server.grpc_address", ":50051")
	v.SetDefault("server.websocket_address", ":8080")
}

// Validate rejects settings the simulator cannot run with.
func (c *Config) Validate() error {
	if c.Simulation.Matches < 0 {
		return fmt.Errorf("simulation.matches must not be negative")
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation.workers must not be negative")
	}
	if len(c.Simulation.Archetypes) == 0 {
		return fmt.Errorf("simulation.archetypes must not be empty")
	}
	if c.Deck.MinSize <= 0 || c.Deck.MaxSize < c.Deck.MinSize {
		return fmt.Errorf("deck size bounds [%d,%d] are invalid", c.Deck.MinSize, c.Deck.MaxSize)
	}
	switch c.Match.Rules {
	case "standard", "none":
	default:
		return fmt.Errorf("match.rules must be standard or none, got %q", c.Match.Rules)
	}
	return nil
}
