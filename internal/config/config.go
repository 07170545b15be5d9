// Package config provides unified configuration loading for ratingsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/ratingsim/internal/constants"
	"github.com/nvandessel/ratingsim/internal/experiment"
	"github.com/nvandessel/ratingsim/internal/simulation"
)

// DirName is the per-user directory holding the config file, the results
// archive and match traces.
const DirName = ".ratingsim"

// Config contains all ratingsim configuration settings.
type Config struct {
	// Simulation is the default run configuration used by `ratingsim run`.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Teams configures the team-composition experiment.
	Teams TeamsConfig `json:"teams" yaml:"teams"`

	// Logging contains settings for operational logging and match traces.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Store configures the results archive.
	Store StoreConfig `json:"store" yaml:"store"`

	// Telemetry configures OpenTelemetry tracing.
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
}

// SimulationConfig mirrors simulation.Config in file and environment form.
type SimulationConfig struct {
	Mode             string  `json:"mode" yaml:"mode" env:"RATINGSIM_MODE"`
	AgentCount       int     `json:"agent_count" yaml:"agent_count" env:"RATINGSIM_AGENT_COUNT"`
	TotalGames       int     `json:"total_games" yaml:"total_games" env:"RATINGSIM_TOTAL_GAMES"`
	PlacementGames   int     `json:"placement_games" yaml:"placement_games" env:"RATINGSIM_PLACEMENT_GAMES"`
	MinSkill         float64 `json:"min_skill" yaml:"min_skill" env:"RATINGSIM_MIN_SKILL"`
	SkillStep        float64 `json:"skill_step" yaml:"skill_step" env:"RATINGSIM_SKILL_STEP"`
	StartingRating   float64 `json:"starting_rating" yaml:"starting_rating" env:"RATINGSIM_STARTING_RATING"`
	PlacementKFactor float64 `json:"placement_k_factor" yaml:"placement_k_factor" env:"RATINGSIM_PLACEMENT_K"`
	SteadyKFactor    float64 `json:"steady_k_factor" yaml:"steady_k_factor" env:"RATINGSIM_STEADY_K"`
	ForcedWinRate    float64 `json:"forced_win_rate" yaml:"forced_win_rate" env:"RATINGSIM_FORCED_WIN_RATE"`

	// Seed fixes the random sequence. 0 draws a fresh seed for every run.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty" env:"RATINGSIM_SEED"`
}

// TeamsConfig configures the team-composition experiment.
type TeamsConfig struct {
	OwnSize            int     `json:"own_size" yaml:"own_size" env:"RATINGSIM_TEAM_OWN_SIZE"`
	OpponentSize       int     `json:"opponent_size" yaml:"opponent_size" env:"RATINGSIM_TEAM_OPPONENT_SIZE"`
	InterferenceChance float64 `json:"interference_chance" yaml:"interference_chance" env:"RATINGSIM_TEAM_INTERFERENCE"`
	Trials             int     `json:"trials" yaml:"trials" env:"RATINGSIM_TEAM_TRIALS"`
}

// LoggingConfig configures ratingsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables the match trace in TraceDir/matches.jsonl.
	// "trace" additionally logs every match to stderr.
	Level string `json:"level" yaml:"level" env:"RATINGSIM_LOG_LEVEL"`

	// TraceDir is where matches.jsonl is written.
	TraceDir string `json:"trace_dir" yaml:"trace_dir" env:"RATINGSIM_TRACE_DIR"`
}

// StoreConfig configures the SQLite results archive.
type StoreConfig struct {
	// Path is the database file. Runs are only written when requested.
	Path string `json:"path" yaml:"path" env:"RATINGSIM_DB"`
}

// TelemetryConfig configures OTLP trace export.
type TelemetryConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled" env:"RATINGSIM_OTEL_ENABLED"`
	Endpoint    string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" env:"RATINGSIM_OTEL_ENDPOINT"`
	ServiceName string `json:"service_name" yaml:"service_name" env:"RATINGSIM_OTEL_SERVICE_NAME"`
}

// Dir returns ~/.ratingsim, or .ratingsim when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	sim := simulation.DefaultConfig()
	teams := experiment.DefaultTeamConfig()
	dir := Dir()
	return &Config{
		Simulation: SimulationConfig{
			Mode:             string(sim.Mode),
			AgentCount:       sim.AgentCount,
			TotalGames:       sim.TotalGames,
			PlacementGames:   sim.PlacementGames,
			MinSkill:         sim.MinSkill,
			SkillStep:        sim.SkillStep,
			StartingRating:   sim.StartingRating,
			PlacementKFactor: sim.PlacementKFactor,
			SteadyKFactor:    sim.SteadyKFactor,
			ForcedWinRate:    sim.ForcedWinRate,
		},
		Teams: TeamsConfig{
			OwnSize:            teams.OwnSize,
			OpponentSize:       teams.OpponentSize,
			InterferenceChance: teams.InterferenceChance,
			Trials:             constants.DefaultTeamTrials,
		},
		Logging: LoggingConfig{
			Level:    "info",
			TraceDir: dir,
		},
		Store: StoreConfig{
			Path: filepath.Join(dir, "runs.db"),
		},
		Telemetry: TelemetryConfig{
			ServiceName: "ratingsim",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.ratingsim/config.yaml -> environment variables
func Load() (*Config, error) {
	return LoadPath("")
}

// LoadPath is Load with an explicit config file. An empty path falls back to
// ~/.ratingsim/config.yaml when it exists.
func LoadPath(path string) (*Config, error) {
	config := Default()

	if path == "" {
		candidate := filepath.Join(Dir(), "config.yaml")
		if _, statErr := os.Stat(candidate); statErr == nil {
			path = candidate
		}
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// ApplyEnv overrides fields from RATINGSIM_* environment variables. Unset
// variables leave the current values untouched.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ToSimulation converts the simulation section into an engine configuration.
func (c *Config) ToSimulation() simulation.Config {
	s := c.Simulation
	cfg := simulation.Config{
		Mode:             simulation.Mode(s.Mode),
		AgentCount:       s.AgentCount,
		TotalGames:       s.TotalGames,
		PlacementGames:   s.PlacementGames,
		MinSkill:         s.MinSkill,
		SkillStep:        s.SkillStep,
		StartingRating:   s.StartingRating,
		PlacementKFactor: s.PlacementKFactor,
		SteadyKFactor:    s.SteadyKFactor,
		ForcedWinRate:    s.ForcedWinRate,
	}
	if s.Seed != 0 {
		cfg = cfg.WithSeed(s.Seed)
	}
	return cfg
}

// ToTeams converts the teams section into an experiment configuration.
func (c *Config) ToTeams() experiment.TeamConfig {
	return experiment.TeamConfig{
		OwnSize:            c.Teams.OwnSize,
		OpponentSize:       c.Teams.OpponentSize,
		InterferenceChance: c.Teams.InterferenceChance,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := c.ToSimulation().Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	if err := c.ToTeams().Validate(); err != nil {
		return fmt.Errorf("teams: %w", err)
	}
	if c.Teams.Trials <= 0 {
		return fmt.Errorf("teams: trials must be positive, got %d", c.Teams.Trials)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		return fmt.Errorf("telemetry: service_name is required when enabled")
	}

	return nil
}
