package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Narrative provider strategies. The provider is chosen before a run starts;
// the engine never falls back from one to another at call time.
const (
	ProviderGemini = "gemini"
	ProviderReplay = "replay"
)

type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Narrative  NarrativeConfig  `yaml:"narrative"`
	Store      StoreConfig      `yaml:"store"`
	NATS       NATSConfig       `yaml:"nats"`
	Web        WebConfig        `yaml:"web"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

type SimulationConfig struct {
	ProfilesPath     string        `yaml:"profiles"`
	Runs             int           `yaml:"runs"`
	Rounds           int           `yaml:"rounds"`
	Seed             int64         `yaml:"seed"`
	CallBudget       int           `yaml:"call_budget"`
	ThrottleInterval time.Duration `yaml:"throttle_interval"`
	MinTeamSize      int           `yaml:"min_team_size"`
	MaxTeamSize      int           `yaml:"max_team_size"`
}

// NarrativeConfig selects and parameterizes the generative-text provider.
// Model and Temperature are passed through to the provider unmodified.
type NarrativeConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	APIKey      string  `yaml:"api_key"`
	Endpoint    string  `yaml:"endpoint"`
	ReplayPath  string  `yaml:"replay_path"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type NATSConfig struct {
	Port    int    `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Auth    string `yaml:"auth"`
}

type SchedulerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Error reports an invalid or missing configuration value. It is fatal
// before the first round of a run starts.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

func defaults() Config {
	return Config{
		Simulation: SimulationConfig{
			Runs:             5,
			Rounds:           3,
			Seed:             42,
			CallBudget:       10,
			ThrottleInterval: 1 * time.Second,
			MinTeamSize:      2,
			MaxTeamSize:      4,
		},
		Narrative: NarrativeConfig{
			Provider:    ProviderGemini,
			Model:       "gemini-flash-latest",
			Temperature: 0.9,
		},
		Store: StoreConfig{
			Path: "data/hacksim.db",
		},
		NATS: NATSConfig{
			Port:    4222,
			DataDir: "data/nats",
		},
		Web: WebConfig{
			Enabled: true,
			Port:    8080,
		},
		Scheduler: SchedulerConfig{
			PollInterval: 30 * time.Second,
		},
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("HACKSIM_CONFIG")
	if path == "" {
		path = "config/hacksim.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found, use defaults + env
	} else {
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Narrative.APIKey = v
	}
	if v := os.Getenv("HACKSIM_PROFILES"); v != "" {
		cfg.Simulation.ProfilesPath = v
	}
	if v := os.Getenv("HACKSIM_NARRATIVE_PROVIDER"); v != "" {
		cfg.Narrative.Provider = v
	}
	if v := os.Getenv("HACKSIM_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("HACKSIM_WEB_PASSWORD"); v != "" {
		cfg.Web.Auth = v
	}
	if v := os.Getenv("HACKSIM_WEB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Web.Port = port
		}
	}
	if v := os.Getenv("HACKSIM_NATS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.NATS.Port = port
		}
	}
}

// ValidateSimulation checks the engine options. A zero CallBudget is legal:
// such a run completes immediately and the leaderboard is built from static
// profile attributes alone.
func ValidateSimulation(sim SimulationConfig) error {
	if sim.Runs < 1 {
		return &Error{Field: "simulation.runs", Reason: "must be at least 1"}
	}
	if sim.Rounds < 1 {
		return &Error{Field: "simulation.rounds", Reason: "must be at least 1"}
	}
	if sim.CallBudget < 0 {
		return &Error{Field: "simulation.call_budget", Reason: "must not be negative"}
	}
	if sim.ThrottleInterval < 0 {
		return &Error{Field: "simulation.throttle_interval", Reason: "must not be negative"}
	}
	if sim.MinTeamSize < 1 || sim.MaxTeamSize < sim.MinTeamSize {
		return &Error{Field: "simulation.min_team_size", Reason: "invalid team size range"}
	}
	return nil
}

// ValidateNarrative checks that the selected provider is fully configured.
func ValidateNarrative(n NarrativeConfig) error {
	switch n.Provider {
	case ProviderGemini:
		if n.APIKey == "" {
			return &Error{Field: "narrative.api_key", Reason: "GEMINI_API_KEY not set and no api_key configured"}
		}
		if n.Model == "" {
			return &Error{Field: "narrative.model", Reason: "model identifier is required"}
		}
	case ProviderReplay:
		if n.ReplayPath == "" {
			return &Error{Field: "narrative.replay_path", Reason: "replay provider requires a script path"}
		}
	default:
		return &Error{Field: "narrative.provider", Reason: fmt.Sprintf("unknown provider %q", n.Provider)}
	}
	return nil
}
