// Package config loads the helios YAML configuration and applies environment
// variable overrides.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"helios/internal/domain"
	"helios/internal/signal"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the helios platform.
type Config struct {
	Storage  Storage           `yaml:"storage"`
	Server   Server            `yaml:"server"`
	Alpaca   Alpaca            `yaml:"alpaca"`
	Logging  Logging           `yaml:"logging"`
	Gather   GatherConfig      `yaml:"gather"`
	Backtest BacktestDefaults  `yaml:"backtest"`
	Signal   signal.Thresholds `yaml:"signal"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Alpaca holds credentials and endpoints for the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// GatherConfig controls historical data gathering.
type GatherConfig struct {
	Symbols         []string `yaml:"symbols"`
	StartDate       string   `yaml:"start_date"`
	BatchSize       int      `yaml:"batch_size"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
}

// BacktestDefaults supplies run parameters when the caller does not override
// them per request.
type BacktestDefaults struct {
	InitialCapital float64           `yaml:"initial_capital"`
	Mode           string            `yaml:"mode"`
	Symbols        []string          `yaml:"symbols"`
	Risk           domain.RiskParams `yaml:"risk"`
}

// Thresholds returns the configured signal thresholds, falling back to the
// standard policy boundaries when the section is absent.
func (c *Config) Thresholds() signal.Thresholds {
	if c.Signal == (signal.Thresholds{}) {
		return signal.DefaultThresholds()
	}
	return c.Signal
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Standard Alpaca env vars (highest priority — canonical names used by SDK).
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
