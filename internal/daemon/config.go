// Package daemon manages the BitBond daemon lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds all daemon configuration. File values can be overridden
// through BITBOND_* environment variables.
type Config struct {
	API       APIConfig       `toml:"api"`
	Chain     ChainConfig     `toml:"chain"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host string `toml:"host" env:"BITBOND_API_HOST"`
	Port int    `toml:"port" env:"BITBOND_API_PORT"`
}

// ChainConfig controls the logical clock.
type ChainConfig struct {
	// BlockInterval is how often the daemon advances the clock while
	// serving. "0" disables automatic production (heights then only
	// move via the chain advance endpoint or CLI).
	BlockInterval string `toml:"block_interval" env:"BITBOND_BLOCK_INTERVAL"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus" env:"BITBOND_PROMETHEUS"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level" env:"BITBOND_LOG_LEVEL"`
	Pretty bool   `toml:"pretty" env:"BITBOND_LOG_PRETTY"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7733,
		},
		Chain: ChainConfig{
			BlockInterval: "10m",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// LoadConfig reads config from $BITBOND_HOME/config.toml, falling back to
// defaults, then applies environment overrides.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(bitbondHome(), "config.toml")

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("env overrides: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the config to $BITBOND_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(bitbondHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// Interval parses the configured production interval, 0 if disabled.
func (c ChainConfig) Interval() time.Duration {
	if c.BlockInterval == "" || c.BlockInterval == "0" {
		return 0
	}
	d, err := time.ParseDuration(c.BlockInterval)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// SetupLogging configures the global zerolog logger from config.
func SetupLogging(cfg LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// bitbondHome returns the BitBond data directory.
func bitbondHome() string {
	if env := os.Getenv("BITBOND_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bitbond")
}

// BitbondHome is exported for use by other packages.
func BitbondHome() string {
	return bitbondHome()
}
