package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the process configuration shared by the tcgodds binaries.
type Config struct {
	Port          string        `env:"TCGODDS_PORT" envDefault:"8080"`
	Decks         string        `env:"TCGODDS_DECKS" envDefault:"decks.yaml"`
	Workers       int           `env:"TCGODDS_WORKERS" envDefault:"0"`
	MaxTrials     int           `env:"TCGODDS_MAX_TRIALS" envDefault:"1000000"`
	DefaultTrials int           `env:"TCGODDS_DEFAULT_TRIALS" envDefault:"10000"`
	Timeout       time.Duration `env:"TCGODDS_TIMEOUT" envDefault:"60s"`
	LogLevel      string        `env:"TCGODDS_LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Workers < 0 || cfg.MaxTrials < 0 {
		return Config{}, fmt.Errorf("config: negative workers (%d) or max trials (%d)", cfg.Workers, cfg.MaxTrials)
	}
	if cfg.DefaultTrials <= 0 {
		return Config{}, fmt.Errorf("config: default trials must be positive, got %d", cfg.DefaultTrials)
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// NewLogger builds a production zap logger at the given level ("debug", "info", ...).
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}
