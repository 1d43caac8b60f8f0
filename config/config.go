package config

import (
	"fmt"

	customerrors "fieldops-forecast/errors"

	"github.com/spf13/viper"
)

// Config holds the run settings read from .env and the environment.
type Config struct {
	OutputDir     string `mapstructure:"OUTPUT_DIR"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	ReportFormat  string `mapstructure:"REPORT_FORMAT"`
	MetricsAddr   string `mapstructure:"METRICS_ADDR"`
	PushURL       string `mapstructure:"PUSH_URL"`
	GridWorkers   int    `mapstructure:"GRID_WORKERS"`
	RandomSeed    int64  `mapstructure:"RANDOM_SEED"`
	HorizonMonths int    `mapstructure:"HORIZON_MONTHS"`
}

// ReportFormats are the accepted REPORT_FORMAT values.
var ReportFormats = map[string]bool{"text": true, "json": true, "csv": true}

// Load reads .env from the working directory, if present, and the
// environment.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile reads an optional env-style file, then the environment, which
// takes precedence.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("OUTPUT_DIR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REPORT_FORMAT", "text")
	v.SetDefault("METRICS_ADDR", "")
	v.SetDefault("PUSH_URL", "")
	v.SetDefault("GRID_WORKERS", 0)
	v.SetDefault("RANDOM_SEED", 42)
	v.SetDefault("HORIZON_MONTHS", 3)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings a run cannot start without.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required: %w", customerrors.ErrInvalidParameter)
	}
	if !ReportFormats[c.ReportFormat] {
		return fmt.Errorf("report format must be one of: text, json, csv (got: %s): %w", c.ReportFormat, customerrors.ErrInvalidParameter)
	}
	if c.HorizonMonths < 0 {
		return fmt.Errorf("HORIZON_MONTHS must not be negative (got: %d): %w", c.HorizonMonths, customerrors.ErrInvalidParameter)
	}
	if c.GridWorkers < 0 {
		return fmt.Errorf("GRID_WORKERS must not be negative (got: %d): %w", c.GridWorkers, customerrors.ErrInvalidParameter)
	}
	return nil
}
