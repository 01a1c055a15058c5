package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds every option a sweep run needs once all sources are merged.
type Config struct {
	Sweep    SweepConfig    `koanf:"sweep"`
	Logging  LoggingConfig  `koanf:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Progress ProgressConfig `koanf:"progress"`
}

// SweepConfig names the sweep inputs and outputs.
type SweepConfig struct {
	BaseURL     string `koanf:"baseUrl"`
	TargetsFile string `koanf:"targetsFile"`
	// ExportFile selects export mode when set; empty means a table on stdout.
	ExportFile  string `koanf:"exportFile"`
	Concurrency int    `koanf:"concurrency"`
}

// LoggingConfig expresses log level and format.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig points at an optional Prometheus textfile written after the sweep.
type MetricsConfig struct {
	File string `koanf:"file"`
}

type ProgressConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Exporting reports whether results go to a JSON file rather than a table.
func (c SweepConfig) Exporting() bool {
	return strings.TrimSpace(c.ExportFile) != ""
}

// Validate enforces the invariants a sweep needs before any request is sent.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config: nil")
	}
	if strings.TrimSpace(c.Sweep.BaseURL) == "" {
		return errors.New("config: sweep.baseUrl required (--base-url)")
	}
	if strings.TrimSpace(c.Sweep.TargetsFile) == "" {
		return errors.New("config: sweep.targetsFile required (--targets)")
	}
	if c.Sweep.Concurrency < 1 {
		return fmt.Errorf("config: sweep.concurrency invalid: %d", c.Sweep.Concurrency)
	}
	return nil
}

// DefaultConfig returns the baseline values applied before any file, env or flag.
func DefaultConfig() Config {
	return Config{
		Sweep: SweepConfig{
			Concurrency: 1,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Progress: ProgressConfig{
			Enabled: true,
		},
	}
}
