// Package config holds the server configuration and its YAML loader.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MatchConfig overrides round timings. Zero fields keep the built-in
// defaults.
type MatchConfig struct {
	RoundTimeSec  float64 `json:"round_time_sec,omitempty" yaml:"round_time_sec,omitempty"`
	FreezeTimeSec float64 `json:"freeze_time_sec,omitempty" yaml:"freeze_time_sec,omitempty"`
	WinScore      int     `json:"win_score,omitempty" yaml:"win_score,omitempty"`
}

// Config is the full server configuration.
type Config struct {
	ListenAddr string      `json:"listen_addr" yaml:"listen_addr"`
	TickRate   int         `json:"tick_rate" yaml:"tick_rate"`
	MapPath    string      `json:"map_path,omitempty" yaml:"map_path,omitempty"`
	LogLevel   string      `json:"log_level" yaml:"log_level"`
	Seed       int64       `json:"seed,omitempty" yaml:"seed,omitempty"`
	Match      MatchConfig `json:"match,omitempty" yaml:"match,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr: ":8080",
		TickRate:   60,
		LogLevel:   "info",
	}
}

// Load reads a YAML configuration file, layering it over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.TickRate < 10 || c.TickRate > 240 {
		return fmt.Errorf("tick_rate %d out of range [10,240]", c.TickRate)
	}
	if c.Match.RoundTimeSec < 0 || c.Match.FreezeTimeSec < 0 || c.Match.WinScore < 0 {
		return fmt.Errorf("match overrides must be non-negative")
	}
	return nil
}
