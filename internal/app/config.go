package app

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/specialistvlad/extreg/internal/tracing"
)

var (
	logFormats = []string{"text", "json", "pretty"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Paths are descriptor files or directories.
	Paths []string `mapstructure:"paths"`

	LogFormat       string `mapstructure:"log_format"`
	LogLevel        string `mapstructure:"log_level"`
	HealthcheckPort int    `mapstructure:"healthcheck_port"`

	Watch         bool          `mapstructure:"watch"`
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`

	// CacheTTL bounds how long a graph is reused for an unchanged
	// descriptor set.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// HistoryPath enables the snapshot history database when set.
	HistoryPath string `mapstructure:"history_path"`

	// Extensions holds per-extension options, merged with the extension
	// blocks found in descriptor files.
	Extensions map[string]map[string]any `mapstructure:"extensions"`

	Tracing tracing.Config `mapstructure:"tracing"`
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		LogFormat:     "text",
		LogLevel:      "info",
		WatchDebounce: 250 * time.Millisecond,
		CacheTTL:      10 * time.Minute,
		Tracing:       tracing.DefaultConfig(),
	}
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one descriptor path is required")
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log-format %q: must be one of %v", cfg.LogFormat, logFormats)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log-level %q: must be one of %v", cfg.LogLevel, logLevels)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port %d", cfg.HealthcheckPort)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	return &cfg, nil
}
