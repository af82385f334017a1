// Package config loads sheetview settings from SHEETVIEW_* environment
// variables. Command-line flags override these values in internal/cli.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds process-wide settings.
type Config struct {
	// DBPath is the SQLite journal used when a command gets no --db. Empty
	// means none is configured.
	DBPath string `env:"SHEETVIEW_DB"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"SHEETVIEW_LOG_LEVEL" envDefault:"info"`

	// LogFormat is text or json.
	LogFormat string `env:"SHEETVIEW_LOG_FORMAT" envDefault:"text"`

	// CacheMaxEntries bounds the view cache. Zero keeps every entry.
	CacheMaxEntries int `env:"SHEETVIEW_CACHE_MAX_ENTRIES" envDefault:"0"`

	// MetricsNamespace prefixes exported Prometheus metrics.
	MetricsNamespace string `env:"SHEETVIEW_METRICS_NAMESPACE" envDefault:"sheetview"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads Config from environ instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks field values that env cannot express.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("SHEETVIEW_LOG_FORMAT: unknown format %q (want text or json)", c.LogFormat)
	}
	if c.CacheMaxEntries < 0 {
		return fmt.Errorf("SHEETVIEW_CACHE_MAX_ENTRIES: must be >= 0, got %d", c.CacheMaxEntries)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("SHEETVIEW_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// NewLogger builds a slog.Logger writing to w in the configured format and
// level. An invalid level falls back to info.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := c.Level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
