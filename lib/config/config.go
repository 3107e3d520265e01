// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for skiff.
//
// Configuration is optional: skiff runs with built-in defaults when no
// file is present. A file is loaded from:
//   - the SKIFF_CONFIG environment variable, or
//   - the --config flag passed to the command, or
//   - $XDG_CONFIG_HOME/skiff/config.yaml (~/.config/skiff/config.yaml)
//
// Values from the file override the defaults. Environment variables do
// not override individual config values; the only expansion performed
// is ${HOME} in path fields for portability.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "3s" or "500ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the master configuration for skiff.
type Config struct {
	// Server configures the chat server connection.
	Server ServerConfig `yaml:"server"`

	// Poll configures the message reconciler's fetch cycle.
	Poll PollConfig `yaml:"poll"`

	// UI configures terminal rendering.
	UI UIConfig `yaml:"ui"`

	// Log configures diagnostic logging.
	Log LogConfig `yaml:"log"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`
}

// ServerConfig configures the chat server connection.
type ServerConfig struct {
	// URL is the base URL of the chat server, e.g.
	// "https://chat.example.com". Required for every command that
	// talks to the server; login persists it into the session file so
	// later commands can omit it.
	URL string `yaml:"url"`

	// Timeout bounds each HTTP request. Default 30s.
	Timeout Duration `yaml:"timeout"`
}

// PollConfig configures the message reconciler's fetch cycle.
type PollConfig struct {
	// Interval is the period between history re-fetches. Default 3s.
	Interval Duration `yaml:"interval"`

	// PageSize is the number of most recent messages fetched per
	// poll. Default 50, maximum 200.
	PageSize int `yaml:"page_size"`
}

// UIConfig configures terminal rendering.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light". Default
	// "dark".
	Theme string `yaml:"theme"`

	// SyntaxTheme is the chroma style name for fenced code blocks.
	// Default "monokai".
	SyntaxTheme string `yaml:"syntax_theme"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// Level is the minimum level: "debug", "info", "warn", "error".
	// Default "warn" so the TUI stays quiet.
	Level string `yaml:"level"`

	// File receives log output. Empty means stderr. The TUI always
	// needs a file (stderr is the terminal).
	File string `yaml:"file"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// Session is the session file location. Empty selects the
	// default ($XDG_CONFIG_HOME/skiff/session.json).
	Session string `yaml:"session"`

	// Cache is the cache directory for the room-list cache. Empty
	// selects $XDG_CACHE_HOME/skiff.
	Cache string `yaml:"cache"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Timeout: Duration(30 * time.Second),
		},
		Poll: PollConfig{
			Interval: Duration(3 * time.Second),
			PageSize: 50,
		},
		UI: UIConfig{
			Theme:       "dark",
			SyntaxTheme: "monokai",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "skiff", "config.yaml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "skiff", "config.yaml")
}

// Load loads configuration from SKIFF_CONFIG, or from the default
// location, or returns the defaults when no file exists. A file named
// by SKIFF_CONFIG must exist; a missing file at the default location
// is not an error.
func Load() (*Config, error) {
	if path := os.Getenv("SKIFF_CONFIG"); path != "" {
		return LoadFile(path)
	}
	path := DefaultPath()
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, merging it
// over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${HOME} in path fields.
func (c *Config) expandVariables() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return
	}
	expand := func(s string) string {
		return strings.ReplaceAll(s, "${HOME}", homeDir)
	}
	c.Paths.Session = expand(c.Paths.Session)
	c.Paths.Cache = expand(c.Paths.Cache)
	c.Log.File = expand(c.Log.File)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.URL != "" {
		parsed, err := url.Parse(c.Server.URL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("server.url %q is not an absolute URL", c.Server.URL)
		}
	}
	if c.Server.Timeout.Std() <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout.Std())
	}
	if c.Poll.Interval.Std() < 500*time.Millisecond {
		return fmt.Errorf("poll.interval %s is below the 500ms minimum", c.Poll.Interval.Std())
	}
	if c.Poll.PageSize < 1 || c.Poll.PageSize > 200 {
		return fmt.Errorf("poll.page_size must be 1..200, got %d", c.Poll.PageSize)
	}
	switch c.UI.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("ui.theme must be \"dark\" or \"light\", got %q", c.UI.Theme)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level %q is not debug, info, warn, or error", c.Log.Level)
	}
}

// CacheDir returns the cache directory, creating it if needed.
func (c *Config) CacheDir() (string, error) {
	dir := c.Paths.Cache
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", fmt.Errorf("config: resolving cache dir: %w", err)
		}
		dir = filepath.Join(base, "skiff")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("config: creating cache dir: %w", err)
	}
	return dir, nil
}
