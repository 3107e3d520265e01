// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Poll.Interval.Std() != 3*time.Second {
		t.Errorf("poll interval = %s", cfg.Poll.Interval.Std())
	}
	if cfg.Poll.PageSize != 50 {
		t.Errorf("page size = %d", cfg.Poll.PageSize)
	}
	level, err := cfg.LogLevel()
	if err != nil || level != slog.LevelWarn {
		t.Errorf("level = %v, %v", level, err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  url: https://chat.example.com
  timeout: 10s
poll:
  interval: 5s
  page_size: 100
ui:
  theme: light
log:
  level: debug
  file: ${HOME}/skiff.log
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Server.URL != "https://chat.example.com" {
		t.Errorf("url = %q", cfg.Server.URL)
	}
	if cfg.Server.Timeout.Std() != 10*time.Second {
		t.Errorf("timeout = %s", cfg.Server.Timeout.Std())
	}
	if cfg.Poll.Interval.Std() != 5*time.Second || cfg.Poll.PageSize != 100 {
		t.Errorf("poll = %+v", cfg.Poll)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	homeDir, _ := os.UserHomeDir()
	if cfg.Log.File != filepath.Join(homeDir, "skiff.log") {
		t.Errorf("log file = %q, want ${HOME} expanded", cfg.Log.File)
	}
	// Unset fields keep defaults.
	if cfg.UI.SyntaxTheme != "monokai" {
		t.Errorf("syntax theme = %q", cfg.UI.SyntaxTheme)
	}
}

func TestLoadFileValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad url", "server:\n  url: not-a-url\n"},
		{"bad duration", "poll:\n  interval: fast\n"},
		{"interval too small", "poll:\n  interval: 100ms\n"},
		{"page size too big", "poll:\n  page_size: 500\n"},
		{"bad theme", "ui:\n  theme: solarized\n"},
		{"bad level", "log:\n  level: verbose\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, tc.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("SKIFF_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with no file: %v", err)
	}
	if cfg.Poll.PageSize != 50 {
		t.Errorf("expected defaults, got %+v", cfg.Poll)
	}
}

func TestLoadEnvFileMustExist(t *testing.T) {
	t.Setenv("SKIFF_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("SKIFF_CONFIG pointing at a missing file must fail")
	}
}
