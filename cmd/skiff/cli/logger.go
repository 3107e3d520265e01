// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/skiff-chat/skiff/lib/config"
)

// NewLogger creates the structured logger for a command run. When
// stderr is a terminal the output is human-readable text; when piped
// or redirected it is JSON for machine parsing. A log file from the
// config takes precedence over stderr entirely, which the TUI relies
// on (stderr is the rendered terminal there).
//
// The returned closer must be called on exit when a file is in use.
func NewLogger(cfg *config.Config) (*slog.Logger, func() error, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, nil, err
	}
	options := &slog.HandlerOptions{Level: level}

	if cfg.Log.File != "" {
		file, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		return slog.New(slog.NewJSONHandler(file, options)), file.Close, nil
	}

	var handler slog.Handler
	if term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler), func() error { return nil }, nil
}

// discardLogger is used by commands that have nothing to report at
// the configured level.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
