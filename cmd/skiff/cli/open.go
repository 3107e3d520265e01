// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/config"
	"github.com/skiff-chat/skiff/reconcile"
	"github.com/skiff-chat/skiff/tui"
)

// OpenCommand returns the "open" command: the interactive terminal
// client.
func OpenCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "open",
		Summary: "Open the interactive terminal client",
		Description: `Open the full-screen terminal client: room sidebar, live message
pane, and composer.

Key bindings: Tab cycles composer, room list, and message selection;
Ctrl+K switches rooms, Ctrl+F searches the room (Enter runs a server
search), Ctrl+O shows members, Ctrl+P shows pinned messages, Ctrl+G
toggles help, Ctrl+C quits. With a message selected: d deletes,
e edits (own messages), p pins or unpins, 1-3 add quick reactions.

When log.file is unset in the config, logging is disabled while the
TUI runs (stderr is the rendered terminal).`,
		Usage: "skiff open",
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			connection, err := Connect(cfg, logger)
			if err != nil {
				return err
			}
			defer connection.Close()

			// With no log file, diagnostics would corrupt the
			// rendered screen.
			tuiLogger := logger
			if cfg.Log.File == "" {
				tuiLogger = discardLogger()
			}

			reconciler := reconcile.New(connection.Session, reconcile.Options{
				PollInterval: cfg.Poll.Interval.Std(),
				PageSize:     cfg.Poll.PageSize,
				Logger:       tuiLogger,
			})

			// Cached room list paints the sidebar before the first
			// fetch completes. Advisory; an empty cache is fine. The
			// fresh fetch is stored back so the next boot paints the
			// current list.
			initialRooms := loadRoomCache(cfg, tuiLogger)
			persistRooms := func(rooms []chat.Room) {
				storeRoomCache(cfg, tuiLogger, rooms)
			}

			theme := tui.ThemeByName(cfg.UI.Theme, cfg.UI.SyntaxTheme)
			return tui.Run(context.Background(), reconciler, connection.Session, theme, initialRooms, persistRooms)
		},
	}
}
