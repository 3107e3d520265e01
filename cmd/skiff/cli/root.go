// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/skiff-chat/skiff/lib/config"
)

// Root builds the top-level skiff command tree.
func Root(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "skiff",
		Summary: "Terminal client for Rocket.Chat-compatible servers",
		Description: `skiff is a terminal chat client.

Log in once with "skiff login"; every other command uses the saved
session. "skiff open" starts the interactive client; the remaining
commands are one-shot operations for scripting and administration.`,
		Usage: "skiff [--config <path>] <command> [flags]",
		Examples: []Example{
			{
				Description: "Log in and open the client",
				Command:     "skiff login alice && skiff open",
			},
			{
				Description: "Post from a script",
				Command:     "skiff send ops \"deploy finished\"",
			},
		},
		Subcommands: []*Command{
			LoginCommand(cfg, logger),
			LogoutCommand(cfg, logger),
			WhoamiCommand(cfg, logger),
			OpenCommand(cfg, logger),
			RoomsCommand(cfg, logger),
			SendCommand(cfg, logger),
			SearchCommand(cfg, logger),
			UploadCommand(cfg, logger),
			DMCommand(cfg, logger),
			FindCommand(cfg, logger),
			StatusCommand(cfg, logger),
			ChannelCommand(cfg, logger),
			AdminCommand(cfg, logger),
		},
	}
}
