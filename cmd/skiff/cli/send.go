// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skiff-chat/skiff/lib/config"
)

// SendCommand returns the "send" command for posting a message from
// the command line without opening the TUI.
func SendCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "send",
		Summary: "Post a message to a room",
		Usage:   "skiff send <room> <text...>",
		Examples: []Example{
			{
				Description: "Post to a channel by name",
				Command:     "skiff send general \"deploy finished\"",
			},
			{
				Description: "Post to a direct conversation",
				Command:     "skiff send bob \"lunch?\"",
			},
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("room and message text are required\n\nUsage: skiff send <room> <text...>")
			}
			text := strings.Join(args[1:], " ")
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("message text is empty")
			}

			connection, err := Connect(cfg, logger)
			if err != nil {
				return err
			}
			defer connection.Close()

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout.Std())
			defer cancel()

			room, err := resolveRoom(ctx, connection.Session, connection.Saved.Profile.Username, args[0])
			if err != nil {
				return err
			}

			message, err := connection.Session.SendMessage(ctx, room.ID, text)
			if err != nil {
				return err
			}

			logger.Info("message sent",
				"room_id", room.ID,
				"message_id", message.ID,
			)
			fmt.Printf("sent %s to %s\n", message.ID, room.DisplayName(connection.Saved.Profile.Username))
			return nil
		},
	}
}
