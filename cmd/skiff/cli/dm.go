// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/config"
)

// DMCommand returns the "dm" command: open (or reuse) a direct
// conversation with a user, optionally sending a first message.
func DMCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "dm",
		Summary: "Open a direct conversation with a user",
		Usage:   "skiff dm <username> [text...]",
		Examples: []Example{
			{
				Description: "Open the conversation only",
				Command:     "skiff dm bob",
			},
			{
				Description: "Open and send in one step",
				Command:     "skiff dm bob \"got a minute?\"",
			},
		},
		Run: func(args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("username is required\n\nUsage: skiff dm <username> [text...]")
			}
			username := args[0]

			return withSession(cfg, logger, func(ctx context.Context, session *chat.DirectSession) error {
				room, err := session.CreateDirectMessage(ctx, username)
				if err != nil {
					return err
				}

				if len(args) > 1 {
					message, err := session.SendMessage(ctx, room.ID, strings.Join(args[1:], " "))
					if err != nil {
						return err
					}
					fmt.Printf("sent %s to @%s\n", message.ID, username)
					return nil
				}

				fmt.Printf("direct conversation with @%s: %s\n", username, room.ID)
				return nil
			})
		},
	}
}

// FindCommand returns the "find" command: directory search for users
// and rooms across the server.
func FindCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "find",
		Summary: "Search the server directory for users and rooms",
		Usage:   "skiff find <text>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("search text is required\n\nUsage: skiff find <text>")
			}

			return withSession(cfg, logger, func(ctx context.Context, session *chat.DirectSession) error {
				result, err := session.Spotlight(ctx, args[0])
				if err != nil {
					return err
				}
				if len(result.Users) == 0 && len(result.Rooms) == 0 {
					fmt.Println("no matches")
					return nil
				}
				for _, user := range result.Users {
					fmt.Printf("user  @%s", user.Username)
					if user.Name != "" {
						fmt.Printf("  (%s)", user.Name)
					}
					fmt.Println()
				}
				for _, room := range result.Rooms {
					fmt.Printf("room  #%s  %s\n", room.Name, room.ID)
				}
				return nil
			})
		},
	}
}
