// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/pflag"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/config"
)

// validStatuses are the presence values the server accepts.
var validStatuses = []string{"online", "away", "busy", "offline"}

// StatusCommand returns the "status" command tree for presence and
// profile changes.
func StatusCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "status",
		Summary: "Set presence, avatar, or profile fields",
		Subcommands: []*Command{
			statusSetCommand(cfg, logger),
			statusAvatarCommand(cfg, logger),
			statusProfileCommand(cfg, logger),
		},
	}
}

func statusSetCommand(cfg *config.Config, logger *slog.Logger) *Command {
	var message string

	return &Command{
		Name:    "set",
		Summary: "Set presence (online, away, busy, offline)",
		Usage:   "skiff status set <presence> [flags]",
		Examples: []Example{
			{
				Description: "Go busy with a note",
				Command:     "skiff status set busy --message \"in a meeting\"",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("set", pflag.ContinueOnError)
			flagSet.StringVar(&message, "message", "", "status message shown next to your name")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("presence value is required\n\nUsage: skiff status set <presence> [flags]")
			}
			presence := args[0]
			if !slices.Contains(validStatuses, presence) {
				return fmt.Errorf("invalid presence %q (one of: online, away, busy, offline)", presence)
			}

			return withSession(cfg, logger, func(ctx context.Context, session *chat.DirectSession) error {
				if err := session.SetStatus(ctx, presence, message); err != nil {
					return err
				}
				fmt.Printf("status set to %s\n", presence)
				return nil
			})
		},
	}
}

func statusAvatarCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "avatar",
		Summary: "Set the account avatar from a URL",
		Usage:   "skiff status avatar <url>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("avatar URL is required\n\nUsage: skiff status avatar <url>")
			}
			return withSession(cfg, logger, func(ctx context.Context, session *chat.DirectSession) error {
				if err := session.SetAvatar(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("avatar updated")
				return nil
			})
		},
	}
}

func statusProfileCommand(cfg *config.Config, logger *slog.Logger) *Command {
	var name string
	var email string

	return &Command{
		Name:    "profile",
		Summary: "Update display name or email",
		Usage:   "skiff status profile [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("profile", pflag.ContinueOnError)
			flagSet.StringVar(&name, "name", "", "new display name")
			flagSet.StringVar(&email, "email", "", "new email address")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			if name == "" && email == "" {
				return fmt.Errorf("nothing to change: pass --name or --email")
			}
			return withSession(cfg, logger, func(ctx context.Context, session *chat.DirectSession) error {
				profile, err := session.UpdateProfile(ctx, chat.UpdateProfileRequest{
					Name:  name,
					Email: email,
				})
				if err != nil {
					return err
				}
				fmt.Printf("profile updated: %s (%s)\n", profile.Username, profile.Name)
				return nil
			})
		},
	}
}

// withSession restores the saved session, runs fn with a
// request-scoped context, and releases the connection.
func withSession(cfg *config.Config, logger *slog.Logger, fn func(ctx context.Context, session *chat.DirectSession) error) error {
	connection, err := Connect(cfg, logger)
	if err != nil {
		return err
	}
	defer connection.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout.Std())
	defer cancel()
	return fn(ctx, connection.Session)
}
