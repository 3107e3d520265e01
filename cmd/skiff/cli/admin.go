// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/config"
	"github.com/skiff-chat/skiff/lib/ref"
)

// AdminCommand returns the "admin" command tree. Requires an account
// with the admin role; the server rejects everything else.
func AdminCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "admin",
		Summary: "Server administration (admin role required)",
		Subcommands: []*Command{
			{
				Name:    "user",
				Summary: "Manage user accounts",
				Subcommands: []*Command{
					adminUserCreateCommand(cfg, logger),
					adminUserListCommand(cfg, logger),
				},
			},
		},
	}
}

func adminUserCreateCommand(cfg *config.Config, logger *slog.Logger) *Command {
	var name string
	var email string
	var passwordFile string
	var roles []string

	return &Command{
		Name:    "create",
		Summary: "Create a user account",
		Usage:   "skiff admin user create <username> --email <email> [flags]",
		Examples: []Example{
			{
				Description: "Create a regular user (prompts for the initial password)",
				Command:     "skiff admin user create carol --email carol@example.com --name \"Carol Z\"",
			},
			{
				Description: "Create another admin",
				Command:     "skiff admin user create dave --email dave@example.com --role admin",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
			flagSet.StringVar(&name, "name", "", "display name (default: the username)")
			flagSet.StringVar(&email, "email", "", "email address (required)")
			flagSet.StringVar(&passwordFile, "password-file", "", "path to file containing the initial password (default: prompt)")
			flagSet.StringSliceVar(&roles, "role", nil, "role to grant (repeatable)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("username is required\n\nUsage: skiff admin user create <username> --email <email> [flags]")
			}
			username := args[0]
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if name == "" {
				name = username
			}

			password, err := readLoginPassword(passwordFile)
			if err != nil {
				return err
			}
			defer password.Close()

			return withSession(cfg, logger, func(ctx context.Context, session *chat.DirectSession) error {
				profile, err := session.CreateUser(ctx, chat.CreateUserRequest{
					Name:     name,
					Username: username,
					Email:    email,
					Password: password.String(),
					Roles:    roles,
					Verified: true,
				})
				if err != nil {
					return err
				}
				fmt.Printf("created user %s (%s)\n", profile.Username, profile.ID)
				return nil
			})
		},
	}
}

func adminUserListCommand(cfg *config.Config, logger *slog.Logger) *Command {
	var offset int
	var count int

	return &Command{
		Name:    "list",
		Summary: "List user accounts",
		Usage:   "skiff admin user list [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.IntVar(&offset, "offset", 0, "pagination offset")
			flagSet.IntVar(&count, "count", 50, "maximum accounts to return")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			return withSession(cfg, logger, func(ctx context.Context, session *chat.DirectSession) error {
				users, err := session.ListUsers(ctx, offset, count)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintln(tw, "USERNAME\tNAME\tROLES\tID")
				for _, user := range users {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						user.Username, user.Name, strings.Join(user.Roles, ","), user.ID)
				}
				return tw.Flush()
			})
		},
	}
}

// ChannelCommand returns the "channel" command tree for channel
// lifecycle and membership. Each subcommand is one API call; there
// are no multi-step transactions.
func ChannelCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "channel",
		Summary: "Create and manage channels",
		Subcommands: []*Command{
			channelCreateCommand(cfg, logger),
			channelDeleteCommand(cfg, logger),
			channelTopicCommand(cfg, logger),
			channelDescribeCommand(cfg, logger),
			channelInviteCommand(cfg, logger),
			channelKickCommand(cfg, logger),
		},
	}
}

func channelCreateCommand(cfg *config.Config, logger *slog.Logger) *Command {
	var members []string
	var private bool

	return &Command{
		Name:    "create",
		Summary: "Create a channel",
		Usage:   "skiff channel create <name> [flags]",
		Examples: []Example{
			{
				Description: "Public channel with initial members",
				Command:     "skiff channel create releases --member alice --member bob",
			},
			{
				Description: "Private group",
				Command:     "skiff channel create incident-42 --private",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("create", pflag.ContinueOnError)
			flagSet.StringSliceVar(&members, "member", nil, "username to add on creation (repeatable)")
			flagSet.BoolVar(&private, "private", false, "create a private group instead of a public channel")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("channel name is required\n\nUsage: skiff channel create <name> [flags]")
			}
			return withSession(cfg, logger, func(ctx context.Context, session *chat.DirectSession) error {
				room, err := session.CreateChannel(ctx, args[0], members, private)
				if err != nil {
					return err
				}
				fmt.Printf("created %s %s (%s)\n", room.Kind, room.Name, room.ID)
				return nil
			})
		},
	}
}

func channelDeleteCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "delete",
		Summary: "Delete a channel",
		Usage:   "skiff channel delete <room>",
		Run: channelRun(cfg, logger, "skiff channel delete <room>", 0,
			func(ctx context.Context, session *chat.DirectSession, room *chat.Room, args []string) error {
				if err := session.DeleteChannel(ctx, room.ID); err != nil {
					return err
				}
				fmt.Printf("deleted %s\n", room.Name)
				return nil
			}),
	}
}

func channelTopicCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "topic",
		Summary: "Set a channel's topic",
		Usage:   "skiff channel topic <room> <text...>",
		Run: channelRun(cfg, logger, "skiff channel topic <room> <text...>", 1,
			func(ctx context.Context, session *chat.DirectSession, room *chat.Room, args []string) error {
				topic := strings.Join(args, " ")
				if err := session.SetTopic(ctx, room.ID, topic); err != nil {
					return err
				}
				fmt.Printf("topic of %s set to %q\n", room.Name, topic)
				return nil
			}),
	}
}

func channelDescribeCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "describe",
		Summary: "Set a channel's description",
		Usage:   "skiff channel describe <room> <text...>",
		Run: channelRun(cfg, logger, "skiff channel describe <room> <text...>", 1,
			func(ctx context.Context, session *chat.DirectSession, room *chat.Room, args []string) error {
				description := strings.Join(args, " ")
				if err := session.SetDescription(ctx, room.ID, description); err != nil {
					return err
				}
				fmt.Printf("description of %s updated\n", room.Name)
				return nil
			}),
	}
}

func channelInviteCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "invite",
		Summary: "Add a user to a channel",
		Usage:   "skiff channel invite <room> <username>",
		Run: channelRun(cfg, logger, "skiff channel invite <room> <username>", 1,
			func(ctx context.Context, session *chat.DirectSession, room *chat.Room, args []string) error {
				userID, err := resolveUser(ctx, session, args[0])
				if err != nil {
					return err
				}
				if err := session.AddMember(ctx, room.ID, userID); err != nil {
					return err
				}
				fmt.Printf("added @%s to %s\n", args[0], room.Name)
				return nil
			}),
	}
}

func channelKickCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "kick",
		Summary: "Remove a user from a channel",
		Usage:   "skiff channel kick <room> <username>",
		Run: channelRun(cfg, logger, "skiff channel kick <room> <username>", 1,
			func(ctx context.Context, session *chat.DirectSession, room *chat.Room, args []string) error {
				userID, err := resolveUser(ctx, session, args[0])
				if err != nil {
					return err
				}
				if err := session.RemoveMember(ctx, room.ID, userID); err != nil {
					return err
				}
				fmt.Printf("removed @%s from %s\n", args[0], room.Name)
				return nil
			}),
	}
}

// channelRun builds a Run function that resolves the leading room
// argument and hands the rest to fn. extra is the number of
// additional arguments required after the room; for commands taking
// trailing free text it is the minimum.
func channelRun(cfg *config.Config, logger *slog.Logger, usage string, extra int,
	fn func(ctx context.Context, session *chat.DirectSession, room *chat.Room, args []string) error,
) func(args []string) error {
	return func(args []string) error {
		if len(args) < 1+extra {
			return fmt.Errorf("missing arguments\n\nUsage: %s", usage)
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
		return fn(ctx, connection.Session, room, args[1:])
	}
}

// resolveUser maps a username to the server record ID via directory
// search. An exact username match is required; the directory returns
// fuzzy matches.
func resolveUser(ctx context.Context, session *chat.DirectSession, username string) (ref.UserID, error) {
	username = strings.TrimPrefix(username, "@")
	result, err := session.Spotlight(ctx, username)
	if err != nil {
		return ref.UserID{}, err
	}
	for _, user := range result.Users {
		if user.Username == username {
			return user.ID, nil
		}
	}
	return ref.UserID{}, fmt.Errorf("no user named %q on the server", username)
}
