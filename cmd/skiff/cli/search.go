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
)

// SearchCommand returns the "search" command: server-side full-text
// search within one room, printed oldest first.
func SearchCommand(cfg *config.Config, logger *slog.Logger) *Command {
	var count int

	return &Command{
		Name:    "search",
		Summary: "Search messages in a room",
		Usage:   "skiff search <room> <text...> [flags]",
		Examples: []Example{
			{
				Description: "Find mentions of an incident",
				Command:     "skiff search ops \"database timeout\"",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("search", pflag.ContinueOnError)
			flagSet.IntVar(&count, "count", 25, "maximum results to return")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("room and search text are required\n\nUsage: skiff search <room> <text...>")
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

			results, err := connection.Session.SearchMessages(ctx, room.ID, strings.Join(args[1:], " "), count)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Println("no matches")
				return nil
			}

			// Server returns newest first; read top to bottom like a
			// transcript instead.
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
			for i := len(results) - 1; i >= 0; i-- {
				printMessageLine(tw, results[i])
			}
			return tw.Flush()
		},
	}
}

func printMessageLine(w *tabwriter.Writer, message chat.Message) {
	body := strings.ReplaceAll(message.Body, "\n", " ")
	fmt.Fprintf(w, "%s\t%s\t%s\n",
		message.Timestamp.Local().Format("2006-01-02 15:04"),
		message.Author.Username,
		body,
	)
}
