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

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/config"
	"github.com/skiff-chat/skiff/lib/ref"
	"github.com/skiff-chat/skiff/roomcache"
)

// RoomsCommand returns the "rooms" command, listing every room the
// account belongs to. The fetched list also refreshes the local room
// cache used for fast name resolution by other commands.
func RoomsCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "rooms",
		Summary: "List joined rooms",
		Usage:   "skiff rooms",
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			connection, err := Connect(cfg, logger)
			if err != nil {
				return err
			}
			defer connection.Close()

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout.Std())
			defer cancel()

			rooms, err := connection.Session.Rooms(ctx)
			if err != nil {
				return err
			}
			storeRoomCache(cfg, logger, rooms)

			self := connection.Saved.Profile.Username
			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "NAME\tKIND\tMEMBERS\tID")
			for _, room := range rooms {
				name := room.DisplayName(self)
				if name == "" {
					name = room.ID.String()
				}
				members := ""
				if room.MemberCount > 0 {
					members = fmt.Sprintf("%d", room.MemberCount)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, room.Kind, members, room.ID)
			}
			return tw.Flush()
		},
	}
}

// storeRoomCache refreshes the on-disk room cache. Failures are
// logged and ignored; the cache is purely an optimization.
func storeRoomCache(cfg *config.Config, logger *slog.Logger, rooms []chat.Room) {
	cacheDir, err := cfg.CacheDir()
	if err != nil {
		logger.Warn("room cache unavailable", "error", err)
		return
	}
	if err := roomcache.New(cacheDir).Store(rooms); err != nil {
		logger.Warn("failed to write room cache", "error", err)
	}
}

// loadRoomCache reads the cached room list. Nil when the cache is
// missing, stale-versioned, or unreadable.
func loadRoomCache(cfg *config.Config, logger *slog.Logger) []chat.Room {
	cacheDir, err := cfg.CacheDir()
	if err != nil {
		logger.Warn("room cache unavailable", "error", err)
		return nil
	}
	return roomcache.New(cacheDir).Load()
}

// resolveRoom maps a user-supplied room reference (display name,
// channel name, or raw ID) to a Room. The live room list from the
// server is authoritative; the argument matches case-insensitively
// against names and exactly against IDs.
func resolveRoom(ctx context.Context, session chat.Session, self, argument string) (*chat.Room, error) {
	rooms, err := session.Rooms(ctx)
	if err != nil {
		return nil, err
	}

	for i := range rooms {
		if rooms[i].ID.String() == argument {
			return &rooms[i], nil
		}
	}

	wanted := strings.ToLower(strings.TrimPrefix(argument, "#"))
	for i := range rooms {
		if strings.ToLower(rooms[i].Name) == wanted {
			return &rooms[i], nil
		}
		if strings.ToLower(rooms[i].DisplayName(self)) == wanted {
			return &rooms[i], nil
		}
	}

	// An ID-shaped argument may name a reachable room the account has
	// not joined (admins operate on channels they are not members of).
	// Ask the server for it directly.
	if roomID, err := ref.ParseRoomID(argument); err == nil {
		room, err := session.RoomInfo(ctx, roomID)
		if err == nil && room != nil && !room.ID.IsZero() {
			return room, nil
		}
	}
	return nil, fmt.Errorf("no joined room matches %q (run \"skiff rooms\" to list)", argument)
}
