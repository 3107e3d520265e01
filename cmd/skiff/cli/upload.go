// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/config"
	"golang.org/x/term"
)

// UploadCommand returns the "upload" command: stream a local file
// into a room with progress on stderr.
func UploadCommand(cfg *config.Config, logger *slog.Logger) *Command {
	var message string

	return &Command{
		Name:    "upload",
		Summary: "Upload a file to a room",
		Usage:   "skiff upload <room> <path> [flags]",
		Examples: []Example{
			{
				Description: "Share a log file with a comment",
				Command:     "skiff upload ops ./crash.log --message \"from this morning\"",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("upload", pflag.ContinueOnError)
			flagSet.StringVar(&message, "message", "", "text to post alongside the file")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("room and file path are required\n\nUsage: skiff upload <room> <path> [flags]")
			}
			filePath := args[1]

			file, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("opening %s: %w", filePath, err)
			}
			defer file.Close()

			info, err := file.Stat()
			if err != nil {
				return fmt.Errorf("stat %s: %w", filePath, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", filePath)
			}

			connection, err := Connect(cfg, logger)
			if err != nil {
				return err
			}
			defer connection.Close()

			// No overall timeout here: a large file on a slow link is
			// not an error. Ctrl-C cancels.
			ctx := context.Background()

			room, err := resolveRoom(ctx, connection.Session, connection.Saved.Profile.Username, args[0])
			if err != nil {
				return err
			}

			filename := filepath.Base(filePath)
			result, err := connection.Session.UploadFile(ctx, room.ID, chat.UploadRequest{
				Filename:    filename,
				ContentType: chat.DetectContentType(filename),
				Size:        info.Size(),
				Message:     message,
				Progress:    uploadProgress(info.Size()),
			}, file)
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return err
			}

			fmt.Printf("uploaded %s as message %s\n", filename, result.ID)
			return nil
		},
	}
}

// uploadProgress returns a progress callback that rewrites a single
// stderr line when stderr is a terminal, and stays silent otherwise.
func uploadProgress(total int64) func(sent int64) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return func(sent int64) {
		if total > 0 {
			fmt.Fprintf(os.Stderr, "\r%d/%d bytes (%d%%)", sent, total, sent*100/total)
			return
		}
		fmt.Fprintf(os.Stderr, "\r%d bytes", sent)
	}
}
