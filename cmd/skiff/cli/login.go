// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/config"
	"github.com/skiff-chat/skiff/lib/secret"
)

// LoginCommand returns the "login" command. It authenticates against
// the chat server and saves the resulting session to the well-known
// path (~/.config/skiff/session.json). Subsequent commands load that
// session transparently: authenticate once, then access is seamless.
func LoginCommand(cfg *config.Config, logger *slog.Logger) *Command {
	var serverURL string
	var passwordFile string

	return &Command{
		Name:    "login",
		Summary: "Authenticate with the chat server",
		Description: `Log in to a chat server and save the session locally.

After login, commands like "skiff send" and "skiff rooms" use the
saved session without further flags. The session file is stored at
~/.config/skiff/session.json (or $SKIFF_SESSION_FILE if set, or
$XDG_CONFIG_HOME/skiff/session.json) with mode 0600 since it contains
an auth token.

The password is read from --password-file when given, or prompted
interactively with echo disabled.`,
		Usage: "skiff login <username> [flags]",
		Examples: []Example{
			{
				Description: "Log in interactively (prompts for password)",
				Command:     "skiff login alice",
			},
			{
				Description: "Log in to an explicit server",
				Command:     "skiff login alice --server https://chat.example.com",
			},
			{
				Description: "Log in with password from a file",
				Command:     "skiff login alice --password-file ~/.secrets/chat",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flagSet.StringVar(&serverURL, "server", cfg.Server.URL, "chat server URL")
			flagSet.StringVar(&passwordFile, "password-file", "", "path to file containing the password (default: prompt)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("username is required\n\nUsage: skiff login <username> [flags]")
			}
			username := args[0]
			if len(args) > 1 {
				return fmt.Errorf("unexpected argument: %s", args[1])
			}
			if serverURL == "" {
				return fmt.Errorf("no server URL: pass --server or set server.url in the config file")
			}

			password, err := readLoginPassword(passwordFile)
			if err != nil {
				return err
			}
			defer password.Close()

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout.Std())
			defer cancel()

			client, err := chat.NewClient(chat.ClientConfig{
				ServerURL:  serverURL,
				HTTPClient: &http.Client{Timeout: cfg.Server.Timeout.Std()},
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			// Reachability preflight. A wrong URL or downed server
			// fails here with a clear message instead of surfacing
			// as a login rejection.
			info, err := client.ServerInfo(ctx)
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}
			logger.Debug("server reachable", "url", serverURL, "version", info.Version)

			session, err := client.Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			defer session.Close()

			// Verify the token and fetch the full profile before
			// persisting anything.
			profile, err := session.Me(ctx)
			if err != nil {
				return fmt.Errorf("session verification failed: %w", err)
			}

			saved := &SavedSession{
				ServerURL: serverURL,
				UserID:    session.UserID(),
				AuthToken: session.Token(),
				Profile:   *profile,
				IsAdmin:   profile.IsAdmin(),
			}

			path := SessionFilePath(cfg)
			if err := SaveSession(saved, path); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Logged in as %s (%s)\n", profile.Username, session.UserID())
			fmt.Fprintf(os.Stderr, "Session saved to %s\n", path)
			return nil
		},
	}
}

// LogoutCommand returns the "logout" command. Server-side logout is
// best effort; the local session file is removed regardless, so a
// dead server cannot trap a stale token on disk.
func LogoutCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "logout",
		Summary: "Invalidate the session and remove local credentials",
		Usage:   "skiff logout",
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			path := SessionFilePath(cfg)
			connection, err := Connect(cfg, logger)
			if err == nil {
				defer connection.Close()
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout.Std())
				defer cancel()
				if logoutErr := connection.Session.Logout(ctx); logoutErr != nil {
					logger.Warn("server-side logout failed", "error", logoutErr)
				}
			}

			if err := ClearSession(path); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Logged out; removed %s\n", path)
			return nil
		},
	}
}

// WhoamiCommand returns the "whoami" command. It validates the stored
// token against the server and prints the account identity.
func WhoamiCommand(cfg *config.Config, logger *slog.Logger) *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the logged-in account",
		Usage:   "skiff whoami",
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

			profile, err := connection.Validate(ctx, logger)
			if err != nil {
				return err
			}

			fmt.Printf("%s (%s) on %s\n", profile.Username, connection.Saved.UserID, connection.Saved.ServerURL)
			if profile.Name != "" {
				fmt.Printf("  name:   %s\n", profile.Name)
			}
			if profile.Status != "" {
				fmt.Printf("  status: %s\n", profile.Status)
			}
			if len(profile.Roles) > 0 {
				fmt.Printf("  roles:  %v\n", profile.Roles)
			}
			return nil
		},
	}
}

// readLoginPassword reads the login password. An empty or "-"
// passwordFile means prompt interactively.
func readLoginPassword(passwordFile string) (*secret.Buffer, error) {
	if passwordFile != "" && passwordFile != "-" {
		return secret.ReadFromPath(passwordFile)
	}
	return secret.Prompt("Password")
}
