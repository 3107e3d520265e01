// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/config"
	"github.com/skiff-chat/skiff/lib/ref"
)

// SavedSession holds the persisted authentication state. Stored at
// the path returned by SessionFilePath and loaded by every command
// that talks to the server: log in once with "skiff login", then
// access is transparent.
type SavedSession struct {
	// ServerURL is the chat server the session belongs to. Persisted
	// so later commands need no --server flag.
	ServerURL string `json:"server_url"`

	// UserID is the authenticated user's server record ID.
	UserID ref.UserID `json:"user_id"`

	// AuthToken proves the user's identity. The file holding it is
	// written mode 0600.
	AuthToken string `json:"auth_token"`

	// Profile is the account profile captured at login, used for
	// display before the first validation round trip completes.
	Profile chat.Profile `json:"profile"`

	// IsAdmin records whether the profile's role set included the
	// admin role at login. Gates the admin command tree client-side;
	// the server enforces the real check.
	IsAdmin bool `json:"is_admin"`
}

// SessionFilePath returns the session file location: the
// SKIFF_SESSION_FILE environment variable, the config override, or
// $XDG_CONFIG_HOME/skiff/session.json.
func SessionFilePath(cfg *config.Config) string {
	if envPath := os.Getenv("SKIFF_SESSION_FILE"); envPath != "" {
		return envPath
	}
	if cfg != nil && cfg.Paths.Session != "" {
		return cfg.Paths.Session
	}

	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join("/tmp", "skiff-session.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "skiff", "session.json")
}

// LoadSession reads the saved session from path. The error for a
// missing file directs the user to "skiff login".
func LoadSession(path string) (*SavedSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no session found at %s; run \"skiff login\" first", path)
		}
		return nil, fmt.Errorf("reading session file %s: %w", path, err)
	}

	var session SavedSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", path, err)
	}
	if session.ServerURL == "" {
		return nil, fmt.Errorf("session file %s has no server_url", path)
	}
	if session.UserID.IsZero() {
		return nil, fmt.Errorf("session file %s has no user_id", path)
	}
	if session.AuthToken == "" {
		return nil, fmt.Errorf("session file %s has no auth_token", path)
	}
	return &session, nil
}

// SaveSession writes the session to path with mode 0600, replacing
// any previous session wholesale. The parent directory is created
// with mode 0700. The write goes through a temp file and rename so a
// crash cannot leave a half-written token file.
func SaveSession(session *SavedSession, path string) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	data = append(data, '\n')

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating session directory %s: %w", directory, err)
	}

	tmp, err := os.CreateTemp(directory, "session-*.json")
	if err != nil {
		return fmt.Errorf("creating session temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting session file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("installing session file %s: %w", path, err)
	}
	return nil
}

// ClearSession removes the session file. A missing file is not an
// error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session file %s: %w", path, err)
	}
	return nil
}

// Connection is an authenticated connection restored from a saved
// session.
type Connection struct {
	Client  *chat.Client
	Session *chat.DirectSession
	Saved   *SavedSession
	path    string
}

// Close releases the connection's resources.
func (c *Connection) Close() {
	c.Session.Close()
	c.Client.CloseIdleConnections()
}

// Connect restores the saved session without validating the token.
// Commands that immediately perform an authenticated call get
// equivalent validation for free from that call.
func Connect(cfg *config.Config, logger *slog.Logger) (*Connection, error) {
	path := SessionFilePath(cfg)
	saved, err := LoadSession(path)
	if err != nil {
		return nil, err
	}

	client, err := chat.NewClient(chat.ClientConfig{
		ServerURL: saved.ServerURL,
		HTTPClient: &http.Client{
			Timeout: cfg.Server.Timeout.Std(),
		},
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	session, err := client.SessionFromToken(saved.UserID, saved.AuthToken)
	if err != nil {
		return nil, err
	}
	return &Connection{Client: client, Session: session, Saved: saved, path: path}, nil
}

// Validate checks the stored token against the server. Only a genuine
// authentication rejection clears the saved session; transient
// failures (network, server errors) keep it, so a flaky connection
// never forces a re-login.
func (c *Connection) Validate(ctx context.Context, logger *slog.Logger) (*chat.Profile, error) {
	profile, err := c.Session.Me(ctx)
	if err == nil {
		// Keep the persisted profile fresh: roles can change between
		// runs.
		c.Saved.Profile = *profile
		c.Saved.IsAdmin = profile.IsAdmin()
		if saveErr := SaveSession(c.Saved, c.path); saveErr != nil {
			logger.Warn("failed to refresh session file", "error", saveErr)
		}
		return profile, nil
	}

	if chat.IsUnauthorized(err) {
		logger.Info("stored session rejected by server, clearing", "user_id", c.Saved.UserID)
		if clearErr := ClearSession(c.path); clearErr != nil {
			logger.Warn("failed to clear session file", "error", clearErr)
		}
		return nil, fmt.Errorf("session expired; run \"skiff login\" again")
	}
	return nil, fmt.Errorf("could not validate session (will retry next run): %w", err)
}
