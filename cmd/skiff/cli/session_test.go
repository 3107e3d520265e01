// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/config"
	"github.com/skiff-chat/skiff/lib/ref"
)

func testSavedSession(serverURL string) *SavedSession {
	return &SavedSession{
		ServerURL: serverURL,
		UserID:    ref.MustParseUserID("u-alice"),
		AuthToken: "tok-123",
		Profile: chat.Profile{
			ID:       ref.MustParseUserID("u-alice"),
			Username: "alice",
		},
	}
}

func TestSaveAndLoadSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	saved := testSavedSession("https://chat.example.com")
	saved.IsAdmin = true

	if err := SaveSession(saved, path); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("session file mode = %o, want 600", mode)
	}

	loaded, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if loaded.ServerURL != saved.ServerURL {
		t.Errorf("ServerURL = %q", loaded.ServerURL)
	}
	if loaded.UserID != saved.UserID {
		t.Errorf("UserID = %v", loaded.UserID)
	}
	if loaded.AuthToken != "tok-123" {
		t.Errorf("AuthToken = %q", loaded.AuthToken)
	}
	if loaded.Profile.Username != "alice" {
		t.Errorf("Profile.Username = %q", loaded.Profile.Username)
	}
	if !loaded.IsAdmin {
		t.Error("IsAdmin not persisted")
	}
}

func TestLoadSessionMissingFile(t *testing.T) {
	_, err := LoadSession(filepath.Join(t.TempDir(), "session.json"))
	if err == nil {
		t.Fatal("expected error for missing session file")
	}
	if !strings.Contains(err.Error(), "skiff login") {
		t.Errorf("error should point at login: %v", err)
	}
}

func TestLoadSessionValidation(t *testing.T) {
	cases := []struct {
		name    string
		session SavedSession
		want    string
	}{
		{"no server", SavedSession{UserID: ref.MustParseUserID("u"), AuthToken: "t"}, "server_url"},
		{"no user", SavedSession{ServerURL: "https://x", AuthToken: "t"}, "user_id"},
		{"no token", SavedSession{ServerURL: "https://x", UserID: ref.MustParseUserID("u")}, "auth_token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "session.json")
			data, err := json.Marshal(tc.session)
			if err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, data, 0o600); err != nil {
				t.Fatal(err)
			}
			_, err = LoadSession(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %v, want mention of %s", err, tc.want)
			}
		})
	}
}

func TestClearSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := SaveSession(testSavedSession("https://chat.example.com"), path); err != nil {
		t.Fatal(err)
	}
	if err := ClearSession(path); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file still present after ClearSession")
	}
	// Clearing again is not an error.
	if err := ClearSession(path); err != nil {
		t.Errorf("second ClearSession: %v", err)
	}
}

func TestSessionFilePathPrecedence(t *testing.T) {
	t.Setenv("SKIFF_SESSION_FILE", "/tmp/explicit.json")
	cfg := config.Default()
	cfg.Paths.Session = "/tmp/from-config.json"
	if got := SessionFilePath(cfg); got != "/tmp/explicit.json" {
		t.Errorf("env override ignored: %q", got)
	}

	t.Setenv("SKIFF_SESSION_FILE", "")
	if got := SessionFilePath(cfg); got != "/tmp/from-config.json" {
		t.Errorf("config path ignored: %q", got)
	}

	cfg.Paths.Session = ""
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	want := filepath.Join("/tmp/xdg", "skiff", "session.json")
	if got := SessionFilePath(cfg); got != want {
		t.Errorf("default path = %q, want %q", got, want)
	}
}

// validateFixture saves a session pointing at server, then restores a
// connection from it.
func validateFixture(t *testing.T, server *httptest.Server) (*Connection, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("SKIFF_SESSION_FILE", path)
	if err := SaveSession(testSavedSession(server.URL), path); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Server.URL = server.URL
	cfg.Server.Timeout = config.Duration(5 * time.Second)

	connection, err := Connect(cfg, discardLogger())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(connection.Close)
	return connection, path
}

func TestValidateSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"_id":      "u-alice",
			"username": "alice",
			"roles":    []string{"admin"},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	connection, path := validateFixture(t, server)
	profile, err := connection.Validate(context.Background(), discardLogger())
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if profile.Username != "alice" {
		t.Errorf("Username = %q", profile.Username)
	}

	// A successful validation refreshes the persisted profile,
	// including the admin flag.
	refreshed, err := LoadSession(path)
	if err != nil {
		t.Fatal(err)
	}
	if !refreshed.IsAdmin {
		t.Error("refreshed session should record admin role")
	}
}

func TestValidateUnauthorizedClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false, "error": "token expired", "errorType": "unauthorized",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	connection, path := validateFixture(t, server)
	_, err := connection.Validate(context.Background(), discardLogger())
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "skiff login") {
		t.Errorf("error should direct to login: %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("unauthorized validation must remove the session file")
	}
}

func TestValidateTransientErrorKeepsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false, "error": "upstream down", "errorType": "error-service-unavailable",
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	connection, path := validateFixture(t, server)
	_, err := connection.Validate(context.Background(), discardLogger())
	if err == nil {
		t.Fatal("expected validation error")
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("transient failure must keep the session file: %v", statErr)
	}
}
