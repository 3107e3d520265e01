// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/skiff-chat/skiff/lib/config"
)

func loginFixture(t *testing.T, server *httptest.Server) (*config.Config, string, string) {
	t.Helper()

	sessionPath := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("SKIFF_SESSION_FILE", sessionPath)

	passwordPath := filepath.Join(t.TempDir(), "password")
	if err := os.WriteFile(passwordPath, []byte("hunter2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Server.URL = server.URL
	cfg.Server.Timeout = config.Duration(5 * time.Second)
	return cfg, sessionPath, passwordPath
}

func TestLoginPreflightBlocksUnreachableServer(t *testing.T) {
	var loginAttempts int
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/info", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("POST /api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		loginAttempts++
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg, sessionPath, passwordPath := loginFixture(t, server)
	err := LoginCommand(cfg, discardLogger()).Execute(
		[]string{"alice", "--password-file", passwordPath})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "server unreachable") {
		t.Errorf("error = %v, want unreachable preflight failure", err)
	}
	if loginAttempts != 0 {
		t.Error("credentials were sent to an unreachable server")
	}
	if _, statErr := os.Stat(sessionPath); !os.IsNotExist(statErr) {
		t.Error("session file written despite failed preflight")
	}
}

func TestLoginSavesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/info", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"info":    map[string]any{"version": "6.4.0"},
			"success": true,
		})
	})
	mux.HandleFunc("POST /api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]any{
				"userId":    "u-alice",
				"authToken": "tok-123",
				"me":        map[string]any{"_id": "u-alice", "username": "alice"},
			},
		})
	})
	mux.HandleFunc("GET /api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"_id":      "u-alice",
			"username": "alice",
			"success":  true,
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg, sessionPath, passwordPath := loginFixture(t, server)
	err := LoginCommand(cfg, discardLogger()).Execute(
		[]string{"alice", "--password-file", passwordPath})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	saved, err := LoadSession(sessionPath)
	if err != nil {
		t.Fatal(err)
	}
	if saved.AuthToken != "tok-123" {
		t.Errorf("AuthToken = %q", saved.AuthToken)
	}
	if saved.Profile.Username != "alice" {
		t.Errorf("Username = %q", saved.Profile.Username)
	}
}
