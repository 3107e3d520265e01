// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFromBytes(t *testing.T) {
	source := []byte("hunter2")
	buffer, err := NewFromBytes(source)
	if err != nil {
		t.Fatalf("NewFromBytes failed: %v", err)
	}
	defer buffer.Close()

	if got := buffer.String(); got != "hunter2" {
		t.Errorf("String() = %q, want %q", got, "hunter2")
	}
	if buffer.Len() != 7 {
		t.Errorf("Len() = %d, want 7", buffer.Len())
	}

	// The source slice must be zeroed after the copy.
	for i, b := range source {
		if b != 0 {
			t.Errorf("source[%d] = %d, want 0", i, b)
		}
	}
}

func TestNewFromString(t *testing.T) {
	buffer, err := NewFromString("token-abc")
	if err != nil {
		t.Fatalf("NewFromString failed: %v", err)
	}
	defer buffer.Close()

	if got := string(buffer.Bytes()); got != "token-abc" {
		t.Errorf("Bytes() = %q, want %q", got, "token-abc")
	}
}

func TestEmptySourceRejected(t *testing.T) {
	if _, err := NewFromBytes(nil); err == nil {
		t.Error("NewFromBytes(nil) unexpectedly succeeded")
	}
	if _, err := NewFromString(""); err == nil {
		t.Error("NewFromString(\"\") unexpectedly succeeded")
	}
	if _, err := New(0); err == nil {
		t.Error("New(0) unexpectedly succeeded")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	buffer, err := NewFromString("secret")
	if err != nil {
		t.Fatalf("NewFromString failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := buffer.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestAccessAfterClosePanics(t *testing.T) {
	buffer, err := NewFromString("secret")
	if err != nil {
		t.Fatalf("NewFromString failed: %v", err)
	}
	buffer.Close()

	defer func() {
		if recover() == nil {
			t.Error("expected panic reading closed buffer")
		}
	}()
	_ = buffer.Bytes()
}

func TestReadFromPath(t *testing.T) {
	t.Run("trims whitespace", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "password")
		if err := os.WriteFile(path, []byte("  hunter2\n"), 0o600); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}

		buffer, err := ReadFromPath(path)
		if err != nil {
			t.Fatalf("ReadFromPath failed: %v", err)
		}
		defer buffer.Close()

		if got := buffer.String(); got != "hunter2" {
			t.Errorf("got %q, want %q", got, "hunter2")
		}
	})

	t.Run("empty file rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "password")
		if err := os.WriteFile(path, []byte("\n\n"), 0o600); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
		if _, err := ReadFromPath(path); err == nil {
			t.Error("expected error for whitespace-only file")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ReadFromPath(filepath.Join(t.TempDir(), "absent")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
