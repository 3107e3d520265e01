// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package roomcache persists the room list between runs so the TUI can
// render the sidebar immediately on startup, before the first
// rooms.get round trip completes.
//
// The cache is advisory: a missing, stale, or corrupt cache file is
// never an error, the caller just waits for the network fetch.
package roomcache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/codec"
)

// formatVersion is bumped when the cached room shape changes. A
// version mismatch discards the cache.
const formatVersion = 1

type cacheFile struct {
	Version int         `cbor:"version"`
	Rooms   []chat.Room `cbor:"rooms"`
}

// Cache reads and writes the room-list cache file.
type Cache struct {
	path string
}

// New returns a Cache stored as rooms.cbor under dir.
func New(dir string) *Cache {
	return &Cache{path: filepath.Join(dir, "rooms.cbor")}
}

// Load reads the cached room list. Returns nil with no error when the
// cache is missing, unreadable, or from an older format version.
func (c *Cache) Load() []chat.Room {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil
	}
	var file cacheFile
	if err := codec.Unmarshal(data, &file); err != nil {
		return nil
	}
	if file.Version != formatVersion {
		return nil
	}
	return file.Rooms
}

// Store writes the room list. The encoding is deterministic, so an
// unchanged list is detected by byte comparison and the write is
// skipped. Writes go through a temp file and rename.
func (c *Cache) Store(rooms []chat.Room) error {
	encoded, err := codec.Marshal(cacheFile{Version: formatVersion, Rooms: rooms})
	if err != nil {
		return fmt.Errorf("roomcache: encoding %d rooms: %w", len(rooms), err)
	}

	if existing, err := os.ReadFile(c.path); err == nil && bytes.Equal(existing, encoded) {
		return nil
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("roomcache: creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "rooms-*.cbor")
	if err != nil {
		return fmt.Errorf("roomcache: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		return fmt.Errorf("roomcache: writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("roomcache: closing cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("roomcache: installing cache: %w", err)
	}
	return nil
}
