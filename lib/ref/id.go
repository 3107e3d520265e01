// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// maxIDLength bounds server record IDs. The server's own IDs are
// 17-character random strings; the limit is generous so that servers
// with longer ID schemes still work.
const maxIDLength = 64

// validateID checks the structural format shared by all server record
// IDs: non-empty, bounded length, and restricted to the characters the
// server actually emits (letters, digits, '.', '_', '-'). The check is
// deliberately loose, since IDs are opaque, but rejects whitespace,
// slashes, and control characters that would corrupt URLs or logs.
func validateID(kind, raw string) error {
	if raw == "" {
		return fmt.Errorf("empty %s ID", kind)
	}
	if len(raw) > maxIDLength {
		return fmt.Errorf("%s ID exceeds %d characters: %q", kind, maxIDLength, raw)
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '-':
		default:
			return fmt.Errorf("%s ID contains invalid character %q: %q", kind, c, raw)
		}
	}
	return nil
}
