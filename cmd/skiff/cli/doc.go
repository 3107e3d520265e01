// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the skiff command tree: authentication,
// room and message operations, uploads, profile management, and the
// administration commands. The interactive TUI is launched by the
// "open" command wired up in cmd/skiff.
package cli
