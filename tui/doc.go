// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package tui implements the interactive terminal client: a room
// sidebar with fuzzy filtering, a scrollable message pane with
// markdown rendering, a composer, and modal overlays for members and
// pinned messages.
//
// The model consumes reconcile.Reconciler snapshots through the
// bubbletea message loop. All server mutations go through the
// reconciler; the model never calls the chat API directly.
package tui
