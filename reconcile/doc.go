// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile maintains the canonical message list for the
// active room.
//
// A Reconciler owns one room at a time. Selecting a room loads the
// most recent page of history; a fixed-interval poll then re-fetches
// the same page and replaces the list wholesale. Structural equality
// against the previous snapshot suppresses no-op updates, so
// subscribers only wake when something actually changed.
//
// Mutations (send, edit, delete, react, pin) call the server first
// and patch the in-memory list only after the server confirms. There
// is no client-side prediction: a failed call returns the error and
// leaves the list untouched.
//
// Every room selection increments an epoch counter. Fetches and
// mutations are tagged with the epoch at issue time, and results
// carrying a stale epoch are discarded, so a slow response from a
// previous room can never leak into the current one.
package reconcile
