// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references
// for server-assigned chat identifiers: users, rooms, and messages.
//
// The chat server hands out opaque record IDs (e.g. "GENERAL",
// "ZRFro6JtJq7RSkHRB"). Skiff never constructs these itself; they
// arrive in API responses and are parsed into ref types at the
// boundary, so the rest of the codebase cannot confuse a room ID with
// a message ID or pass an empty string where an ID is required.
//
// All constructors validate their inputs and return errors for
// malformed IDs. Once constructed, a ref is immutable. The zero value
// of every ref type is invalid; use IsZero to check.
//
// JSON marshaling uses the raw ID string via encoding.TextMarshaler,
// so ref types can appear directly in request and response structs.
//
// RoomKind classifies a room as a channel, private group, or direct
// conversation, parsed from the server's one-letter wire form.
package ref
