// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

// Package chat wraps the chat server's REST API.
//
// The package provides two core types. [Client] is an unauthenticated
// client holding the server URL and HTTP transport; it handles login
// and returns authenticated sessions. [DirectSession] wraps a Client
// with an auth token and user ID for authenticated operations: room
// listing and info, per-kind message history, sending, editing, and
// deleting messages, reaction toggling, pinning, search, pinned and
// member listings, file upload with progress, profile and status
// updates, directory search, direct-message creation, and the user and
// channel administration endpoints.
//
// [Session] is the interface consumed by the reconciler and the TUI.
// Administration, profile, and upload methods are not part of the
// interface; code that needs them type-asserts to *DirectSession.
//
// Every request carries the X-Auth-Token and X-User-Id headers; the
// token lives in mmap-backed secret.Buffer memory and callers must
// Close sessions to release it. All server-reported failures surface
// as [*APIError] with the HTTP status and the server's error type
// string; transport failures surface as ordinary wrapped errors. The
// client never panics on server input and never retries; retry policy
// belongs to the caller.
package chat
