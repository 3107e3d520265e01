// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"

	"github.com/skiff-chat/skiff/lib/ref"
)

// Session is the interface for authenticated chat operations that the
// reconciler and the TUI consume. The production implementation is
// *DirectSession; tests substitute fakes.
//
// Administration, profile, upload, and directory methods (CreateUser,
// CreateChannel, SetTopic, UploadFile, Spotlight, ...) are not part of
// this interface. Code that needs them should type-assert to
// *DirectSession.
type Session interface {
	// UserID returns the authenticated user's server record ID.
	UserID() ref.UserID

	// Username returns the authenticated user's username, or "" if
	// the profile has not been fetched yet.
	Username() string

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// Me fetches the authenticated user's profile. Doubles as token
	// validation: a stored token that the server no longer accepts
	// fails here with an unauthorized APIError.
	Me(ctx context.Context) (*Profile, error)

	// Logout invalidates the session server-side.
	Logout(ctx context.Context) error

	// Rooms returns every room the user is a member of.
	Rooms(ctx context.Context) ([]Room, error)

	// RoomInfo fetches a single room's current snapshot.
	RoomInfo(ctx context.Context, roomID ref.RoomID) (*Room, error)

	// History fetches up to count most recent messages from a room,
	// newest first (server delivery order). kind selects the endpoint
	// family.
	History(ctx context.Context, roomID ref.RoomID, kind ref.RoomKind, count int) ([]Message, error)

	// SendMessage posts a new text message and returns the stored
	// message.
	SendMessage(ctx context.Context, roomID ref.RoomID, body string) (*Message, error)

	// UpdateMessage replaces a message's body and returns the updated
	// message.
	UpdateMessage(ctx context.Context, roomID ref.RoomID, messageID ref.MessageID, body string) (*Message, error)

	// DeleteMessage removes a message.
	DeleteMessage(ctx context.Context, roomID ref.RoomID, messageID ref.MessageID) error

	// React adds (shouldReact true) or removes (false) the
	// authenticated user's reaction with the given emoji.
	React(ctx context.Context, messageID ref.MessageID, emoji string, shouldReact bool) error

	// PinMessage pins a message in its room.
	PinMessage(ctx context.Context, messageID ref.MessageID) error

	// UnpinMessage removes a pin.
	UnpinMessage(ctx context.Context, messageID ref.MessageID) error

	// SearchMessages performs a server-side text search within a room.
	SearchMessages(ctx context.Context, roomID ref.RoomID, query string, count int) ([]Message, error)

	// PinnedMessages lists a room's pinned messages.
	PinnedMessages(ctx context.Context, roomID ref.RoomID, count int) ([]Message, error)

	// Members lists a room's members. kind selects the endpoint
	// family.
	Members(ctx context.Context, roomID ref.RoomID, kind ref.RoomKind) ([]Member, error)
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
