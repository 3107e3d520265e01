// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RoomKind classifies a room. The server encodes the kind as a single
// letter in room payloads; history and member listing dispatch to
// different endpoint families depending on the kind.
type RoomKind string

const (
	// Channel is a public channel ("c" on the wire).
	Channel RoomKind = "channel"
	// PrivateGroup is an invite-only group ("p" on the wire).
	PrivateGroup RoomKind = "group"
	// DirectMessage is a one-to-one conversation ("d" on the wire).
	DirectMessage RoomKind = "direct"
)

// ParseRoomKind converts the server's one-letter room type into a
// RoomKind. Anything other than "c", "p", or "d" is an error; new
// server-side room types must be handled explicitly, not silently
// treated as channels.
func ParseRoomKind(wire string) (RoomKind, error) {
	switch wire {
	case "c":
		return Channel, nil
	case "p":
		return PrivateGroup, nil
	case "d":
		return DirectMessage, nil
	default:
		return "", fmt.Errorf("unknown room type %q", wire)
	}
}

// Wire returns the server's one-letter encoding of the kind. Panics on
// an unrecognized kind; RoomKind values only come from ParseRoomKind
// or the package constants, so this is unreachable in correct code.
func (k RoomKind) Wire() string {
	switch k {
	case Channel:
		return "c"
	case PrivateGroup:
		return "p"
	case DirectMessage:
		return "d"
	}
	panic(fmt.Sprintf("ref.RoomKind.Wire: unrecognized kind %q", string(k)))
}

// String returns the kind name ("channel", "group", "direct").
func (k RoomKind) String() string { return string(k) }

// UnmarshalText implements encoding.TextUnmarshaler, accepting the
// one-letter wire form used in API payloads.
func (k *RoomKind) UnmarshalText(data []byte) error {
	parsed, err := ParseRoomKind(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler, emitting the
// one-letter wire form.
func (k RoomKind) MarshalText() ([]byte, error) {
	if k == "" {
		return nil, nil
	}
	return []byte(k.Wire()), nil
}
