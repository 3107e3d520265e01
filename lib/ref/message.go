// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// MessageID is a validated server message record ID.
//
// Message identity drives the reconciler: the canonical message list
// holds at most one entry per MessageID, and local mutations (edit,
// delete, react, pin) address messages by this ID.
//
// MessageID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type MessageID struct {
	id string
}

// ParseMessageID validates and wraps a raw message record ID string.
func ParseMessageID(raw string) (MessageID, error) {
	if err := validateID("message", raw); err != nil {
		return MessageID{}, err
	}
	return MessageID{id: raw}, nil
}

// MustParseMessageID is like ParseMessageID but panics on error. Use
// in tests and static initialization where the input is known-valid.
func MustParseMessageID(raw string) MessageID {
	m, err := ParseMessageID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseMessageID(%q): %v", raw, err))
	}
	return m
}

// String returns the raw message record ID.
func (m MessageID) String() string { return m.id }

// IsZero reports whether the MessageID is the zero value (uninitialized).
func (m MessageID) IsZero() bool { return m.id == "" }

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (m MessageID) MarshalText() ([]byte, error) {
	if m.id == "" {
		return nil, nil
	}
	return []byte(m.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the ID
// format. An empty input produces the zero value (unset message ID).
func (m *MessageID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*m = MessageID{}
		return nil
	}
	parsed, err := ParseMessageID(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
