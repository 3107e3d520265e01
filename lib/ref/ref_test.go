// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseRoomID(t *testing.T) {
	t.Run("valid IDs", func(t *testing.T) {
		for _, raw := range []string{"GENERAL", "ZRFro6JtJq7RSkHRB", "a", "room.with_all-chars0"} {
			id, err := ParseRoomID(raw)
			if err != nil {
				t.Errorf("ParseRoomID(%q) failed: %v", raw, err)
				continue
			}
			if id.String() != raw {
				t.Errorf("ParseRoomID(%q).String() = %q", raw, id.String())
			}
			if id.IsZero() {
				t.Errorf("ParseRoomID(%q).IsZero() = true", raw)
			}
		}
	})

	t.Run("invalid IDs", func(t *testing.T) {
		invalid := []string{
			"",
			"has space",
			"has/slash",
			"has:colon",
			strings.Repeat("x", 65),
		}
		for _, raw := range invalid {
			if _, err := ParseRoomID(raw); err == nil {
				t.Errorf("ParseRoomID(%q) unexpectedly succeeded", raw)
			}
		}
	})

	t.Run("zero value", func(t *testing.T) {
		var id RoomID
		if !id.IsZero() {
			t.Error("zero RoomID should report IsZero")
		}
	})
}

func TestRoomIDJSONRoundTrip(t *testing.T) {
	type payload struct {
		Room RoomID `json:"rid"`
	}

	original := payload{Room: MustParseRoomID("GENERAL")}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"rid":"GENERAL"}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Room != original.Room {
		t.Errorf("round trip mismatch: %v != %v", decoded.Room, original.Room)
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	var id MessageID
	err := json.Unmarshal([]byte(`"bad id with spaces"`), &id)
	if err == nil {
		t.Fatal("expected error for malformed message ID")
	}
}

func TestParseRoomKind(t *testing.T) {
	cases := []struct {
		wire string
		want RoomKind
	}{
		{"c", Channel},
		{"p", PrivateGroup},
		{"d", DirectMessage},
	}
	for _, tc := range cases {
		kind, err := ParseRoomKind(tc.wire)
		if err != nil {
			t.Errorf("ParseRoomKind(%q) failed: %v", tc.wire, err)
			continue
		}
		if kind != tc.want {
			t.Errorf("ParseRoomKind(%q) = %v, want %v", tc.wire, kind, tc.want)
		}
		if kind.Wire() != tc.wire {
			t.Errorf("%v.Wire() = %q, want %q", kind, kind.Wire(), tc.wire)
		}
	}

	if _, err := ParseRoomKind("l"); err == nil {
		t.Error("ParseRoomKind(\"l\") unexpectedly succeeded")
	}
	if _, err := ParseRoomKind(""); err == nil {
		t.Error("ParseRoomKind(\"\") unexpectedly succeeded")
	}
}

func TestRoomKindJSON(t *testing.T) {
	type payload struct {
		Kind RoomKind `json:"t"`
	}

	var decoded payload
	if err := json.Unmarshal([]byte(`{"t":"p"}`), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Kind != PrivateGroup {
		t.Errorf("decoded kind = %v, want PrivateGroup", decoded.Kind)
	}

	data, err := json.Marshal(payload{Kind: DirectMessage})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"t":"d"}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}
