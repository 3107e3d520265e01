// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"slices"
	"strings"
	"time"

	"github.com/skiff-chat/skiff/lib/ref"
)

// Profile is the authenticated user's account record, returned by
// login and by the /me endpoint.
type Profile struct {
	ID        ref.UserID `json:"_id"`
	Username  string     `json:"username"`
	Name      string     `json:"name,omitempty"`
	Status    string     `json:"status,omitempty"`
	Roles     []string   `json:"roles,omitempty"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
}

// IsAdmin reports whether the profile's role set includes the admin
// role.
func (p Profile) IsAdmin() bool {
	return slices.Contains(p.Roles, "admin")
}

// User identifies a message author: the server record ID plus the
// human-facing username and optional display name.
type User struct {
	ID       ref.UserID `json:"_id"`
	Username string     `json:"username"`
	Name     string     `json:"name,omitempty"`
}

// Room is a read-only snapshot of a conversation container. The room
// list replaces these wholesale on every fetch; rooms are never
// patched in place.
type Room struct {
	ID    ref.RoomID   `json:"_id"`
	Kind  ref.RoomKind `json:"t"`
	Name  string       `json:"name,omitempty"`
	Topic string       `json:"topic,omitempty"`
	// MemberCount is the server's user count for the room.
	MemberCount int `json:"usersCount,omitempty"`
	// Usernames lists the participants of a direct conversation.
	// Empty for channels and groups.
	Usernames []string `json:"usernames,omitempty"`
}

// DisplayName returns the name to show for the room. Channels and
// groups use their name; direct conversations are named after the
// other participant (self is the viewer's username).
func (r Room) DisplayName(self string) string {
	if r.Kind != ref.DirectMessage {
		return r.Name
	}
	for _, username := range r.Usernames {
		if username != self {
			return username
		}
	}
	// A direct room with yourself.
	return self
}

// ReactionSet is the set of usernames that reacted with one emoji.
// The wire form is a JSON object with a "usernames" array; the
// invariant that a username appears at most once is enforced by the
// mutation helpers, not by the decoder.
type ReactionSet struct {
	Usernames []string `json:"usernames"`
}

// Contains reports whether username is in the set.
func (s ReactionSet) Contains(username string) bool {
	return slices.Contains(s.Usernames, username)
}

// Attachment is a file or link attached to a message.
type Attachment struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"title_link,omitempty"`
	// Kind is the attachment type reported by the server
	// (e.g., "file", "image").
	Kind string `json:"type,omitempty"`
}

// Message is a single room message. Identity is the server-assigned
// ID; the reconciler's canonical list holds at most one Message per
// ID.
type Message struct {
	ID        ref.MessageID `json:"_id"`
	RoomID    ref.RoomID    `json:"rid"`
	Author    User          `json:"u"`
	Body      string        `json:"msg"`
	Timestamp time.Time     `json:"ts"`
	// EditedAt is set by the server when the message has been edited.
	EditedAt *time.Time `json:"editedAt,omitempty"`
	Pinned   bool       `json:"pinned,omitempty"`
	// SystemType marks server-generated notices (pin notices, member
	// removal, join/leave). Empty for user content. The reconciler
	// discards messages with a non-empty SystemType.
	SystemType  string                 `json:"t,omitempty"`
	Reactions   map[string]ReactionSet `json:"reactions,omitempty"`
	Attachments []Attachment           `json:"attachments,omitempty"`
}

// Edited reports whether the server has recorded an edit.
func (m Message) Edited() bool { return m.EditedAt != nil }

// IsSystem reports whether the message is a transport artifact rather
// than user content.
func (m Message) IsSystem() bool { return m.SystemType != "" }

// ReactionKey normalizes an emoji name to the wire key form
// (":thumbsup:"). Accepts either the bare name or the already-wrapped
// key.
func ReactionKey(emoji string) string {
	return ":" + strings.Trim(emoji, ":") + ":"
}

// ToggleReaction adds username to the emoji's reaction set if absent,
// or removes it if present. Removal that empties the set deletes the
// key. Returns true if the toggle added the reaction, false if it
// removed it.
func (m *Message) ToggleReaction(emoji, username string) bool {
	key := ReactionKey(emoji)
	if m.Reactions == nil {
		m.Reactions = map[string]ReactionSet{}
	}

	set := m.Reactions[key]
	if !set.Contains(username) {
		set.Usernames = append(slices.Clone(set.Usernames), username)
		m.Reactions[key] = set
		return true
	}

	remaining := make([]string, 0, len(set.Usernames)-1)
	for _, existing := range set.Usernames {
		if existing != username {
			remaining = append(remaining, existing)
		}
	}
	if len(remaining) == 0 {
		delete(m.Reactions, key)
		if len(m.Reactions) == 0 {
			m.Reactions = nil
		}
	} else {
		m.Reactions[key] = ReactionSet{Usernames: remaining}
	}
	return false
}

// Clone returns a deep copy. The reconciler hands snapshots across
// goroutine boundaries, so shared mutable state (the reactions map,
// the attachment slice) must not leak.
func (m Message) Clone() Message {
	clone := m
	if m.EditedAt != nil {
		editedAt := *m.EditedAt
		clone.EditedAt = &editedAt
	}
	if m.Reactions != nil {
		clone.Reactions = make(map[string]ReactionSet, len(m.Reactions))
		for key, set := range m.Reactions {
			clone.Reactions[key] = ReactionSet{Usernames: slices.Clone(set.Usernames)}
		}
	}
	clone.Attachments = slices.Clone(m.Attachments)
	return clone
}

// Equal reports structural equality. Used by the reconciler to
// suppress no-op snapshot notifications when a poll returns an
// unchanged page.
func (m Message) Equal(other Message) bool {
	if m.ID != other.ID ||
		m.RoomID != other.RoomID ||
		m.Author != other.Author ||
		m.Body != other.Body ||
		!m.Timestamp.Equal(other.Timestamp) ||
		m.Pinned != other.Pinned ||
		m.SystemType != other.SystemType {
		return false
	}
	if (m.EditedAt == nil) != (other.EditedAt == nil) {
		return false
	}
	if m.EditedAt != nil && !m.EditedAt.Equal(*other.EditedAt) {
		return false
	}
	if len(m.Reactions) != len(other.Reactions) {
		return false
	}
	for key, set := range m.Reactions {
		otherSet, ok := other.Reactions[key]
		if !ok || !slices.Equal(set.Usernames, otherSet.Usernames) {
			return false
		}
	}
	return slices.Equal(m.Attachments, other.Attachments)
}

// MessagesEqual reports structural equality of two message lists in
// order.
func MessagesEqual(a, b []Message) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// Member is a room member as returned by the member listing
// endpoints.
type Member struct {
	ID       ref.UserID `json:"_id"`
	Username string     `json:"username"`
	Name     string     `json:"name,omitempty"`
	Status   string     `json:"status,omitempty"`
}

// SpotlightResult holds directory search matches for users and rooms.
type SpotlightResult struct {
	Users []User `json:"users"`
	Rooms []Room `json:"rooms"`
}

// ServerInfo reports the server version. Unauthenticated; useful for
// checking reachability before login.
type ServerInfo struct {
	Version string `json:"version"`
}

// CreateUserRequest holds the fields for the admin user-creation
// endpoint.
type CreateUserRequest struct {
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Roles    []string `json:"roles,omitempty"`
	// Verified marks the email address pre-verified so the new account
	// can log in without a confirmation round trip.
	Verified            bool `json:"verified"`
	JoinDefaultChannels bool `json:"joinDefaultChannels"`
}

// UpdateProfileRequest holds the fields a user may change on their own
// account. Zero-valued fields are omitted from the request.
type UpdateProfileRequest struct {
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	// NewPassword, when set, changes the account password.
	// CurrentPassword must hold the existing password for the server
	// to accept the change.
	NewPassword     string `json:"-"`
	CurrentPassword string `json:"-"`
}

// UploadRequest describes a file upload to a room.
type UploadRequest struct {
	// Filename is the name presented to the room.
	Filename string
	// ContentType is the MIME type of the file data.
	ContentType string
	// Size is the total size in bytes, used for progress reporting.
	Size int64
	// Message is an optional text message attached to the upload.
	Message string
	// Progress, if non-nil, is called with the cumulative number of
	// bytes read from the source as the upload streams. Calls happen
	// on the uploading goroutine.
	Progress func(sent int64)
}

// Wire envelopes. The server wraps most responses in an object with a
// "success" flag plus one payload field; error payloads are decoded
// separately in doRequest.

type loginData struct {
	UserID    ref.UserID `json:"userId"`
	AuthToken string     `json:"authToken"`
	Me        Profile    `json:"me"`
}

type loginResponse struct {
	Status string    `json:"status"`
	Data   loginData `json:"data"`
}

type serverInfoResponse struct {
	Info ServerInfo `json:"info"`
}

type roomsResponse struct {
	Update []Room `json:"update"`
}

type roomInfoResponse struct {
	Room Room `json:"room"`
}

type historyResponse struct {
	Messages []Message `json:"messages"`
}

type messageResponse struct {
	Message Message `json:"message"`
}

type membersResponse struct {
	Members []Member `json:"members"`
}

type userResponse struct {
	User Profile `json:"user"`
}

type usersListResponse struct {
	Users []Profile `json:"users"`
}

type channelResponse struct {
	Channel Room `json:"channel"`
}

type groupResponse struct {
	Group Room `json:"group"`
}

type imCreateResponse struct {
	Room Room `json:"room"`
}
