// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/skiff-chat/skiff/lib/ref"
	"github.com/skiff-chat/skiff/lib/secret"
)

// DirectSession is an authenticated session against the chat server.
// It is safe for concurrent use. Create one with Client.Login or
// Client.SessionFromToken.
type DirectSession struct {
	client *Client
	userID ref.UserID

	mu        sync.Mutex
	authToken *secret.Buffer
	profile   *Profile
	closed    bool
}

// UserID returns the authenticated user's server record ID.
func (s *DirectSession) UserID() ref.UserID { return s.userID }

// Username returns the authenticated user's username. Empty until the
// profile has been fetched (Login populates it; SessionFromToken does
// not until Me succeeds).
func (s *DirectSession) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.Username
}

// Profile returns the cached profile from the last Login or Me call,
// or nil if none has been fetched.
func (s *DirectSession) Profile() *Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Token returns the raw auth token for persistence. The caller must
// not retain the returned string longer than needed.
func (s *DirectSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ""
	}
	return s.authToken.String()
}

// Close zeroes the in-memory auth token. It does not invalidate the
// token server-side; use Logout for that. Idempotent.
func (s *DirectSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.authToken.Close()
}

func (s *DirectSession) credentials() (*auth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("chat: session is closed")
	}
	return &auth{token: s.authToken, userID: s.userID}, nil
}

func (s *DirectSession) do(ctx context.Context, method, path string, body any, query ...url.Values) ([]byte, error) {
	creds, err := s.credentials()
	if err != nil {
		return nil, err
	}
	return s.client.doRequest(ctx, method, apiPrefix+path, creds, body, query...)
}

// Me fetches the authenticated user's profile and caches it on the
// session. A stored token the server has revoked fails here with an
// unauthorized APIError.
func (s *DirectSession) Me(ctx context.Context) (*Profile, error) {
	body, err := s.do(ctx, http.MethodGet, "/me", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	s.mu.Lock()
	s.profile = &profile
	s.mu.Unlock()
	return &profile, nil
}

// Logout invalidates the session token server-side. The in-memory
// token remains usable until Close; callers normally pair the two.
func (s *DirectSession) Logout(ctx context.Context) error {
	if _, err := s.do(ctx, http.MethodPost, "/logout", nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}

// Rooms returns every room the authenticated user is a member of.
func (s *DirectSession) Rooms(ctx context.Context) ([]Room, error) {
	body, err := s.do(ctx, http.MethodGet, "/rooms.get", nil)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	var resp roomsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding room list: %w", err)
	}
	return resp.Update, nil
}

// RoomInfo fetches a single room's current snapshot.
func (s *DirectSession) RoomInfo(ctx context.Context, roomID ref.RoomID) (*Room, error) {
	query := url.Values{"roomId": {roomID.String()}}
	body, err := s.do(ctx, http.MethodGet, "/rooms.info", nil, query)
	if err != nil {
		return nil, fmt.Errorf("fetching room %s: %w", roomID, err)
	}
	var resp roomInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding room %s: %w", roomID, err)
	}
	return &resp.Room, nil
}

// historyPath maps a room kind to its history endpoint family.
func historyPath(kind ref.RoomKind, op string) string {
	switch kind {
	case ref.Channel:
		return "/channels." + op
	case ref.PrivateGroup:
		return "/groups." + op
	case ref.DirectMessage:
		return "/im." + op
	}
	panic(fmt.Sprintf("chat: invalid room kind %q", string(kind)))
}

// History fetches up to count most recent messages, newest first.
func (s *DirectSession) History(ctx context.Context, roomID ref.RoomID, kind ref.RoomKind, count int) ([]Message, error) {
	query := url.Values{
		"roomId": {roomID.String()},
		"count":  {strconv.Itoa(count)},
	}
	body, err := s.do(ctx, http.MethodGet, historyPath(kind, "history"), nil, query)
	if err != nil {
		return nil, fmt.Errorf("fetching history for %s: %w", roomID, err)
	}
	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding history for %s: %w", roomID, err)
	}
	return resp.Messages, nil
}

// SendMessage posts a new text message and returns the stored message
// as the server recorded it.
func (s *DirectSession) SendMessage(ctx context.Context, roomID ref.RoomID, text string) (*Message, error) {
	request := map[string]any{
		"message": map[string]any{
			"rid": roomID.String(),
			"msg": text,
		},
	}
	body, err := s.do(ctx, http.MethodPost, "/chat.sendMessage", request)
	if err != nil {
		return nil, fmt.Errorf("sending message to %s: %w", roomID, err)
	}
	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding sent message: %w", err)
	}
	return &resp.Message, nil
}

// UpdateMessage replaces a message's body and returns the updated
// message.
func (s *DirectSession) UpdateMessage(ctx context.Context, roomID ref.RoomID, messageID ref.MessageID, text string) (*Message, error) {
	request := map[string]any{
		"roomId": roomID.String(),
		"msgId":  messageID.String(),
		"text":   text,
	}
	body, err := s.do(ctx, http.MethodPost, "/chat.update", request)
	if err != nil {
		return nil, fmt.Errorf("updating message %s: %w", messageID, err)
	}
	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding updated message: %w", err)
	}
	return &resp.Message, nil
}

// DeleteMessage removes a message from its room.
func (s *DirectSession) DeleteMessage(ctx context.Context, roomID ref.RoomID, messageID ref.MessageID) error {
	request := map[string]any{
		"roomId": roomID.String(),
		"msgId":  messageID.String(),
		"asUser": true,
	}
	if _, err := s.do(ctx, http.MethodPost, "/chat.delete", request); err != nil {
		return fmt.Errorf("deleting message %s: %w", messageID, err)
	}
	return nil
}

// React adds or removes the authenticated user's reaction. emoji may
// be given bare ("tada") or wrapped (":tada:").
func (s *DirectSession) React(ctx context.Context, messageID ref.MessageID, emoji string, shouldReact bool) error {
	request := map[string]any{
		"messageId":   messageID.String(),
		"emoji":       ReactionKey(emoji),
		"shouldReact": shouldReact,
	}
	if _, err := s.do(ctx, http.MethodPost, "/chat.react", request); err != nil {
		return fmt.Errorf("reacting to message %s: %w", messageID, err)
	}
	return nil
}

// PinMessage pins a message in its room.
func (s *DirectSession) PinMessage(ctx context.Context, messageID ref.MessageID) error {
	request := map[string]any{"messageId": messageID.String()}
	if _, err := s.do(ctx, http.MethodPost, "/chat.pin", request); err != nil {
		return fmt.Errorf("pinning message %s: %w", messageID, err)
	}
	return nil
}

// UnpinMessage removes a pin.
func (s *DirectSession) UnpinMessage(ctx context.Context, messageID ref.MessageID) error {
	request := map[string]any{"messageId": messageID.String()}
	if _, err := s.do(ctx, http.MethodPost, "/chat.unPin", request); err != nil {
		return fmt.Errorf("unpinning message %s: %w", messageID, err)
	}
	return nil
}

// SearchMessages performs a server-side text search within a room.
func (s *DirectSession) SearchMessages(ctx context.Context, roomID ref.RoomID, searchText string, count int) ([]Message, error) {
	query := url.Values{
		"roomId":     {roomID.String()},
		"searchText": {searchText},
		"count":      {strconv.Itoa(count)},
	}
	body, err := s.do(ctx, http.MethodGet, "/chat.search", nil, query)
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", roomID, err)
	}
	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding search results: %w", err)
	}
	return resp.Messages, nil
}

// PinnedMessages lists a room's pinned messages.
func (s *DirectSession) PinnedMessages(ctx context.Context, roomID ref.RoomID, count int) ([]Message, error) {
	query := url.Values{
		"roomId": {roomID.String()},
		"count":  {strconv.Itoa(count)},
	}
	body, err := s.do(ctx, http.MethodGet, "/chat.getPinnedMessages", nil, query)
	if err != nil {
		return nil, fmt.Errorf("listing pinned messages for %s: %w", roomID, err)
	}
	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding pinned messages: %w", err)
	}
	return resp.Messages, nil
}

// Members lists a room's members.
func (s *DirectSession) Members(ctx context.Context, roomID ref.RoomID, kind ref.RoomKind) ([]Member, error) {
	query := url.Values{"roomId": {roomID.String()}}
	body, err := s.do(ctx, http.MethodGet, historyPath(kind, "members"), nil, query)
	if err != nil {
		return nil, fmt.Errorf("listing members of %s: %w", roomID, err)
	}
	var resp membersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding member list: %w", err)
	}
	return resp.Members, nil
}

// CreateDirectMessage opens (or returns the existing) DM room with the
// named user.
func (s *DirectSession) CreateDirectMessage(ctx context.Context, username string) (*Room, error) {
	request := map[string]any{"username": username}
	body, err := s.do(ctx, http.MethodPost, "/im.create", request)
	if err != nil {
		return nil, fmt.Errorf("creating direct message with %s: %w", username, err)
	}
	var resp imCreateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding direct message room: %w", err)
	}
	resp.Room.Kind = ref.DirectMessage
	return &resp.Room, nil
}

// Spotlight searches users and rooms by prefix for mention and room
// switcher completion.
func (s *DirectSession) Spotlight(ctx context.Context, queryText string) (*SpotlightResult, error) {
	query := url.Values{"query": {queryText}}
	body, err := s.do(ctx, http.MethodGet, "/spotlight", nil, query)
	if err != nil {
		return nil, fmt.Errorf("spotlight search: %w", err)
	}
	var result SpotlightResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding spotlight results: %w", err)
	}
	return &result, nil
}

// SetStatus updates the authenticated user's presence status and
// optional status text. status is one of "online", "away", "busy",
// "offline".
func (s *DirectSession) SetStatus(ctx context.Context, status, message string) error {
	request := map[string]any{"status": status}
	if message != "" {
		request["message"] = message
	}
	if _, err := s.do(ctx, http.MethodPost, "/users.setStatus", request); err != nil {
		return fmt.Errorf("setting status: %w", err)
	}
	return nil
}

// SetAvatar points the authenticated user's avatar at an image URL.
func (s *DirectSession) SetAvatar(ctx context.Context, avatarURL string) error {
	request := map[string]any{"avatarUrl": avatarURL}
	if _, err := s.do(ctx, http.MethodPost, "/users.setAvatar", request); err != nil {
		return fmt.Errorf("setting avatar: %w", err)
	}
	return nil
}

// UpdateProfile changes the authenticated user's own basic info. Zero
// fields in req are left unchanged. Changing the password requires
// CurrentPassword.
func (s *DirectSession) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Profile, error) {
	data := map[string]any{}
	if req.Name != "" {
		data["name"] = req.Name
	}
	if req.Username != "" {
		data["username"] = req.Username
	}
	if req.Email != "" {
		data["email"] = req.Email
	}
	if req.NewPassword != "" {
		data["newPassword"] = req.NewPassword
		data["currentPassword"] = req.CurrentPassword
	}
	body, err := s.do(ctx, http.MethodPost, "/users.updateOwnBasicInfo", map[string]any{"data": data})
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	var resp userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding updated profile: %w", err)
	}
	s.mu.Lock()
	s.profile = &resp.User
	s.mu.Unlock()
	return &resp.User, nil
}
