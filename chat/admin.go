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

	"github.com/skiff-chat/skiff/lib/ref"
)

// Administration operations. The server enforces authorization; calls
// made without the admin role fail with a not-allowed APIError.

// CreateUser registers a new user account.
func (s *DirectSession) CreateUser(ctx context.Context, req CreateUserRequest) (*Profile, error) {
	body, err := s.do(ctx, http.MethodPost, "/users.create", req)
	if err != nil {
		return nil, fmt.Errorf("creating user %s: %w", req.Username, err)
	}
	var resp userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding created user: %w", err)
	}
	return &resp.User, nil
}

// ListUsers pages through the server's user directory. offset and
// count follow the server's paging convention; count 0 uses the
// server default.
func (s *DirectSession) ListUsers(ctx context.Context, offset, count int) ([]Profile, error) {
	query := url.Values{"offset": {strconv.Itoa(offset)}}
	if count > 0 {
		query.Set("count", strconv.Itoa(count))
	}
	body, err := s.do(ctx, http.MethodGet, "/users.list", nil, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	var resp usersListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding user list: %w", err)
	}
	return resp.Users, nil
}

// CreateChannel creates a public channel (private false) or a private
// group (private true) with the given initial members.
func (s *DirectSession) CreateChannel(ctx context.Context, name string, members []string, private bool) (*Room, error) {
	request := map[string]any{"name": name}
	if len(members) > 0 {
		request["members"] = members
	}
	path := "/channels.create"
	if private {
		path = "/groups.create"
	}
	body, err := s.do(ctx, http.MethodPost, path, request)
	if err != nil {
		return nil, fmt.Errorf("creating channel %s: %w", name, err)
	}
	if private {
		var resp groupResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decoding created group: %w", err)
		}
		return &resp.Group, nil
	}
	var resp channelResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding created channel: %w", err)
	}
	return &resp.Channel, nil
}

// DeleteChannel removes a channel and its history.
func (s *DirectSession) DeleteChannel(ctx context.Context, roomID ref.RoomID) error {
	request := map[string]any{"roomId": roomID.String()}
	if _, err := s.do(ctx, http.MethodPost, "/channels.delete", request); err != nil {
		return fmt.Errorf("deleting channel %s: %w", roomID, err)
	}
	return nil
}

// SetTopic replaces a channel's topic.
func (s *DirectSession) SetTopic(ctx context.Context, roomID ref.RoomID, topic string) error {
	request := map[string]any{"roomId": roomID.String(), "topic": topic}
	if _, err := s.do(ctx, http.MethodPost, "/channels.setTopic", request); err != nil {
		return fmt.Errorf("setting topic for %s: %w", roomID, err)
	}
	return nil
}

// SetDescription replaces a channel's description.
func (s *DirectSession) SetDescription(ctx context.Context, roomID ref.RoomID, description string) error {
	request := map[string]any{"roomId": roomID.String(), "description": description}
	if _, err := s.do(ctx, http.MethodPost, "/channels.setDescription", request); err != nil {
		return fmt.Errorf("setting description for %s: %w", roomID, err)
	}
	return nil
}

// AddMember invites a user into a channel.
func (s *DirectSession) AddMember(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error {
	request := map[string]any{"roomId": roomID.String(), "userId": userID.String()}
	if _, err := s.do(ctx, http.MethodPost, "/channels.invite", request); err != nil {
		return fmt.Errorf("inviting %s to %s: %w", userID, roomID, err)
	}
	return nil
}

// RemoveMember kicks a user from a channel.
func (s *DirectSession) RemoveMember(ctx context.Context, roomID ref.RoomID, userID ref.UserID) error {
	request := map[string]any{"roomId": roomID.String(), "userId": userID.String()}
	if _, err := s.do(ctx, http.MethodPost, "/channels.kick", request); err != nil {
		return fmt.Errorf("removing %s from %s: %w", userID, roomID, err)
	}
	return nil
}
