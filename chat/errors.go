// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a structured error response from the chat
// server. Callers can use errors.As to extract the structured
// information:
//
//	var apiErr *chat.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.Type == chat.ErrTypeRoomNotFound { ... }
//	}
type APIError struct {
	// Type is the server's machine-readable error type
	// (e.g., "error-room-not-found", "unauthorized").
	Type string `json:"errorType"`
	// Message is the human-readable error description from the server.
	Message string `json:"error"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *APIError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("chat: server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("chat: %s (%d): %s", e.Type, e.StatusCode, e.Message)
}

// Error type strings the server emits.
const (
	ErrTypeUnauthorized    = "unauthorized"
	ErrTypeNotAllowed      = "error-not-allowed"
	ErrTypeRoomNotFound    = "error-room-not-found"
	ErrTypeMessageNotFound = "error-message-not-found"
	ErrTypeInvalidUser     = "error-invalid-user"
	ErrTypeInvalidRoom     = "error-invalid-room"
	ErrTypeInvalidChannel  = "error-invalid-channel"
	ErrTypeDuplicateName   = "error-duplicate-channel-name"
	ErrTypeFieldRequired   = "error-the-field-is-required"
)

// IsAPIError checks whether err is a *APIError with the given error
// type.
func IsAPIError(err error, errorType string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == errorType
	}
	return false
}

// IsUnauthorized reports whether err is a genuine authentication
// rejection from the server: HTTP 401 or the "unauthorized" error
// type. Transport failures (timeouts, refused connections, DNS) are
// NOT unauthorized; session validation treats only this error class
// as grounds for discarding stored credentials.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.Type == ErrTypeUnauthorized
}
