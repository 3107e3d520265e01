// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/skiff-chat/skiff/lib/netutil"
	"github.com/skiff-chat/skiff/lib/ref"
	"github.com/skiff-chat/skiff/lib/secret"
)

// apiPrefix is the REST API root on the chat server.
const apiPrefix = "/api/v1"

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// ServerURL is the base URL of the chat server
	// (e.g., "https://chat.example.com").
	ServerURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is an unauthenticated chat client. It holds the server URL
// and HTTP transport, shared across sessions.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new unauthenticated chat client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.ServerURL == "" {
		return nil, fmt.Errorf("chat: ServerURL is required")
	}

	// Validate the URL structure. The string form (trailing slash
	// stripped) is stored and request URLs are built by direct
	// concatenation, avoiding url.URL re-encoding surprises on paths
	// with encoded segments.
	if _, err := url.Parse(config.ServerURL); err != nil {
		return nil, fmt.Errorf("chat: invalid ServerURL %q: %w", config.ServerURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.ServerURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. Call after a network disruption to
// force subsequent requests onto fresh TCP connections instead of a
// poisoned pooled one.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// ServerInfo fetches the server version. Unauthenticated; useful for
// checking whether the server is reachable before attempting login.
func (c *Client) ServerInfo(ctx context.Context) (*ServerInfo, error) {
	body, err := c.doRequest(ctx, http.MethodGet, apiPrefix+"/info", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chat: server info failed: %w", err)
	}

	var response serverInfoResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("chat: failed to parse info response: %w", err)
	}
	return &response.Info, nil
}

// Login authenticates with username and password, returning a
// DirectSession. The password Buffer is read but not closed; the
// caller retains ownership.
//
// The caller must call Close on the returned session to release the
// protected token memory.
func (c *Client) Login(ctx context.Context, username string, password *secret.Buffer) (*DirectSession, error) {
	if username == "" {
		return nil, fmt.Errorf("chat: username is required for login")
	}
	if password == nil {
		return nil, fmt.Errorf("chat: password is required for login")
	}

	// Password is converted to string at the JSON serialization
	// boundary. The heap copy is short-lived; it exists only during
	// the HTTP call.
	loginRequest := map[string]any{
		"user":     username,
		"password": password.String(),
	}

	body, err := c.doRequest(ctx, http.MethodPost, apiPrefix+"/login", nil, loginRequest)
	if err != nil {
		return nil, fmt.Errorf("chat: login failed: %w", err)
	}

	var response loginResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("chat: failed to parse login response: %w", err)
	}
	if response.Status != "success" || response.Data.AuthToken == "" {
		return nil, fmt.Errorf("chat: login rejected with status %q", response.Status)
	}

	c.logger.Info("logged in to chat server",
		"user_id", response.Data.UserID,
		"username", response.Data.Me.Username,
	)

	tokenBuffer, err := secret.NewFromString(response.Data.AuthToken)
	if err != nil {
		return nil, fmt.Errorf("chat: protecting auth token: %w", err)
	}
	return &DirectSession{
		client:    c,
		authToken: tokenBuffer,
		userID:    response.Data.UserID,
		profile:   &response.Data.Me,
	}, nil
}

// SessionFromToken creates a DirectSession from an existing auth
// token string. The token is moved into mmap-backed memory (locked
// against swap, excluded from core dumps).
//
// This does NOT validate the token; call Me to check it. The caller
// must call Close on the returned session.
func (c *Client) SessionFromToken(userID ref.UserID, authToken string) (*DirectSession, error) {
	if userID.IsZero() {
		return nil, fmt.Errorf("chat: user ID is required for a token session")
	}
	tokenBuffer, err := secret.NewFromString(authToken)
	if err != nil {
		return nil, fmt.Errorf("chat: protecting auth token: %w", err)
	}
	return &DirectSession{
		client:    c,
		authToken: tokenBuffer,
		userID:    userID,
	}, nil
}

// auth carries the credentials doRequest attaches to a request.
// nil means unauthenticated.
type auth struct {
	token  *secret.Buffer
	userID ref.UserID
}

// doRequest performs an HTTP request against the server and returns
// the response body. On 2xx, returns the body. On any other status,
// returns the body alongside a *APIError decoded from it.
// credentials may be nil for unauthenticated endpoints. query may be
// omitted for endpoints without query parameters.
func (c *Client) doRequest(ctx context.Context, method, path string, credentials *auth, requestBody any, query ...url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		requestURL += "?" + query[0].Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("chat: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to create request: %w", err)
	}

	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeaders(request, credentials)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("chat: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	return responseBody, decodeAPIError(response.StatusCode, method, path, responseBody)
}

// doRequestRaw performs an HTTP request with a caller-built body (for
// multipart upload). contentType must describe the body encoding.
func (c *Client) doRequestRaw(ctx context.Context, method, path string, credentials *auth, contentType string, body io.Reader) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to create request: %w", err)
	}

	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	c.setAuthHeaders(request, credentials)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("chat: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("chat: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	return nil, decodeAPIError(response.StatusCode, method, path, responseBody)
}

func (c *Client) setAuthHeaders(request *http.Request, credentials *auth) {
	if credentials == nil {
		return
	}
	request.Header.Set("X-Auth-Token", credentials.token.String())
	request.Header.Set("X-User-Id", credentials.userID.String())
}

// decodeAPIError converts a non-2xx response body into a *APIError.
// The server uses two error shapes: {"success":false,"error":...,
// "errorType":...} for most endpoints and {"status":"error",
// "message":...} for the auth endpoints. Both are folded into the
// same APIError.
func decodeAPIError(statusCode int, method, path string, body []byte) error {
	var apiErr APIError
	if jsonErr := json.Unmarshal(body, &apiErr); jsonErr != nil {
		// Non-JSON error body. Should not happen with a conformant
		// server; fail loud with the raw body.
		return fmt.Errorf("chat: unexpected %d response from %s %s: %s",
			statusCode, method, path, string(body))
	}

	if apiErr.Message == "" {
		// Auth-endpoint shape.
		var authShape struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &authShape) == nil {
			apiErr.Message = authShape.Message
		}
	}
	if statusCode == http.StatusUnauthorized && apiErr.Type == "" {
		apiErr.Type = ErrTypeUnauthorized
	}

	apiErr.StatusCode = statusCode
	return &apiErr
}
