// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/skiff-chat/skiff/lib/ref"
)

const (
	testUserID = "u-alice"
	testToken  = "tok-123"
	testRoomID = "GENERAL"
)

// newTestSession returns a token-based session backed by an httptest
// server serving mux. Every handler should call assertAuth first.
func newTestSession(t *testing.T, mux *http.ServeMux) *DirectSession {
	t.Helper()
	client := newTestClient(t, mux)
	session, err := client.SessionFromToken(ref.MustParseUserID(testUserID), testToken)
	if err != nil {
		t.Fatalf("SessionFromToken: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func assertAuth(t *testing.T, r *http.Request) {
	t.Helper()
	if got := r.Header.Get("X-Auth-Token"); got != testToken {
		t.Errorf("X-Auth-Token = %q, want %q", got, testToken)
	}
	if got := r.Header.Get("X-User-Id"); got != testUserID {
		t.Errorf("X-User-Id = %q, want %q", got, testUserID)
	}
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		t.Fatalf("decoding request body: %v", err)
	}
	return body
}

func TestMe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		writeJSON(t, w, map[string]any{
			"success":  true,
			"_id":      testUserID,
			"username": "alice",
			"name":     "Alice",
			"roles":    []string{"user"},
		})
	})

	session := newTestSession(t, mux)
	if session.Username() != "" {
		t.Errorf("username before Me = %q, want empty", session.Username())
	}

	profile, err := session.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if profile.Username != "alice" || profile.IsAdmin() {
		t.Errorf("profile = %+v", profile)
	}
	if session.Username() != "alice" {
		t.Errorf("username after Me = %q", session.Username())
	}
}

func TestMeRevokedToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(t, w, map[string]any{"status": "error", "message": "Unauthorized"})
	})

	_, err := newTestSession(t, mux).Me(context.Background())
	if !IsUnauthorized(err) {
		t.Errorf("err = %v, want unauthorized", err)
	}
}

func TestLogoutAndClose(t *testing.T) {
	logoutCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		logoutCalls++
		writeJSON(t, w, map[string]any{"status": "success"})
	})

	session := newTestSession(t, mux)
	if err := session.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if logoutCalls != 1 {
		t.Errorf("logout calls = %d", logoutCalls)
	}

	if err := session.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := session.Rooms(context.Background()); err == nil {
		t.Error("expected error using a closed session")
	}
}

func TestRooms(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/rooms.get", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		writeJSON(t, w, map[string]any{
			"success": true,
			"update": []map[string]any{
				{"_id": testRoomID, "t": "c", "name": "general", "usersCount": 12},
				{"_id": "dm1", "t": "d", "usernames": []string{"alice", "bob"}},
			},
		})
	})

	rooms, err := newTestSession(t, mux).Rooms(context.Background())
	if err != nil {
		t.Fatalf("Rooms: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("got %d rooms", len(rooms))
	}
	if rooms[0].Kind != ref.Channel || rooms[0].DisplayName("alice") != "general" {
		t.Errorf("room 0 = %+v", rooms[0])
	}
	if rooms[1].Kind != ref.DirectMessage || rooms[1].DisplayName("alice") != "bob" {
		t.Errorf("room 1 = %+v", rooms[1])
	}
}

func TestHistoryEndpointByKind(t *testing.T) {
	cases := []struct {
		kind ref.RoomKind
		path string
	}{
		{ref.Channel, "/api/v1/channels.history"},
		{ref.PrivateGroup, "/api/v1/groups.history"},
		{ref.DirectMessage, "/api/v1/im.history"},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET "+tc.path, func(w http.ResponseWriter, r *http.Request) {
				assertAuth(t, r)
				if r.URL.Query().Get("roomId") != testRoomID {
					t.Errorf("roomId = %q", r.URL.Query().Get("roomId"))
				}
				if r.URL.Query().Get("count") != "50" {
					t.Errorf("count = %q", r.URL.Query().Get("count"))
				}
				writeJSON(t, w, map[string]any{
					"success": true,
					"messages": []map[string]any{
						{
							"_id": "m2", "rid": testRoomID, "msg": "newest",
							"ts": "2026-02-01T10:00:05Z",
							"u":  map[string]any{"_id": "u-bob", "username": "bob"},
						},
						{
							"_id": "m1", "rid": testRoomID, "msg": "older",
							"ts": "2026-02-01T10:00:00Z",
							"u":  map[string]any{"_id": "u-bob", "username": "bob"},
						},
					},
				})
			})

			messages, err := newTestSession(t, mux).History(
				context.Background(), ref.MustParseRoomID(testRoomID), tc.kind, 50)
			if err != nil {
				t.Fatalf("History: %v", err)
			}
			if len(messages) != 2 || messages[0].ID.String() != "m2" {
				t.Errorf("messages = %+v", messages)
			}
			if messages[0].Timestamp.IsZero() {
				t.Error("timestamp not decoded")
			}
		})
	}
}

func TestSendMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat.sendMessage", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		body := decodeBody(t, r)
		message, ok := body["message"].(map[string]any)
		if !ok || message["rid"] != testRoomID || message["msg"] != "hello" {
			t.Errorf("body = %v", body)
		}
		writeJSON(t, w, map[string]any{
			"success": true,
			"message": map[string]any{
				"_id": "m9", "rid": testRoomID, "msg": "hello",
				"ts": "2026-02-01T12:00:00Z",
				"u":  map[string]any{"_id": testUserID, "username": "alice"},
			},
		})
	})

	sent, err := newTestSession(t, mux).SendMessage(
		context.Background(), ref.MustParseRoomID(testRoomID), "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if sent.ID.String() != "m9" || sent.Body != "hello" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestUpdateMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat.update", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		body := decodeBody(t, r)
		if body["roomId"] != testRoomID || body["msgId"] != "m9" || body["text"] != "edited" {
			t.Errorf("body = %v", body)
		}
		writeJSON(t, w, map[string]any{
			"success": true,
			"message": map[string]any{
				"_id": "m9", "rid": testRoomID, "msg": "edited",
				"ts":       "2026-02-01T12:00:00Z",
				"editedAt": "2026-02-01T12:05:00Z",
				"u":        map[string]any{"_id": testUserID, "username": "alice"},
			},
		})
	})

	updated, err := newTestSession(t, mux).UpdateMessage(context.Background(),
		ref.MustParseRoomID(testRoomID), ref.MustParseMessageID("m9"), "edited")
	if err != nil {
		t.Fatalf("UpdateMessage: %v", err)
	}
	if updated.Body != "edited" || !updated.Edited() {
		t.Errorf("updated = %+v", updated)
	}
}

func TestDeleteMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat.delete", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		body := decodeBody(t, r)
		if body["roomId"] != testRoomID || body["msgId"] != "m9" || body["asUser"] != true {
			t.Errorf("body = %v", body)
		}
		writeJSON(t, w, map[string]any{"success": true})
	})

	err := newTestSession(t, mux).DeleteMessage(context.Background(),
		ref.MustParseRoomID(testRoomID), ref.MustParseMessageID("m9"))
	if err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
}

func TestReact(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat.react", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		body := decodeBody(t, r)
		// Bare emoji names are wrapped in colons on the wire.
		if body["emoji"] != ":tada:" || body["messageId"] != "m9" || body["shouldReact"] != true {
			t.Errorf("body = %v", body)
		}
		writeJSON(t, w, map[string]any{"success": true})
	})

	err := newTestSession(t, mux).React(context.Background(),
		ref.MustParseMessageID("m9"), "tada", true)
	if err != nil {
		t.Fatalf("React: %v", err)
	}
}

func TestPinUnpin(t *testing.T) {
	var pinned, unpinned bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/chat.pin", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		if decodeBody(t, r)["messageId"] != "m9" {
			t.Error("wrong messageId")
		}
		pinned = true
		writeJSON(t, w, map[string]any{"success": true})
	})
	mux.HandleFunc("POST /api/v1/chat.unPin", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		unpinned = true
		writeJSON(t, w, map[string]any{"success": true})
	})

	session := newTestSession(t, mux)
	messageID := ref.MustParseMessageID("m9")
	if err := session.PinMessage(context.Background(), messageID); err != nil {
		t.Fatalf("PinMessage: %v", err)
	}
	if err := session.UnpinMessage(context.Background(), messageID); err != nil {
		t.Fatalf("UnpinMessage: %v", err)
	}
	if !pinned || !unpinned {
		t.Errorf("pinned=%v unpinned=%v", pinned, unpinned)
	}
}

func TestSearchMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/chat.search", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		q := r.URL.Query()
		if q.Get("roomId") != testRoomID || q.Get("searchText") != "deploy" {
			t.Errorf("query = %v", q)
		}
		writeJSON(t, w, map[string]any{
			"success": true,
			"messages": []map[string]any{{
				"_id": "m5", "rid": testRoomID, "msg": "deploy went fine",
				"ts": "2026-02-01T09:00:00Z",
				"u":  map[string]any{"_id": "u-bob", "username": "bob"},
			}},
		})
	})

	results, err := newTestSession(t, mux).SearchMessages(
		context.Background(), ref.MustParseRoomID(testRoomID), "deploy", 25)
	if err != nil {
		t.Fatalf("SearchMessages: %v", err)
	}
	if len(results) != 1 || results[0].Body != "deploy went fine" {
		t.Errorf("results = %+v", results)
	}
}

func TestPinnedMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/chat.getPinnedMessages", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		writeJSON(t, w, map[string]any{
			"success": true,
			"messages": []map[string]any{{
				"_id": "m3", "rid": testRoomID, "msg": "read the runbook",
				"ts": "2026-01-15T08:00:00Z", "pinned": true,
				"u": map[string]any{"_id": "u-bob", "username": "bob"},
			}},
		})
	})

	pinned, err := newTestSession(t, mux).PinnedMessages(
		context.Background(), ref.MustParseRoomID(testRoomID), 50)
	if err != nil {
		t.Fatalf("PinnedMessages: %v", err)
	}
	if len(pinned) != 1 || !pinned[0].Pinned {
		t.Errorf("pinned = %+v", pinned)
	}
}

func TestMembersEndpointByKind(t *testing.T) {
	cases := []struct {
		kind ref.RoomKind
		path string
	}{
		{ref.Channel, "/api/v1/channels.members"},
		{ref.PrivateGroup, "/api/v1/groups.members"},
		{ref.DirectMessage, "/api/v1/im.members"},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET "+tc.path, func(w http.ResponseWriter, r *http.Request) {
				assertAuth(t, r)
				writeJSON(t, w, map[string]any{
					"success": true,
					"members": []map[string]any{
						{"_id": "u-bob", "username": "bob", "status": "online"},
					},
				})
			})

			members, err := newTestSession(t, mux).Members(
				context.Background(), ref.MustParseRoomID(testRoomID), tc.kind)
			if err != nil {
				t.Fatalf("Members: %v", err)
			}
			if len(members) != 1 || members[0].Username != "bob" {
				t.Errorf("members = %+v", members)
			}
		})
	}
}

func TestCreateDirectMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/im.create", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		if decodeBody(t, r)["username"] != "bob" {
			t.Error("wrong username")
		}
		writeJSON(t, w, map[string]any{
			"success": true,
			"room": map[string]any{
				"_id": "dm1", "usernames": []string{"alice", "bob"},
			},
		})
	})

	room, err := newTestSession(t, mux).CreateDirectMessage(context.Background(), "bob")
	if err != nil {
		t.Fatalf("CreateDirectMessage: %v", err)
	}
	if room.Kind != ref.DirectMessage {
		t.Errorf("kind = %q, want direct", room.Kind)
	}
	if room.DisplayName("alice") != "bob" {
		t.Errorf("display name = %q", room.DisplayName("alice"))
	}
}

func TestSpotlight(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/spotlight", func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		if r.URL.Query().Get("query") != "bo" {
			t.Errorf("query = %q", r.URL.Query().Get("query"))
		}
		writeJSON(t, w, map[string]any{
			"success": true,
			"users":   []map[string]any{{"_id": "u-bob", "username": "bob"}},
			"rooms":   []map[string]any{{"_id": "boats", "t": "c", "name": "boats"}},
		})
	})

	result, err := newTestSession(t, mux).Spotlight(context.Background(), "bo")
	if err != nil {
		t.Fatalf("Spotlight: %v", err)
	}
	if len(result.Users) != 1 || len(result.Rooms) != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestAdminOperations(t *testing.T) {
	t.Run("create user", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v1/users.create", func(w http.ResponseWriter, r *http.Request) {
			assertAuth(t, r)
			body := decodeBody(t, r)
			if body["username"] != "carol" || body["email"] != "carol@example.com" {
				t.Errorf("body = %v", body)
			}
			writeJSON(t, w, map[string]any{
				"success": true,
				"user":    map[string]any{"_id": "u-carol", "username": "carol"},
			})
		})

		user, err := newTestSession(t, mux).CreateUser(context.Background(), CreateUserRequest{
			Name:     "Carol",
			Username: "carol",
			Email:    "carol@example.com",
			Password: "s3cret",
			Verified: true,
		})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if user.Username != "carol" {
			t.Errorf("user = %+v", user)
		}
	})

	t.Run("create user not allowed", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v1/users.create", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			writeJSON(t, w, map[string]any{
				"success": false, "error": "not allowed", "errorType": "error-not-allowed",
			})
		})

		_, err := newTestSession(t, mux).CreateUser(context.Background(), CreateUserRequest{Username: "carol"})
		if !IsAPIError(err, ErrTypeNotAllowed) {
			t.Errorf("err = %v, want not-allowed", err)
		}
		if IsUnauthorized(err) {
			t.Error("permission denial must not read as unauthorized")
		}
	})

	t.Run("create channel", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v1/channels.create", func(w http.ResponseWriter, r *http.Request) {
			assertAuth(t, r)
			body := decodeBody(t, r)
			if body["name"] != "incidents" {
				t.Errorf("body = %v", body)
			}
			writeJSON(t, w, map[string]any{
				"success": true,
				"channel": map[string]any{"_id": "incidents", "t": "c", "name": "incidents"},
			})
		})

		room, err := newTestSession(t, mux).CreateChannel(
			context.Background(), "incidents", []string{"bob"}, false)
		if err != nil {
			t.Fatalf("CreateChannel: %v", err)
		}
		if room.Kind != ref.Channel {
			t.Errorf("room = %+v", room)
		}
	})

	t.Run("create private group", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/v1/groups.create", func(w http.ResponseWriter, r *http.Request) {
			assertAuth(t, r)
			writeJSON(t, w, map[string]any{
				"success": true,
				"group":   map[string]any{"_id": "sec", "t": "p", "name": "sec"},
			})
		})

		room, err := newTestSession(t, mux).CreateChannel(context.Background(), "sec", nil, true)
		if err != nil {
			t.Fatalf("CreateChannel private: %v", err)
		}
		if room.Kind != ref.PrivateGroup {
			t.Errorf("room = %+v", room)
		}
	})

	t.Run("membership and metadata", func(t *testing.T) {
		paths := map[string]bool{}
		mux := http.NewServeMux()
		for _, p := range []string{"channels.delete", "channels.setTopic",
			"channels.setDescription", "channels.invite", "channels.kick"} {
			path := p
			mux.HandleFunc("POST /api/v1/"+path, func(w http.ResponseWriter, r *http.Request) {
				assertAuth(t, r)
				if decodeBody(t, r)["roomId"] != testRoomID {
					t.Errorf("%s: wrong roomId", path)
				}
				paths[path] = true
				writeJSON(t, w, map[string]any{"success": true})
			})
		}

		session := newTestSession(t, mux)
		ctx := context.Background()
		roomID := ref.MustParseRoomID(testRoomID)
		bob := ref.MustParseUserID("u-bob")
		if err := session.SetTopic(ctx, roomID, "release week"); err != nil {
			t.Fatalf("SetTopic: %v", err)
		}
		if err := session.SetDescription(ctx, roomID, "what ships when"); err != nil {
			t.Fatalf("SetDescription: %v", err)
		}
		if err := session.AddMember(ctx, roomID, bob); err != nil {
			t.Fatalf("AddMember: %v", err)
		}
		if err := session.RemoveMember(ctx, roomID, bob); err != nil {
			t.Fatalf("RemoveMember: %v", err)
		}
		if err := session.DeleteChannel(ctx, roomID); err != nil {
			t.Fatalf("DeleteChannel: %v", err)
		}
		if len(paths) != 5 {
			t.Errorf("endpoints hit = %v", paths)
		}
	})
}

func TestUploadFile(t *testing.T) {
	fileData := strings.Repeat("x", 4096)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/rooms.upload/"+testRoomID, func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart: %v", err)
		}
		if got := r.FormValue("msg"); got != "the logs" {
			t.Errorf("msg field = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("reading file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "crash.log" {
			t.Errorf("filename = %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
			t.Errorf("content type = %q", ct)
		}
		data, err := io.ReadAll(file)
		if err != nil {
			t.Fatalf("reading file data: %v", err)
		}
		if string(data) != fileData {
			t.Errorf("file data: got %d bytes, want %d", len(data), len(fileData))
		}
		writeJSON(t, w, map[string]any{
			"success": true,
			"message": map[string]any{
				"_id": "m10", "rid": testRoomID, "msg": "the logs",
				"ts": "2026-02-01T13:00:00Z",
				"u":  map[string]any{"_id": testUserID, "username": "alice"},
				"attachments": []map[string]any{
					{"title": "crash.log", "title_link": "/file-upload/abc/crash.log", "type": "file"},
				},
			},
		})
	})

	var lastProgress int64
	message, err := newTestSession(t, mux).UploadFile(context.Background(),
		ref.MustParseRoomID(testRoomID),
		UploadRequest{
			Filename:    "crash.log",
			ContentType: "text/plain; charset=utf-8",
			Size:        int64(len(fileData)),
			Message:     "the logs",
			Progress:    func(sent int64) { lastProgress = sent },
		},
		strings.NewReader(fileData))
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if len(message.Attachments) != 1 || message.Attachments[0].Title != "crash.log" {
		t.Errorf("message = %+v", message)
	}
	if lastProgress != int64(len(fileData)) {
		t.Errorf("progress = %d, want %d", lastProgress, len(fileData))
	}
}

func TestDetectContentType(t *testing.T) {
	if got := DetectContentType("photo.PNG"); got != "image/png" {
		t.Errorf("png = %q", got)
	}
	if got := DetectContentType("core.dump"); got != "application/octet-stream" {
		t.Errorf("unknown = %q", got)
	}
	if got := DetectContentType("README"); got != "application/octet-stream" {
		t.Errorf("no extension = %q", got)
	}
}

func TestUploadFileValidation(t *testing.T) {
	session := newTestSession(t, http.NewServeMux())
	_, err := session.UploadFile(context.Background(),
		ref.MustParseRoomID(testRoomID), UploadRequest{}, strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected error for missing filename")
	}
}
