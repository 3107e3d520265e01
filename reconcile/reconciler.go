// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/clock"
	"github.com/skiff-chat/skiff/lib/ref"
)

const (
	// DefaultPollInterval is the period between history re-fetches.
	DefaultPollInterval = 3 * time.Second

	// DefaultPageSize is the number of most recent messages fetched
	// per poll.
	DefaultPageSize = 50
)

// Options configures a Reconciler. Zero values select defaults.
type Options struct {
	// PollInterval is the period between history re-fetches. Defaults
	// to DefaultPollInterval.
	PollInterval time.Duration

	// PageSize is the number of most recent messages fetched per
	// poll. Defaults to DefaultPageSize.
	PageSize int

	// Clock drives the poll ticker. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives fetch and mutation diagnostics. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Snapshot is an immutable view of the active room's state, delivered
// on Updates whenever the view changes. Messages is the displayed
// list: the canonical list, or its filtered subset when a query is
// set. Subscribers must not mutate it.
type Snapshot struct {
	// Room is the active room, zero-valued when none is selected.
	Room chat.Room

	// Epoch identifies the room selection this snapshot belongs to.
	// It increases on every SetRoom call.
	Epoch uint64

	// Messages is the displayed message list in chronological order.
	Messages []chat.Message

	// Query is the active filter query, empty when the canonical list
	// is displayed unfiltered.
	Query string

	// Err is the room-level fetch error, nil when the last fetch
	// succeeded. Set by a failed poll or Refresh; cleared by the next
	// successful fetch.
	Err error
}

// Reconciler maintains the canonical message list for one room at a
// time. Safe for concurrent use: mutations may be issued from UI
// goroutines while Run polls in the background.
type Reconciler struct {
	session  chat.Session
	clk      clock.Clock
	interval time.Duration
	pageSize int
	logger   *slog.Logger

	updates chan Snapshot

	mu        sync.Mutex
	epoch     uint64
	room      chat.Room
	canonical []chat.Message
	pinned    []chat.Message
	hasPinned bool
	query     string
	fetchErr  error
}

// New creates a Reconciler over the given session. No room is
// selected; call SetRoom before Run delivers anything.
func New(session chat.Session, opts Options) *Reconciler {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Reconciler{
		session:  session,
		clk:      opts.Clock,
		interval: opts.PollInterval,
		pageSize: opts.PageSize,
		logger:   opts.Logger,
		updates:  make(chan Snapshot, 1),
	}
}

// Updates returns the snapshot stream. The channel has capacity one
// with latest-wins delivery: a slow consumer sees the newest snapshot,
// never a backlog of stale ones. Snapshots are only delivered when the
// view actually changed.
func (r *Reconciler) Updates() <-chan Snapshot { return r.updates }

// Snapshot returns the current view for pull-based callers.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// SetRoom switches the active room: the previous room's state is
// discarded, one page of history is fetched synchronously, and the
// poll loop (if running) continues against the new room. Any in-flight
// fetch or mutation for the previous room is discarded when it lands.
func (r *Reconciler) SetRoom(ctx context.Context, room chat.Room) error {
	r.mu.Lock()
	r.epoch++
	epoch := r.epoch
	r.room = room
	r.canonical = nil
	r.pinned = nil
	r.hasPinned = false
	r.query = ""
	r.fetchErr = nil
	r.mu.Unlock()

	r.logger.Info("room selected", "room_id", room.ID, "kind", room.Kind, "epoch", epoch)
	return r.fetch(ctx, epoch, room)
}

// Run polls the active room until ctx is cancelled. Each tick
// re-fetches the page and replaces the canonical list; a snapshot is
// published only when the result differs from the previous one.
// Returns ctx.Err on cancellation.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := r.clk.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.mu.Lock()
			epoch, room := r.epoch, r.room
			r.mu.Unlock()
			if room.ID.IsZero() {
				continue
			}
			if err := r.fetch(ctx, epoch, room); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.logger.Warn("poll failed", "room_id", room.ID, "error", err)
			}
		}
	}
}

// Refresh re-fetches the active room immediately, clearing any
// room-level error on success. Manual retry for a failed poll.
func (r *Reconciler) Refresh(ctx context.Context) error {
	r.mu.Lock()
	epoch, room := r.epoch, r.room
	r.mu.Unlock()
	if room.ID.IsZero() {
		return fmt.Errorf("reconcile: no room selected")
	}
	return r.fetch(ctx, epoch, room)
}

// fetch loads one page of history and applies it under the epoch
// captured before the network call.
func (r *Reconciler) fetch(ctx context.Context, epoch uint64, room chat.Room) error {
	history, err := r.session.History(ctx, room.ID, room.Kind, r.pageSize)
	r.applySnapshot(epoch, history, err)
	if err != nil {
		return fmt.Errorf("reconcile: fetching %s: %w", room.ID, err)
	}
	return nil
}

// applySnapshot installs a fetch result. Results tagged with a stale
// epoch are dropped: the room changed while the request was in
// flight. Structural equality with the current canonical list
// suppresses the publish.
func (r *Reconciler) applySnapshot(epoch uint64, history []chat.Message, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if epoch != r.epoch {
		r.logger.Debug("dropping stale fetch", "fetch_epoch", epoch, "current_epoch", r.epoch)
		return
	}

	if err != nil {
		r.fetchErr = err
		r.publishLocked()
		return
	}

	messages := normalizeHistory(history)
	unchanged := r.fetchErr == nil && chat.MessagesEqual(r.canonical, messages)
	r.fetchErr = nil
	if unchanged {
		return
	}
	r.canonical = messages
	r.publishLocked()
}

// normalizeHistory converts a server history page (newest first) into
// the canonical form: chronological order, system notifications
// dropped, duplicate IDs collapsed to their first occurrence.
func normalizeHistory(history []chat.Message) []chat.Message {
	messages := make([]chat.Message, 0, len(history))
	seen := make(map[ref.MessageID]bool, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.IsSystem() || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		messages = append(messages, m)
	}
	return messages
}

// Send posts a message and, after the server confirms, appends the
// stored message to the canonical list. No pre-confirmation
// prediction: on failure the list is untouched.
func (r *Reconciler) Send(ctx context.Context, body string) error {
	epoch, room, err := r.activeRoom()
	if err != nil {
		return err
	}
	sent, err := r.session.SendMessage(ctx, room.ID, body)
	if err != nil {
		r.logger.Warn("send failed", "room_id", room.ID, "error", err)
		return fmt.Errorf("reconcile: sending message: %w", err)
	}
	r.patch(epoch, func() {
		if sent.IsSystem() {
			return
		}
		for i := range r.canonical {
			if r.canonical[i].ID == sent.ID {
				r.canonical[i] = *sent
				return
			}
		}
		r.canonical = append(r.canonical, *sent)
	})
	return nil
}

// Edit replaces a message's body server-side, then patches the
// canonical list (and the pinned panel, if loaded) with the confirmed
// message. Position in the list is preserved.
func (r *Reconciler) Edit(ctx context.Context, messageID ref.MessageID, body string) error {
	epoch, room, err := r.activeRoom()
	if err != nil {
		return err
	}
	updated, err := r.session.UpdateMessage(ctx, room.ID, messageID, body)
	if err != nil {
		r.logger.Warn("edit failed", "message_id", messageID, "error", err)
		return fmt.Errorf("reconcile: editing message: %w", err)
	}
	r.patch(epoch, func() {
		replaceByID(r.canonical, *updated)
		replaceByID(r.pinned, *updated)
	})
	return nil
}

// Delete removes a message server-side, then drops it from the
// canonical list and the pinned panel in the same operation.
func (r *Reconciler) Delete(ctx context.Context, messageID ref.MessageID) error {
	epoch, room, err := r.activeRoom()
	if err != nil {
		return err
	}
	if err := r.session.DeleteMessage(ctx, room.ID, messageID); err != nil {
		r.logger.Warn("delete failed", "message_id", messageID, "error", err)
		return fmt.Errorf("reconcile: deleting message: %w", err)
	}
	r.patch(epoch, func() {
		r.canonical = removeByID(r.canonical, messageID)
		r.pinned = removeByID(r.pinned, messageID)
	})
	return nil
}

// ToggleReaction flips the authenticated user's reaction with the
// given emoji. The direction is derived from the canonical list:
// present means remove, absent means add. Toggling twice restores the
// original state.
func (r *Reconciler) ToggleReaction(ctx context.Context, messageID ref.MessageID, emoji string) error {
	epoch, _, err := r.activeRoom()
	if err != nil {
		return err
	}
	username := r.session.Username()
	if username == "" {
		return fmt.Errorf("reconcile: session has no username for reaction toggle")
	}

	r.mu.Lock()
	target := findByID(r.canonical, messageID)
	if target == nil {
		r.mu.Unlock()
		return fmt.Errorf("reconcile: message %s not in canonical list", messageID)
	}
	shouldReact := !target.Reactions[chat.ReactionKey(emoji)].Contains(username)
	r.mu.Unlock()

	if err := r.session.React(ctx, messageID, emoji, shouldReact); err != nil {
		r.logger.Warn("reaction failed", "message_id", messageID, "emoji", emoji, "error", err)
		return fmt.Errorf("reconcile: toggling reaction: %w", err)
	}
	r.patch(epoch, func() {
		if m := findByID(r.canonical, messageID); m != nil {
			m.ToggleReaction(emoji, username)
		}
		if m := findByID(r.pinned, messageID); m != nil {
			m.ToggleReaction(emoji, username)
		}
	})
	return nil
}

// Pin pins a message, then marks it pinned locally and adds it to the
// pinned panel if that panel has been loaded.
func (r *Reconciler) Pin(ctx context.Context, messageID ref.MessageID) error {
	epoch, _, err := r.activeRoom()
	if err != nil {
		return err
	}
	if err := r.session.PinMessage(ctx, messageID); err != nil {
		r.logger.Warn("pin failed", "message_id", messageID, "error", err)
		return fmt.Errorf("reconcile: pinning message: %w", err)
	}
	r.patch(epoch, func() {
		m := findByID(r.canonical, messageID)
		if m == nil {
			return
		}
		m.Pinned = true
		if r.hasPinned && findByID(r.pinned, messageID) == nil {
			r.pinned = append(r.pinned, m.Clone())
		}
	})
	return nil
}

// Unpin removes a pin, then clears the flag locally and drops the
// message from the pinned panel.
func (r *Reconciler) Unpin(ctx context.Context, messageID ref.MessageID) error {
	epoch, _, err := r.activeRoom()
	if err != nil {
		return err
	}
	if err := r.session.UnpinMessage(ctx, messageID); err != nil {
		r.logger.Warn("unpin failed", "message_id", messageID, "error", err)
		return fmt.Errorf("reconcile: unpinning message: %w", err)
	}
	r.patch(epoch, func() {
		if m := findByID(r.canonical, messageID); m != nil {
			m.Pinned = false
		}
		r.pinned = removeByID(r.pinned, messageID)
	})
	return nil
}

// SetQuery switches the displayed view to a case-insensitive substring
// filter over the canonical list. An empty query restores the
// unfiltered poll-driven view. The canonical list keeps updating
// underneath either way.
func (r *Reconciler) SetQuery(query string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if query == r.query {
		return
	}
	r.query = query
	r.publishLocked()
}

// Search performs a server-side text search in the active room. The
// results are returned directly and do not change the displayed view;
// use SetQuery for view filtering.
func (r *Reconciler) Search(ctx context.Context, query string) ([]chat.Message, error) {
	_, room, err := r.activeRoom()
	if err != nil {
		return nil, err
	}
	results, err := r.session.SearchMessages(ctx, room.ID, query, r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("reconcile: searching %s: %w", room.ID, err)
	}
	return normalizeHistory(results), nil
}

// PinnedPanel fetches the active room's pinned messages. The list is
// retained so that subsequent edits, deletes, and reaction toggles on
// the canonical list mirror into it.
func (r *Reconciler) PinnedPanel(ctx context.Context) ([]chat.Message, error) {
	epoch, room, err := r.activeRoom()
	if err != nil {
		return nil, err
	}
	pinned, err := r.session.PinnedMessages(ctx, room.ID, r.pageSize)
	if err != nil {
		return nil, fmt.Errorf("reconcile: loading pinned messages for %s: %w", room.ID, err)
	}
	messages := normalizeHistory(pinned)

	r.mu.Lock()
	defer r.mu.Unlock()
	if epoch != r.epoch {
		return nil, fmt.Errorf("reconcile: room changed during pinned fetch")
	}
	r.pinned = messages
	r.hasPinned = true
	return cloneMessages(messages), nil
}

// MembersPanel fetches the active room's member list. Not retained:
// each modal open refetches.
func (r *Reconciler) MembersPanel(ctx context.Context) ([]chat.Member, error) {
	_, room, err := r.activeRoom()
	if err != nil {
		return nil, err
	}
	members, err := r.session.Members(ctx, room.ID, room.Kind)
	if err != nil {
		return nil, fmt.Errorf("reconcile: loading members of %s: %w", room.ID, err)
	}
	return members, nil
}

// activeRoom returns the current epoch and room, or an error when no
// room is selected.
func (r *Reconciler) activeRoom() (uint64, chat.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.room.ID.IsZero() {
		return 0, chat.Room{}, fmt.Errorf("reconcile: no room selected")
	}
	return r.epoch, r.room, nil
}

// patch applies a confirmed mutation to local state, unless the room
// changed while the server call was in flight.
func (r *Reconciler) patch(epoch uint64, apply func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if epoch != r.epoch {
		r.logger.Debug("dropping stale mutation result", "mutation_epoch", epoch, "current_epoch", r.epoch)
		return
	}
	apply()
	r.publishLocked()
}

// snapshotLocked builds the displayed view. Caller holds r.mu.
func (r *Reconciler) snapshotLocked() Snapshot {
	displayed := r.canonical
	if r.query != "" {
		needle := strings.ToLower(r.query)
		displayed = nil
		for _, m := range r.canonical {
			if strings.Contains(strings.ToLower(m.Body), needle) {
				displayed = append(displayed, m)
			}
		}
	}
	return Snapshot{
		Room:     r.room,
		Epoch:    r.epoch,
		Messages: cloneMessages(displayed),
		Query:    r.query,
		Err:      r.fetchErr,
	}
}

// publishLocked delivers the current view with latest-wins semantics:
// an unconsumed older snapshot is displaced. Caller holds r.mu.
func (r *Reconciler) publishLocked() {
	snapshot := r.snapshotLocked()
	for {
		select {
		case r.updates <- snapshot:
			return
		default:
		}
		select {
		case <-r.updates:
		default:
		}
	}
}

func findByID(messages []chat.Message, id ref.MessageID) *chat.Message {
	for i := range messages {
		if messages[i].ID == id {
			return &messages[i]
		}
	}
	return nil
}

func replaceByID(messages []chat.Message, updated chat.Message) {
	for i := range messages {
		if messages[i].ID == updated.ID {
			messages[i] = updated
			return
		}
	}
}

func removeByID(messages []chat.Message, id ref.MessageID) []chat.Message {
	for i := range messages {
		if messages[i].ID == id {
			return append(messages[:i], messages[i+1:]...)
		}
	}
	return messages
}

func cloneMessages(messages []chat.Message) []chat.Message {
	if messages == nil {
		return nil
	}
	cloned := make([]chat.Message, len(messages))
	for i := range messages {
		cloned[i] = messages[i].Clone()
	}
	return cloned
}
