// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/reconcile"
)

// Run starts the interactive client and blocks until the user quits.
// The reconciler's poll loop runs for the lifetime of the program;
// the TUI consumes its snapshots. persistRooms, when non-nil, receives
// every fresh room list fetched by the UI so the on-disk cache stays
// current; nil disables persistence.
func Run(ctx context.Context, reconciler *reconcile.Reconciler, session chat.Session, theme Theme, initialRooms []chat.Room, persistRooms func([]chat.Room)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pollDone := make(chan error, 1)
	go func() {
		pollDone <- reconciler.Run(ctx)
	}()

	model := NewModel(reconciler, session, theme, initialRooms, persistRooms)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("tui: %w", err)
	}

	cancel()
	if err := <-pollDone; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("tui: poll loop: %w", err)
	}
	return nil
}
