// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global key bindings. Navigation keys are
// context-sensitive: they move the sidebar cursor or scroll the
// message pane depending on focus.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Focus switching between sidebar and composer.
	FocusToggle key.Binding

	// RoomSwitcher activates the sidebar fuzzy filter.
	RoomSwitcher key.Binding

	// Search activates the message search input.
	Search key.Binding

	// Modals.
	Members key.Binding
	Pinned  key.Binding

	// Message-selection actions, active while the message cursor has
	// focus.
	DeleteMsg key.Binding
	EditMsg   key.Binding
	PinToggle key.Binding
	React     key.Binding

	// Dismiss closes the active modal, filter, search, or message
	// selection.
	Dismiss key.Binding

	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("PgUp", "scroll up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("PgDn", "scroll down"),
	),
	FocusToggle: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("Tab", "switch pane"),
	),
	RoomSwitcher: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("C-k", "switch room"),
	),
	Search: key.NewBinding(
		key.WithKeys("ctrl+f"),
		key.WithHelp("C-f", "search"),
	),
	Members: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("C-o", "members"),
	),
	Pinned: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("C-p", "pinned"),
	),
	DeleteMsg: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "delete message"),
	),
	EditMsg: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit message"),
	),
	PinToggle: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pin/unpin"),
	),
	React: key.NewBinding(
		key.WithKeys("1", "2", "3"),
		key.WithHelp("1-3", "react"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "dismiss"),
	),
	Help: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("C-g", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("C-c", "quit"),
	),
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.RoomSwitcher, k.Search, k.Members, k.Pinned, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.FocusToggle},
		{k.RoomSwitcher, k.Search, k.Members, k.Pinned},
		{k.DeleteMsg, k.EditMsg, k.PinToggle, k.React},
		{k.Dismiss, k.Help, k.Quit},
	}
}
