// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"

	"github.com/skiff-chat/skiff/chat"
	"github.com/skiff-chat/skiff/lib/ref"
)

// sidebarItem is one row in the room list: the room plus its filter
// match, when a filter is active.
type sidebarItem struct {
	room      chat.Room
	score     int
	positions []int
}

// Sidebar is the room list pane with fzf-style fuzzy filtering.
type Sidebar struct {
	theme Theme
	self  string // Viewer's username, for direct-room display names.

	rooms []chat.Room
	items []sidebarItem

	// Filter state. Active means keystrokes go to the filter input.
	filterInput  string
	FilterActive bool

	cursor       int
	scrollOffset int

	width  int
	height int

	slab *util.Slab
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme Theme, self string) Sidebar {
	return Sidebar{
		theme: theme,
		self:  self,
		slab:  NewSlab(),
	}
}

// SetRooms replaces the room list wholesale and re-applies the
// current filter. The cursor follows the previously selected room by
// ID when it survives the replacement.
func (sidebar *Sidebar) SetRooms(rooms []chat.Room) {
	var selectedID ref.RoomID
	if selected := sidebar.Selected(); selected != nil {
		selectedID = selected.ID
	}

	sidebar.rooms = rooms
	sidebar.applyFilter()

	if !selectedID.IsZero() {
		for index, item := range sidebar.items {
			if item.room.ID == selectedID {
				sidebar.cursor = index
				break
			}
		}
	}
	sidebar.clampCursor()
}

// Selected returns the room under the cursor, or nil when the
// filtered list is empty.
func (sidebar *Sidebar) Selected() *chat.Room {
	if sidebar.cursor < 0 || sidebar.cursor >= len(sidebar.items) {
		return nil
	}
	return &sidebar.items[sidebar.cursor].room
}

// SetSize updates the pane dimensions.
func (sidebar *Sidebar) SetSize(width, height int) {
	sidebar.width = width
	sidebar.height = height
	sidebar.clampCursor()
}

// MoveUp moves the cursor one row up.
func (sidebar *Sidebar) MoveUp() {
	if sidebar.cursor > 0 {
		sidebar.cursor--
	}
	sidebar.scrollToCursor()
}

// MoveDown moves the cursor one row down.
func (sidebar *Sidebar) MoveDown() {
	if sidebar.cursor < len(sidebar.items)-1 {
		sidebar.cursor++
	}
	sidebar.scrollToCursor()
}

// HandleRune appends a typed character to the filter input.
func (sidebar *Sidebar) HandleRune(character rune) {
	sidebar.filterInput += string(character)
	sidebar.applyFilter()
}

// HandleBackspace removes the last filter character.
func (sidebar *Sidebar) HandleBackspace() {
	if sidebar.filterInput == "" {
		return
	}
	runes := []rune(sidebar.filterInput)
	sidebar.filterInput = string(runes[:len(runes)-1])
	sidebar.applyFilter()
}

// ClearFilter resets the filter input and deactivates it.
func (sidebar *Sidebar) ClearFilter() {
	sidebar.filterInput = ""
	sidebar.FilterActive = false
	sidebar.applyFilter()
}

// applyFilter rebuilds the visible items from the room list and the
// filter input. With a filter, rooms are ranked by fuzzy score
// descending; without one, server order is kept.
func (sidebar *Sidebar) applyFilter() {
	sidebar.items = sidebar.items[:0]

	pattern := []rune(strings.ToLower(sidebar.filterInput))
	for _, room := range sidebar.rooms {
		name := room.DisplayName(sidebar.self)
		if name == "" {
			name = room.ID.String()
		}
		if len(pattern) == 0 {
			sidebar.items = append(sidebar.items, sidebarItem{room: room})
			continue
		}
		result := FuzzyMatch(name, pattern, sidebar.slab)
		if !result.Matched {
			continue
		}
		sidebar.items = append(sidebar.items, sidebarItem{
			room:      room,
			score:     result.Score,
			positions: result.Positions,
		})
	}

	if len(pattern) > 0 {
		sort.SliceStable(sidebar.items, func(a, b int) bool {
			return sidebar.items[a].score > sidebar.items[b].score
		})
	}

	sidebar.cursor = 0
	sidebar.scrollOffset = 0
}

func (sidebar *Sidebar) clampCursor() {
	if sidebar.cursor >= len(sidebar.items) {
		sidebar.cursor = len(sidebar.items) - 1
	}
	if sidebar.cursor < 0 {
		sidebar.cursor = 0
	}
	sidebar.scrollToCursor()
}

func (sidebar *Sidebar) scrollToCursor() {
	visible := sidebar.visibleRows()
	if visible <= 0 {
		return
	}
	if sidebar.cursor < sidebar.scrollOffset {
		sidebar.scrollOffset = sidebar.cursor
	}
	if sidebar.cursor >= sidebar.scrollOffset+visible {
		sidebar.scrollOffset = sidebar.cursor - visible + 1
	}
}

// visibleRows is the room rows that fit under the filter line.
func (sidebar *Sidebar) visibleRows() int {
	return sidebar.height - 1
}

// View renders the sidebar pane.
func (sidebar *Sidebar) View(focused bool) string {
	var lines []string
	lines = append(lines, sidebar.renderFilterLine(focused))

	visible := sidebar.visibleRows()
	for index := sidebar.scrollOffset; index < sidebar.scrollOffset+visible; index++ {
		if index >= len(sidebar.items) {
			lines = append(lines, strings.Repeat(" ", sidebar.width))
			continue
		}
		lines = append(lines, sidebar.renderRow(sidebar.items[index], index == sidebar.cursor))
	}
	return strings.Join(lines, "\n")
}

func (sidebar *Sidebar) renderFilterLine(focused bool) string {
	style := lipgloss.NewStyle().Width(sidebar.width).MaxWidth(sidebar.width)
	if sidebar.FilterActive {
		cursor := lipgloss.NewStyle().
			Foreground(sidebar.theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return style.Foreground(sidebar.theme.NormalText).
			Render(" /" + sidebar.filterInput + cursor)
	}
	if sidebar.filterInput != "" {
		return style.Foreground(sidebar.theme.FaintText).
			Render(" filter: " + sidebar.filterInput)
	}
	title := " Rooms"
	if focused {
		return style.Foreground(sidebar.theme.HeaderForeground).Bold(true).Render(title)
	}
	return style.Foreground(sidebar.theme.FaintText).Render(title)
}

// renderRow renders one room row: a kind sigil, the display name
// (with filter-match characters highlighted), and selection styling.
func (sidebar *Sidebar) renderRow(item sidebarItem, selected bool) string {
	name := item.room.DisplayName(sidebar.self)
	if name == "" {
		name = item.room.ID.String()
	}

	sigil := "#"
	switch item.room.Kind {
	case ref.PrivateGroup:
		sigil = "~"
	case ref.DirectMessage:
		sigil = "@"
	}

	label := sidebar.highlightMatches(name, item.positions)
	row := " " + sigil + " " + label

	maxWidth := sidebar.width
	row = ansi.Truncate(row, maxWidth, "…")

	style := lipgloss.NewStyle().Width(maxWidth).MaxWidth(maxWidth)
	if selected {
		return style.
			Background(sidebar.theme.SelectedBackground).
			Foreground(sidebar.theme.SelectedForeground).
			Render(row)
	}
	return style.Foreground(sidebar.theme.NormalText).Render(row)
}

// highlightMatches colors the matched rune positions from the fuzzy
// filter.
func (sidebar *Sidebar) highlightMatches(name string, positions []int) string {
	if len(positions) == 0 {
		return name
	}
	matched := make(map[int]bool, len(positions))
	for _, position := range positions {
		matched[position] = true
	}

	highlight := lipgloss.NewStyle().Foreground(sidebar.theme.MatchForeground).Bold(true)
	var out strings.Builder
	for index, character := range []rune(name) {
		if matched[index] {
			out.WriteString(highlight.Render(string(character)))
		} else {
			out.WriteRune(character)
		}
	}
	return out.String()
}
