// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/skiff-chat/skiff/chat"
)

// Modal is a centered overlay listing: members of the active room or
// its pinned messages. Scrollable when the content exceeds the box.
type Modal struct {
	title string
	rows  []string
	theme Theme

	scrollOffset int
}

// NewMembersModal builds the member-list modal.
func NewMembersModal(members []chat.Member, theme Theme) *Modal {
	rows := make([]string, 0, len(members))
	for _, member := range members {
		row := "@" + member.Username
		if member.Name != "" && member.Name != member.Username {
			row += "  " + member.Name
		}
		if member.Status != "" {
			row += "  [" + member.Status + "]"
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		rows = []string{"(nobody here)"}
	}
	return &Modal{title: "Members", rows: rows, theme: theme}
}

// NewPinnedModal builds the pinned-message modal. Messages arrive
// chronological; newest shows first in the panel.
func NewPinnedModal(pinned []chat.Message, theme Theme) *Modal {
	rows := make([]string, 0, len(pinned))
	for index := len(pinned) - 1; index >= 0; index-- {
		message := pinned[index]
		body := strings.ReplaceAll(message.Body, "\n", " ")
		rows = append(rows, message.Timestamp.Local().Format("Jan 2 15:04")+
			"  "+message.Author.Username+": "+body)
	}
	if len(rows) == 0 {
		rows = []string{"(nothing pinned)"}
	}
	return &Modal{title: "Pinned messages", rows: rows, theme: theme}
}

// NewSearchModal builds the server-side search result modal. Results
// arrive newest first from the server and display in that order.
func NewSearchModal(query string, results []chat.Message, theme Theme) *Modal {
	rows := make([]string, 0, len(results))
	for _, message := range results {
		body := strings.ReplaceAll(message.Body, "\n", " ")
		rows = append(rows, message.Timestamp.Local().Format("Jan 2 15:04")+
			"  "+message.Author.Username+": "+body)
	}
	if len(rows) == 0 {
		rows = []string{"(no matches)"}
	}
	return &Modal{title: "Search: " + query, rows: rows, theme: theme}
}

// ScrollUp moves the modal content up one row.
func (modal *Modal) ScrollUp() {
	if modal.scrollOffset > 0 {
		modal.scrollOffset--
	}
}

// ScrollDown moves the modal content down one row.
func (modal *Modal) ScrollDown() {
	if modal.scrollOffset < len(modal.rows)-1 {
		modal.scrollOffset++
	}
}

// Render produces the modal box lines and the anchor position that
// centers it in a screen of the given size.
func (modal *Modal) Render(screenWidth, screenHeight int) (lines []string, anchorX, anchorY int) {
	boxWidth := screenWidth * 2 / 3
	if boxWidth < 30 {
		boxWidth = screenWidth - 2
	}
	boxHeight := screenHeight * 2 / 3
	if boxHeight < 6 {
		boxHeight = screenHeight
	}
	contentWidth := boxWidth - 4
	contentHeight := boxHeight - 3

	background := lipgloss.NewStyle().
		Foreground(modal.theme.ModalForeground).
		Background(modal.theme.ModalBackground)

	title := background.Bold(true).Render(padToWidth(" "+modal.title, boxWidth))
	lines = append(lines, title)

	for rowIndex := 0; rowIndex < contentHeight; rowIndex++ {
		sourceIndex := modal.scrollOffset + rowIndex
		content := ""
		if sourceIndex < len(modal.rows) {
			content = ansi.Truncate(modal.rows[sourceIndex], contentWidth, "…")
		}
		lines = append(lines, background.Render(padToWidth("  "+content, boxWidth)))
	}

	footer := background.Foreground(modal.theme.FaintText).
		Render(padToWidth("  Esc to close, ↑/↓ to scroll", boxWidth))
	lines = append(lines, footer)
	lines = append(lines, background.Render(strings.Repeat(" ", boxWidth)))

	anchorX = (screenWidth - boxWidth) / 2
	anchorY = (screenHeight - len(lines)) / 2
	if anchorY < 0 {
		anchorY = 0
	}
	return lines, anchorX, anchorY
}

func padToWidth(content string, width int) string {
	visible := ansi.StringWidth(content)
	if visible >= width {
		return ansi.Truncate(content, width, "…")
	}
	return content + strings.Repeat(" ", width-visible)
}

// spliceOverlay replaces a rectangular region of a rendered view with
// overlay content starting at (anchorX, anchorY). ANSI-aware
// truncation preserves escape sequences on both sides of the overlay.
func spliceOverlay(view string, overlayLines []string, anchorX, anchorY int) string {
	if len(overlayLines) == 0 {
		return view
	}

	viewLines := strings.Split(view, "\n")
	overlayWidth := ansi.StringWidth(overlayLines[0])

	for index, overlayLine := range overlayLines {
		viewLineIndex := anchorY + index
		if viewLineIndex < 0 || viewLineIndex >= len(viewLines) {
			continue
		}

		viewLine := viewLines[viewLineIndex]
		viewLineWidth := ansi.StringWidth(viewLine)

		var spliced strings.Builder
		if anchorX > 0 {
			spliced.WriteString(ansi.Truncate(viewLine, anchorX, ""))
		}
		spliced.WriteString("\x1b[0m")
		spliced.WriteString(overlayLine)
		spliced.WriteString("\x1b[0m")

		suffixStart := anchorX + overlayWidth
		if suffixStart < viewLineWidth {
			spliced.WriteString(ansi.TruncateLeft(viewLine, suffixStart, ""))
		}

		viewLines[viewLineIndex] = spliced.String()
	}

	return strings.Join(viewLines, "\n")
}
