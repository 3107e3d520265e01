// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/skiff-chat/skiff/chat"
)

// renderMessages renders a message list into viewport content: one
// block per message, separated by blank lines, day dividers between
// date changes.
func renderMessages(messages []chat.Message, theme Theme, width int, self string) string {
	content, _, _ := renderMessageList(messages, theme, width, self, -1)
	return content
}

// renderMessagesSelected is renderMessages with the message at index
// selected highlighted. It also reports the first and last viewport
// line of that message's block so the caller can scroll it into view.
func renderMessagesSelected(messages []chat.Message, theme Theme, width int, self string, selected int) (string, int, int) {
	return renderMessageList(messages, theme, width, self, selected)
}

func renderMessageList(messages []chat.Message, theme Theme, width int, self string, selected int) (string, int, int) {
	if len(messages) == 0 {
		return lipgloss.NewStyle().Foreground(theme.FaintText).Render("  no messages yet"), 0, 0
	}

	var blocks []string
	lastDay := ""
	line := 0
	selStart, selEnd := 0, 0
	for index, message := range messages {
		day := message.Timestamp.Local().Format("Mon Jan 2 2006")
		if day != lastDay {
			divider := renderDayDivider(day, theme, width)
			blocks = append(blocks, divider)
			line += strings.Count(divider, "\n") + 1
			lastDay = day
		}
		block := renderMessage(message, theme, width, self, index == selected)
		if index == selected {
			selStart = line
			selEnd = line + strings.Count(block, "\n")
		}
		blocks = append(blocks, block)
		line += strings.Count(block, "\n") + 1
	}
	return strings.Join(blocks, "\n"), selStart, selEnd
}

func renderDayDivider(day string, theme Theme, width int) string {
	label := " " + day + " "
	fill := width - ansi.StringWidth(label)
	if fill < 2 {
		fill = 2
	}
	left := fill / 2
	divider := strings.Repeat("─", left) + label + strings.Repeat("─", fill-left)
	return lipgloss.NewStyle().Foreground(theme.BorderColor).Render(divider)
}

// renderMessage renders one message: a header line (author,
// timestamp, markers), the markdown body indented two columns, then
// attachment and reaction lines when present. A selected message's
// header inverts to show the message cursor.
func renderMessage(message chat.Message, theme Theme, width int, self string, selected bool) string {
	var lines []string

	var header string
	if selected {
		text := "▶ " + message.Author.Username + " " + message.Timestamp.Local().Format("15:04")
		if message.Edited() {
			text += " (edited)"
		}
		if message.Pinned {
			text += " 📌"
		}
		header = lipgloss.NewStyle().
			Background(theme.SelectedBackground).
			Foreground(theme.SelectedForeground).
			Bold(true).
			Render(text)
	} else {
		header = lipgloss.NewStyle().
			Foreground(theme.AuthorColor(message.Author.Username, self)).
			Bold(true).
			Render(message.Author.Username)
		header += " " + lipgloss.NewStyle().
			Foreground(theme.Timestamp).
			Render(message.Timestamp.Local().Format("15:04"))
		if message.Edited() {
			header += " " + lipgloss.NewStyle().Foreground(theme.EditedMarker).Render("(edited)")
		}
		if message.Pinned {
			header += " " + lipgloss.NewStyle().Foreground(theme.PinnedAccent).Render("📌")
		}
	}
	lines = append(lines, header)

	bodyWidth := width - 2
	if bodyWidth < 10 {
		bodyWidth = 10
	}
	body := renderMessageMarkdown(message.Body, theme, bodyWidth)
	for _, line := range strings.Split(body, "\n") {
		lines = append(lines, "  "+line)
	}

	for _, attachment := range message.Attachments {
		label := attachment.Title
		if label == "" {
			label = attachment.URL
		}
		lines = append(lines, "  "+lipgloss.NewStyle().
			Foreground(theme.LinkForeground).
			Render("⇩ "+label))
	}

	if reactionLine := renderReactions(message.Reactions, theme); reactionLine != "" {
		lines = append(lines, "  "+reactionLine)
	}

	return strings.Join(lines, "\n") + "\n"
}

// renderReactions renders the reaction summary line, emoji keys
// sorted for stable output.
func renderReactions(reactions map[string]chat.ReactionSet, theme Theme) string {
	if len(reactions) == 0 {
		return ""
	}

	keys := make([]string, 0, len(reactions))
	for key := range reactions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	style := lipgloss.NewStyle().Foreground(theme.Reaction)
	var parts []string
	for _, key := range keys {
		parts = append(parts, style.Render(key+" "+strconv.Itoa(len(reactions[key].Usernames))))
	}
	return strings.Join(parts, "  ")
}
