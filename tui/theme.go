// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the terminal UI. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected sidebar row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Message chrome.
	Timestamp    lipgloss.Color
	SelfAuthor   lipgloss.Color
	PinnedAccent lipgloss.Color
	EditedMarker lipgloss.Color
	Reaction     lipgloss.Color

	// AuthorColors is the palette message authors hash into, so a
	// given username keeps a stable color across sessions.
	AuthorColors []lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color
	ErrorText        lipgloss.Color
	LinkForeground   lipgloss.Color

	// Modal overlays.
	ModalForeground lipgloss.Color
	ModalBackground lipgloss.Color

	// Filter match highlighting in the sidebar.
	MatchForeground lipgloss.Color

	// SyntaxTheme is the chroma style name for fenced code blocks.
	SyntaxTheme string
}

// AuthorColor returns the stable palette color for a username. The
// viewer's own messages use SelfAuthor instead.
func (theme Theme) AuthorColor(username, self string) lipgloss.Color {
	if username == self {
		return theme.SelfAuthor
	}
	if len(theme.AuthorColors) == 0 {
		return theme.NormalText
	}
	hash := fnv.New32a()
	hash.Write([]byte(username))
	return theme.AuthorColors[hash.Sum32()%uint32(len(theme.AuthorColors))]
}

// DarkTheme is the built-in palette for dark-background terminals,
// the default.
var DarkTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	Timestamp:    lipgloss.Color("240"),
	SelfAuthor:   lipgloss.Color("114"), // green
	PinnedAccent: lipgloss.Color("220"), // amber
	EditedMarker: lipgloss.Color("241"),
	Reaction:     lipgloss.Color("179"),

	AuthorColors: []lipgloss.Color{
		lipgloss.Color("75"),  // blue
		lipgloss.Color("141"), // purple
		lipgloss.Color("208"), // orange
		lipgloss.Color("80"),  // cyan
		lipgloss.Color("174"), // pink
		lipgloss.Color("143"), // olive
	},

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),
	ErrorText:        lipgloss.Color("196"),
	LinkForeground:   lipgloss.Color("75"),

	ModalForeground: lipgloss.Color("252"),
	ModalBackground: lipgloss.Color("237"),

	MatchForeground: lipgloss.Color("220"),

	SyntaxTheme: "monokai",
}

// LightTheme is the palette for light-background terminals.
var LightTheme = Theme{
	NormalText: lipgloss.Color("235"),
	FaintText:  lipgloss.Color("243"),

	SelectedBackground: lipgloss.Color("254"),
	SelectedForeground: lipgloss.Color("232"),

	Timestamp:    lipgloss.Color("246"),
	SelfAuthor:   lipgloss.Color("28"), // dark green
	PinnedAccent: lipgloss.Color("130"),
	EditedMarker: lipgloss.Color("245"),
	Reaction:     lipgloss.Color("94"),

	AuthorColors: []lipgloss.Color{
		lipgloss.Color("26"),  // blue
		lipgloss.Color("90"),  // purple
		lipgloss.Color("166"), // orange
		lipgloss.Color("30"),  // teal
		lipgloss.Color("125"), // magenta
		lipgloss.Color("58"),  // olive
	},

	HeaderForeground: lipgloss.Color("232"),
	BorderColor:      lipgloss.Color("249"),
	HelpText:         lipgloss.Color("246"),
	ErrorText:        lipgloss.Color("160"),
	LinkForeground:   lipgloss.Color("26"),

	ModalForeground: lipgloss.Color("235"),
	ModalBackground: lipgloss.Color("253"),

	MatchForeground: lipgloss.Color("130"),

	SyntaxTheme: "friendly",
}

// ThemeByName maps a config theme name to a Theme. Unknown names fall
// back to the dark theme.
func ThemeByName(name, syntaxTheme string) Theme {
	theme := DarkTheme
	if name == "light" {
		theme = LightTheme
	}
	if syntaxTheme != "" {
		theme.SyntaxTheme = syntaxTheme
	}
	return theme
}
