// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// fzf's algo package needs its scoring tables built before any
// matcher call; without Init, case folding is disabled.
func init() {
	algo.Init("default")
}

// FuzzyResult describes a fuzzy match of a pattern against a text.
type FuzzyResult struct {
	// Matched is true when every pattern rune was found in order.
	Matched bool
	// Score ranks matches: higher is better (consecutive runs and
	// word-boundary hits score up).
	Score int
	// Positions are the rune indexes of the matched characters in
	// the text, for highlight rendering.
	Positions []int
}

// NewSlab allocates the scratch memory fzf's matcher reuses across
// calls. One slab per goroutine; the sidebar owns one.
func NewSlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}

// FuzzyMatch runs fzf's V2 fuzzy algorithm (case-insensitive, unicode
// normalization on) for pattern against text. An empty pattern
// matches everything with score zero.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{Matched: true}
	}

	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, pattern, true, slab)
	if result.Start < 0 {
		return FuzzyResult{}
	}

	matched := FuzzyResult{Matched: true, Score: result.Score}
	if positions != nil {
		matched.Positions = *positions
	}
	return matched
}
