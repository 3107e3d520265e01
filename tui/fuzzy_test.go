// Copyright 2026 The Skiff Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import "testing"

func TestFuzzyMatchBasic(t *testing.T) {
	result := FuzzyMatch("general announcements", []rune("general"), NewSlab())
	if !result.Matched {
		t.Fatal("expected substring match")
	}
	if result.Score <= 0 {
		t.Fatal("expected positive score")
	}
	if len(result.Positions) != len("general") {
		t.Fatalf("positions = %v", result.Positions)
	}
}

func TestFuzzyMatchNonContiguous(t *testing.T) {
	result := FuzzyMatch("incident response", []rune("irsp"), NewSlab())
	if !result.Matched {
		t.Fatal("expected non-contiguous match")
	}
}

func TestFuzzyMatchNoMatch(t *testing.T) {
	result := FuzzyMatch("general", []rune("xyz"), NewSlab())
	if result.Matched {
		t.Error("unexpected match")
	}
	if len(result.Positions) != 0 {
		t.Errorf("positions = %v", result.Positions)
	}
}

func TestFuzzyMatchCaseInsensitive(t *testing.T) {
	result := FuzzyMatch("General Announcements", []rune("general"), NewSlab())
	if !result.Matched {
		t.Fatal("expected case-insensitive match")
	}
}

func TestFuzzyMatchEmptyPattern(t *testing.T) {
	result := FuzzyMatch("anything", nil, NewSlab())
	if !result.Matched {
		t.Error("empty pattern should match everything")
	}
	if result.Score != 0 {
		t.Errorf("score = %d", result.Score)
	}
}

func TestFuzzyMatchRanksConsecutiveHigher(t *testing.T) {
	slab := NewSlab()
	consecutive := FuzzyMatch("backend", []rune("back"), slab)
	scattered := FuzzyMatch("bug-tracker-k8s", []rune("back"), slab)
	if !consecutive.Matched || !scattered.Matched {
		t.Fatal("both should match")
	}
	if consecutive.Score <= scattered.Score {
		t.Errorf("consecutive score %d should beat scattered %d",
			consecutive.Score, scattered.Score)
	}
}
