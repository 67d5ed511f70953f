// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"sort"
	"strings"
	"sync"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult is the outcome of matching one string against a
// pattern. Score is zero when the pattern does not match. Positions
// holds the rune offsets of matched characters, for highlighting.
type FuzzyResult struct {
	Score     int
	Positions []int
}

var initAlgo sync.Once

// FuzzyMatch scores text against pattern with fzf's V2 algorithm.
// Matching is case-insensitive. An empty pattern matches everything
// with score 1. slab may be nil; callers matching many strings in a
// loop should pass one from [NewSlab] to avoid per-call allocation.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{Score: 1}
	}
	initAlgo.Do(func() { algo.Init("default") })

	lowered := []rune(strings.ToLower(string(pattern)))
	chars := util.ToChars([]byte(strings.ToLower(text)))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, lowered, true, slab)
	if result.Start < 0 || result.Score <= 0 {
		return FuzzyResult{}
	}
	matched := FuzzyResult{Score: result.Score}
	if positions != nil {
		matched.Positions = append([]int(nil), (*positions)...)
		sort.Ints(matched.Positions)
	}
	return matched
}

// NewSlab returns scratch space for repeated FuzzyMatch calls. A slab
// must not be shared between goroutines.
func NewSlab() *util.Slab {
	return util.MakeSlab(100*1024, 2048)
}

// FilterIndices returns the indices of items whose text matches
// pattern, best score first. Ties keep their original order. A blank
// pattern returns every index in order.
func FilterIndices(items []string, pattern string) []int {
	pattern = strings.TrimSpace(pattern)
	indices := make([]int, 0, len(items))
	if pattern == "" {
		for index := range items {
			indices = append(indices, index)
		}
		return indices
	}

	runes := []rune(pattern)
	slab := NewSlab()
	scores := make(map[int]int, len(items))
	for index, item := range items {
		result := FuzzyMatch(item, runes, slab)
		if result.Score > 0 {
			indices = append(indices, index)
			scores[index] = result.Score
		}
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})
	return indices
}
