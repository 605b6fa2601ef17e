// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - "Did you mean" hints for mistyped command words.
package cli

import "strings"

// commandWords are the words Parse accepts as a command, primary names first
// so they win ties against aliases.
var commandWords = []string{
	"convert", "preview", "sheets", "history", "config", "tui", "version", "help",
	"export", "show", "ls", "runs", "open",
}

// SuggestCommand returns the command word closest to input, or "" when
// nothing is near enough to be a typo. Inputs shorter than two characters
// never get a suggestion.
func SuggestCommand(input string) string {
	word := []rune(strings.ToLower(input))
	if len(word) < 2 {
		return ""
	}

	// One edit for tiny words, two for most commands, three for long ones.
	budget := 1
	switch {
	case len(word) > 8:
		budget = 3
	case len(word) >= 4:
		budget = 2
	}

	best, bestDist := "", budget+1
	for _, cmd := range commandWords {
		d := editDistance(word, []rune(cmd))
		if d == 0 {
			return ""
		}
		if d < bestDist {
			best, bestDist = cmd, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance between a and b, in runes.
func editDistance(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			sub := prev[j-1]
			if a[i-1] != b[j-1] {
				sub++
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
