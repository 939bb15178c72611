package utils

import (
	"strings"
	"unicode/utf8"
)

// NameSimilarity scores how likely two normalized place names denote the same
// venue, in [0,1]. Cheap high-confidence strategies run before the Levenshtein
// fallback; order matters, because the fallback penalizes reorderings that the
// containment and shared-word strategies tolerate.
func NameSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		if a == "" && b == "" {
			return 1
		}
		return 0
	}
	if a == b {
		return 1
	}

	if score, ok := containmentScore(a, b); ok {
		return score
	}
	if score, ok := sharedWordScore(a, b); ok {
		return score
	}
	return editDistanceScore(a, b)
}

// containmentScore handles "Museo del Prado" vs "Museo Nacional del Prado":
// one name embedded in the other. The score scales 0.70..0.95 with how close
// the lengths are.
func containmentScore(a, b string) (float64, bool) {
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return 0, false
	}

	shorter, longer := len(a), len(b)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	return 0.70 + 0.25*(float64(shorter)/float64(longer)), true
}

// sharedWordScore matches on overlapping distinctive words. Only accepted when
// the weighted ratio clears 0.6, otherwise the chain falls through.
func sharedWordScore(a, b string) (float64, bool) {
	wordsA := significantWords(a)
	wordsB := significantWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0, false
	}

	// Counted from both sides so the score is symmetric.
	shared := matchedWords(wordsA, wordsB) + matchedWords(wordsB, wordsA)
	if shared == 0 {
		return 0, false
	}

	score := 0.3 + 0.5*(float64(shared)/float64(len(wordsA)+len(wordsB)))
	if score <= 0.6 {
		return 0, false
	}
	return score, true
}

func matchedWords(from, in []string) int {
	n := 0
	for _, wa := range from {
		for _, wb := range in {
			if strings.Contains(wa, wb) || strings.Contains(wb, wa) {
				n++
				break
			}
		}
	}
	return n
}

func significantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if len(w) > 1 {
			out = append(out, w)
		}
	}
	return out
}

// editDistanceScore is the last resort: normalized Levenshtein distance. The
// distance counts runes, so the normalizing length must too.
func editDistanceScore(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
