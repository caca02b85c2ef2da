package anchor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/mbrennan/marginalia/internal/dom"
)

// FindMatch relocates a within doc. Every occurrence of the exact quote in
// the flattened text is scored by how well its surroundings agree with the
// recorded prefix and suffix, and the best-scoring occurrence is mapped back
// to a text node. Ties go to the earliest occurrence in document order, so a
// quote with no usable context still lands deterministically.
//
// A nil result means the quote no longer occurs anywhere in doc. That is an
// expected outcome after heavy edits, not an error.
func FindMatch(doc *html.Node, a Anchor) *Match {
	if doc == nil || a.Quote == "" {
		return nil
	}

	view := dom.NewTextView(doc)
	prefixRunes := utf8.RuneCountInString(a.Prefix)
	suffixRunes := utf8.RuneCountInString(a.Suffix)

	bestStart := -1
	bestScore := -1.0
	for from := 0; from <= len(view.Text)-len(a.Quote); {
		i := strings.Index(view.Text[from:], a.Quote)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(a.Quote)

		score := contextScore(a.Prefix, lastRunes(view.Text[:start], prefixRunes), true) +
			contextScore(a.Suffix, firstRunes(view.Text[end:], suffixRunes), false)
		if score > bestScore {
			bestScore = score
			bestStart = start
		}
		from = start + 1
	}
	if bestStart < 0 {
		return nil
	}

	node, offset := view.Locate(bestStart)
	if node == nil {
		return nil
	}
	return &Match{Node: node, Offset: offset, Length: len(a.Quote)}
}

// contextScore measures positional agreement between a recorded context
// string and the text actually found beside an occurrence. Runes are compared
// pairwise walking away from the quote boundary: for a prefix that means
// aligning the ends, for a suffix the starts. The match count is normalized
// by the longer of the two strings, so the score is always in [0,1] and a
// perfect reproduction of the recorded context scores 1. An empty recorded
// context carries no information and scores 0.
func contextScore(recorded, actual string, alignEnd bool) float64 {
	if recorded == "" {
		return 0
	}
	rr := []rune(recorded)
	ar := []rune(actual)

	n := min(len(rr), len(ar))
	matched := 0
	for i := 0; i < n; i++ {
		var r, a rune
		if alignEnd {
			r = rr[len(rr)-1-i]
			a = ar[len(ar)-1-i]
		} else {
			r = rr[i]
			a = ar[i]
		}
		if r == a {
			matched++
		}
	}
	return float64(matched) / float64(max(len(rr), len(ar)))
}
