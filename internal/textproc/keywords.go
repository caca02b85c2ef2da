package textproc

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Keyword is one ranked term with its occurrence count.
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// DefaultKeywordCount bounds the keyword list when a caller passes none.
const DefaultKeywordCount = 10

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "her": {}, "was": {}, "one": {},
	"our": {}, "out": {}, "has": {}, "had": {}, "have": {}, "him": {},
	"his": {}, "how": {}, "its": {}, "may": {}, "new": {}, "now": {},
	"old": {}, "see": {}, "two": {}, "way": {}, "who": {}, "did": {},
	"get": {}, "use": {}, "using": {}, "this": {}, "that": {}, "with": {},
	"from": {}, "they": {}, "will": {}, "would": {}, "there": {},
	"their": {}, "what": {}, "about": {}, "which": {}, "when": {},
	"were": {}, "been": {}, "more": {}, "some": {}, "them": {},
	"then": {}, "than": {}, "into": {}, "only": {}, "other": {},
	"over": {}, "also": {}, "your": {}, "just": {}, "like": {},
	"such": {}, "because": {}, "these": {}, "those": {}, "where": {},
	"while": {}, "does": {}, "each": {}, "very": {}, "most": {},
	"after": {}, "before": {}, "between": {}, "both": {}, "being": {},
	"under": {}, "here": {}, "could": {}, "should": {}, "might": {},
}

// Keywords ranks the most frequent terms in text, lowercased, skipping stop
// words and terms shorter than three runes. Equal counts order
// alphabetically so the ranking is stable. This is the deterministic
// fallback behind model keyword extraction.
func Keywords(text string, max int) []Keyword {
	if max <= 0 {
		max = DefaultKeywordCount
	}
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	counts := make(map[string]int)
	for _, token := range tokens {
		if utf8.RuneCountInString(token) < 3 {
			continue
		}
		if _, skip := stopWords[token]; skip {
			continue
		}
		counts[token]++
	}

	out := make([]Keyword, 0, len(counts))
	for w, c := range counts {
		out = append(out, Keyword{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}
