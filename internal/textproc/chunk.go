// Package textproc is the deterministic text layer: chunking for model
// calls and the rule-based fallbacks used when no model is reachable.
package textproc

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars is the chunk budget used when a caller passes none.
const DefaultMaxChars = 2000

// Chunk splits text into pieces of at most maxChars runes. Packing is
// greedy: whole paragraphs first, oversized paragraphs by sentence, then by
// word, and a single word longer than the budget is cut at exact rune
// boundaries. maxChars <= 0 selects DefaultMaxChars.
func Chunk(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var chunks []string
	var buf strings.Builder
	used := 0

	flush := func() {
		if used > 0 {
			chunks = append(chunks, buf.String())
			buf.Reset()
			used = 0
		}
	}
	put := func(piece, sep string) {
		n := utf8.RuneCountInString(piece)
		if used > 0 && used+utf8.RuneCountInString(sep)+n > maxChars {
			flush()
		}
		if used > 0 {
			buf.WriteString(sep)
			used += utf8.RuneCountInString(sep)
		}
		buf.WriteString(piece)
		used += n
	}

	for _, para := range splitParagraphs(text) {
		if utf8.RuneCountInString(para) <= maxChars {
			put(para, "\n\n")
			continue
		}
		for _, sent := range splitSentences(para) {
			if utf8.RuneCountInString(sent) <= maxChars {
				put(sent, " ")
				continue
			}
			for _, word := range strings.Fields(sent) {
				if utf8.RuneCountInString(word) <= maxChars {
					put(word, " ")
					continue
				}
				// Unsplittable token: exact rune-boundary slices.
				flush()
				runes := []rune(word)
				for len(runes) > maxChars {
					chunks = append(chunks, string(runes[:maxChars]))
					runes = runes[maxChars:]
				}
				if len(runes) > 0 {
					put(string(runes), " ")
				}
			}
		}
	}
	flush()
	return chunks
}

// splitParagraphs splits on blank lines and trims each piece.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences splits after . ! ? followed by a space, keeping the
// terminator with its sentence. Decimal points and trailing abbreviations
// stay intact because they are not followed by a space.
func splitSentences(text string) []string {
	var out []string
	var current strings.Builder
	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			if s := strings.TrimSpace(current.String()); s != "" {
				out = append(out, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		out = append(out, s)
	}
	return out
}
