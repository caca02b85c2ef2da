package textproc

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SummarizeLead is the deterministic fallback summarizer: the leading
// maxSentences sentences of the text, truncated to maxChars runes on a word
// boundary. It trades quality for total predictability, which is exactly
// what the degraded path wants.
func SummarizeLead(text string, maxSentences, maxChars int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if maxSentences <= 0 {
		maxSentences = 3
	}

	sentences := splitSentences(text)
	if len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}
	lead := strings.Join(sentences, " ")

	if maxChars > 0 && utf8.RuneCountInString(lead) > maxChars {
		cut := string([]rune(lead)[:maxChars])
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
		lead = cut + "..."
	}
	return lead
}

// TemplateDefinition is the deterministic fallback for definition requests:
// the first sentence of the surrounding context that mentions the term, or
// a plain template when none does.
func TemplateDefinition(term, context string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	lower := strings.ToLower(term)
	for _, s := range splitSentences(context) {
		if strings.Contains(strings.ToLower(s), lower) {
			return fmt.Sprintf("%s: as used on this page, %q", term, s)
		}
	}
	return fmt.Sprintf("%s: no definition available offline.", term)
}

// TemplateRelated is the deterministic fallback for related-content
// suggestions: search prompts built from the page's top keywords.
func TemplateRelated(keywords []Keyword, max int) []string {
	if max <= 0 {
		max = 5
	}
	var out []string
	for _, kw := range keywords {
		if len(out) >= max {
			break
		}
		out = append(out, "More about "+kw.Word)
	}
	return out
}
