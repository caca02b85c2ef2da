package llm

import (
	"fmt"
	"strings"
)

func buildSummaryPrompt(text string) string {
	var sb strings.Builder
	sb.WriteString("Summarize the following passage in 2-3 plain sentences. ")
	sb.WriteString("Respond with only the summary, no preamble.\n\n---\n")
	sb.WriteString(text)
	return sb.String()
}

func buildKeywordsPrompt(text string, max int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Extract the %d most important keywords from the following passage. ", max)
	sb.WriteString(`Return a JSON array where each element is {"word": string, "count": integer} `)
	sb.WriteString("with count being how often the keyword (or a close variant) appears. ")
	sb.WriteString("Respond with ONLY the JSON array, no other text.\n\n---\n")
	sb.WriteString(text)
	return sb.String()
}

func buildDefinePrompt(term, context string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Define the term %q in one or two sentences", term)
	if context != "" {
		sb.WriteString(", as it is used in this passage:\n\n---\n")
		sb.WriteString(context)
		sb.WriteString("\n---\n")
	} else {
		sb.WriteString(". ")
	}
	sb.WriteString("Respond with only the definition.")
	return sb.String()
}

func buildRelatedPrompt(text string, max int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Suggest %d short follow-up topics or search queries a reader of the following passage might explore next. ", max)
	sb.WriteString("Return one suggestion per line, no numbering, no other text.\n\n---\n")
	sb.WriteString(text)
	return sb.String()
}

func buildTranslatePrompt(text, targetLang string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Translate the following text into %s. ", targetLang)
	sb.WriteString("Preserve the meaning and tone. Respond with only the translation.\n\n---\n")
	sb.WriteString(text)
	return sb.String()
}
