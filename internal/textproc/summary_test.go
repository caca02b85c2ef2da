package textproc

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSummarizeLead_TakesLeadingSentences(t *testing.T) {
	text := "One here. Two here. Three here. Four here."

	got := SummarizeLead(text, 2, 0)
	if got != "One here. Two here." {
		t.Errorf("summary = %q", got)
	}
}

func TestSummarizeLead_TruncatesOnWordBoundary(t *testing.T) {
	text := "The anchoring engine relocates quotations inside changed documents."

	got := SummarizeLead(text, 3, 30)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("summary = %q, want ellipsis", got)
	}
	head := strings.TrimSuffix(got, "...")
	if utf8.RuneCountInString(head) > 30 {
		t.Errorf("summary head %q exceeds 30 runes", head)
	}
	if !strings.HasPrefix(text, head) {
		t.Errorf("summary %q is not a prefix of the text", head)
	}
	if text[len(head)] != ' ' {
		t.Errorf("summary cut mid-word: %q", head)
	}
}

func TestSummarizeLead_EmptyInput(t *testing.T) {
	if got := SummarizeLead("  \n ", 3, 100); got != "" {
		t.Errorf("summary = %q, want empty", got)
	}
}

func TestTemplateDefinition_PrefersContextSentence(t *testing.T) {
	context := "Unrelated opener. An anchor is a portable span description. Closing words."

	got := TemplateDefinition("anchor", context)
	if !strings.Contains(got, "An anchor is a portable span description.") {
		t.Errorf("definition = %q, want the context sentence quoted", got)
	}

	missing := TemplateDefinition("zeppelin", context)
	if !strings.Contains(missing, "no definition available offline") {
		t.Errorf("definition = %q, want the offline template", missing)
	}
	if TemplateDefinition("  ", context) != "" {
		t.Error("blank term should yield nothing")
	}
}

func TestTemplateRelated_BuildsFromKeywords(t *testing.T) {
	kws := []Keyword{{"anchors", 5}, {"markers", 3}, {"records", 2}}

	got := TemplateRelated(kws, 2)
	if len(got) != 2 || got[0] != "More about anchors" || got[1] != "More about markers" {
		t.Errorf("related = %q", got)
	}
	if got := TemplateRelated(nil, 5); len(got) != 0 {
		t.Errorf("related from no keywords = %q", got)
	}
}
