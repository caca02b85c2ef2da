package anchor

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/mbrennan/marginalia/internal/dom"
)

func TestFindMatch_UniqueQuote(t *testing.T) {
	doc := parse(t, `<p>alpha beta gamma</p>`)

	m := FindMatch(doc, Anchor{Quote: "beta"})
	if m == nil {
		t.Fatal("no match for unique quote")
	}
	if m.Node.Data != "alpha beta gamma" {
		t.Errorf("node = %q", m.Node.Data)
	}
	if m.Offset != 6 || m.Length != 4 {
		t.Errorf("offset/length = %d/%d, want 6/4", m.Offset, m.Length)
	}
}

func TestFindMatch_RoundTrip(t *testing.T) {
	doc := parse(t, `<p>The quick brown fox jumps. The fox runs fast.</p>`)

	a, err := Serialize(doc, textRange(t, doc, "quick", "fox"), DefaultContextLength)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	m := FindMatch(doc, a)
	if m == nil {
		t.Fatal("anchor did not relocate in its own document")
	}
	if got := m.Node.Data[m.Offset : m.Offset+m.Length]; got != "fox" {
		t.Errorf("relocated text = %q, want %q", got, "fox")
	}
	if m.Offset != strings.Index(m.Node.Data, "fox") {
		t.Errorf("offset = %d, matched second occurrence instead of first", m.Offset)
	}
}

func TestFindMatch_PrefixDisambiguates(t *testing.T) {
	doc := parse(t, `<p>The river bank was muddy.</p><p>The savings bank was closed.</p>`)
	flat := "The river bank was muddy.The savings bank was closed."
	first := strings.Index(flat, "bank")
	second := strings.LastIndex(flat, "bank")

	tests := []struct {
		prefix string
		want   int
	}{
		{"river ", first},
		{"savings ", second},
	}
	for _, tt := range tests {
		m := FindMatch(doc, Anchor{Quote: "bank", Prefix: tt.prefix})
		if m == nil {
			t.Fatalf("prefix %q: no match", tt.prefix)
		}
		got := globalOffset(t, doc, m)
		if got != tt.want {
			t.Errorf("prefix %q: matched offset %d, want %d", tt.prefix, got, tt.want)
		}
	}
}

func TestFindMatch_SuffixDisambiguates(t *testing.T) {
	doc := parse(t, `<p>open the door now</p><p>open the window later</p>`)
	flat := "open the door nowopen the window later"

	m := FindMatch(doc, Anchor{Quote: "open the", Suffix: " window"})
	if m == nil {
		t.Fatal("no match")
	}
	if got, want := globalOffset(t, doc, m), strings.LastIndex(flat, "open the"); got != want {
		t.Errorf("matched offset %d, want %d", got, want)
	}
}

func TestFindMatch_FirstOccurrenceWinsTies(t *testing.T) {
	doc := parse(t, `<p>repeat token</p><p>repeat token</p>`)

	m := FindMatch(doc, Anchor{Quote: "repeat"})
	if m == nil {
		t.Fatal("no match")
	}
	if got := globalOffset(t, doc, m); got != 0 {
		t.Errorf("matched offset %d, want 0 (ties go to the earliest occurrence)", got)
	}
}

func TestFindMatch_ScansOverlappingOccurrences(t *testing.T) {
	doc := parse(t, `<p>aaa</p>`)

	m := FindMatch(doc, Anchor{Quote: "aa", Prefix: "a"})
	if m == nil {
		t.Fatal("no match")
	}
	if m.Offset != 1 {
		t.Errorf("offset = %d, want 1 (the overlapping occurrence with the matching prefix)", m.Offset)
	}
}

func TestFindMatch_SurvivesSurroundingEdits(t *testing.T) {
	before := parse(t, `<p>Chapter one.</p><p>The fox is cunning.</p><p>Chapter two.</p>`)
	a, err := Serialize(before, textRange(t, before, "cunning", "fox"), DefaultContextLength)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	after := parse(t, `<p>Preface, newly added.</p><p>The fox is cunning.</p><p>Chapter two, renamed.</p>`)
	m := FindMatch(after, a)
	if m == nil {
		t.Fatal("anchor lost after surrounding edits")
	}
	if got := m.Node.Data[m.Offset : m.Offset+m.Length]; got != "fox" {
		t.Errorf("relocated text = %q, want %q", got, "fox")
	}
	if !strings.Contains(m.Node.Data, "cunning") {
		t.Errorf("relocated into node %q, want the sentence about the fox", m.Node.Data)
	}
}

func TestFindMatch_AbsentQuote(t *testing.T) {
	doc := parse(t, `<p>nothing to see here</p>`)

	if m := FindMatch(doc, Anchor{Quote: "unicorn", Prefix: "a ", Suffix: " grazes"}); m != nil {
		t.Errorf("match = %+v, want nil for absent quote", m)
	}
}

func TestFindMatch_EmptyQuote(t *testing.T) {
	doc := parse(t, `<p>nothing to see here</p>`)

	if m := FindMatch(doc, Anchor{}); m != nil {
		t.Errorf("match = %+v, want nil for empty quote", m)
	}
}

func TestFindMatch_QuoteMaySpanNodes(t *testing.T) {
	doc := parse(t, `<p>Hello <b>world</b></p>`)

	m := FindMatch(doc, Anchor{Quote: "lo wor"})
	if m == nil {
		t.Fatal("no match for quote spanning nodes")
	}
	if m.Node.Data != "Hello " {
		t.Errorf("node = %q, want the node where the quote starts", m.Node.Data)
	}
	if m.Offset != 3 || m.Length != 6 {
		t.Errorf("offset/length = %d/%d, want 3/6", m.Offset, m.Length)
	}
}

func TestContextScore(t *testing.T) {
	tests := []struct {
		name     string
		recorded string
		actual   string
		alignEnd bool
		want     float64
	}{
		{"identical suffix", "abc", "abc", false, 1},
		{"identical prefix", "abc", "abc", true, 1},
		{"disjoint", "abc", "xyz", false, 0},
		{"partial suffix", "abcd", "abxd", false, 0.75},
		{"prefix aligns at the end", "xabc", "abc", true, 0.75},
		{"suffix aligns at the start", "abcx", "abc", false, 0.75},
		{"empty recorded", "", "anything", false, 0},
		{"empty actual", "abc", "", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contextScore(tt.recorded, tt.actual, tt.alignEnd); got != tt.want {
				t.Errorf("contextScore(%q, %q) = %v, want %v", tt.recorded, tt.actual, got, tt.want)
			}
		})
	}
}

// globalOffset maps a match back to its offset in the flattened text so tests
// can compare against strings.Index arithmetic on the whole document.
func globalOffset(t *testing.T, doc *html.Node, m *Match) int {
	t.Helper()
	for _, seg := range dom.NewTextView(doc).Segments() {
		if seg.Node == m.Node {
			return seg.Start + m.Offset
		}
	}
	t.Fatal("match node not present in flattened view")
	return -1
}
