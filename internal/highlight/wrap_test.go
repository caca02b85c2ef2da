package highlight

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/mbrennan/marginalia/internal/anchor"
	"github.com/mbrennan/marginalia/internal/dom"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func findText(n *html.Node, sub string) *html.Node {
	if n.Type == html.TextNode && strings.Contains(n.Data, sub) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findText(c, sub); found != nil {
			return found
		}
	}
	return nil
}

func flatten(doc *html.Node) string {
	return dom.NewTextView(doc).Text
}

// childKinds renders a node's children as "text:<data>" and element names,
// pipe-joined, for structural assertions.
func childKinds(n *html.Node) string {
	var out []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			out = append(out, "text:"+c.Data)
		case html.ElementNode:
			out = append(out, c.Data)
		}
	}
	return strings.Join(out, "|")
}

func TestWrapMatch_WrapsSpan(t *testing.T) {
	doc := parse(t, `<p>The quick brown fox jumps.</p>`)
	before := flatten(doc)

	m := anchor.FindMatch(doc, anchor.Anchor{Quote: "fox"})
	marker := WrapMatch(m, "fox", ClassImportant, "r1")
	if marker == nil {
		t.Fatal("WrapMatch returned nil")
	}
	if dom.Attr(marker, "class") != "important" || dom.Attr(marker, IDAttr) != "r1" {
		t.Errorf("marker attrs = %v", marker.Attr)
	}
	if got := dom.TextContent(marker); got != "fox" {
		t.Errorf("marker text = %q, want %q", got, "fox")
	}
	p := findText(doc, "quick").Parent
	if got, want := childKinds(p), "text:The quick brown |mark|text: jumps."; got != want {
		t.Errorf("paragraph children = %q, want %q", got, want)
	}
	if got := flatten(doc); got != before {
		t.Errorf("flattened text changed: %q -> %q", before, got)
	}
}

func TestWrapMatch_Idempotent(t *testing.T) {
	doc := parse(t, `<p>The quick brown fox jumps.</p>`)

	first := WrapMatch(anchor.FindMatch(doc, anchor.Anchor{Quote: "fox"}), "fox", ClassImportant, "r1")
	if first == nil {
		t.Fatal("first wrap failed")
	}
	second := WrapMatch(anchor.FindMatch(doc, anchor.Anchor{Quote: "fox"}), "fox", ClassImportant, "r1")
	if second != first {
		t.Error("second wrap created a new marker instead of returning the existing one")
	}
	if n := len(Markers(doc)); n != 1 {
		t.Errorf("marker count = %d, want 1", n)
	}
}

func TestWrapMatch_AttachesRecordIDLater(t *testing.T) {
	doc := parse(t, `<p>The quick brown fox jumps.</p>`)

	marker := WrapMatch(anchor.FindMatch(doc, anchor.Anchor{Quote: "fox"}), "fox", ClassImportant, "")
	if marker == nil {
		t.Fatal("wrap failed")
	}
	if got := dom.Attr(marker, IDAttr); got != "" {
		t.Fatalf("premature id %q", got)
	}

	again := WrapMatch(anchor.FindMatch(doc, anchor.Anchor{Quote: "fox"}), "fox", ClassImportant, "r9")
	if again != marker {
		t.Fatal("re-wrap did not return the existing marker")
	}
	if got := dom.Attr(marker, IDAttr); got != "r9" {
		t.Errorf("id = %q, want %q", got, "r9")
	}
}

func TestWrapMatch_ClampsDriftedMatch(t *testing.T) {
	doc := parse(t, `<p>short</p>`)
	node := findText(doc, "short")

	marker := WrapMatch(&anchor.Match{Node: node, Offset: 2, Length: 100}, "orthogonal", ClassConfused, "r1")
	if marker == nil {
		t.Fatal("drifted match was not clamped")
	}
	if got := dom.TextContent(marker); got != "ort" {
		t.Errorf("marker text = %q, want %q", got, "ort")
	}
}

func TestWrapMatch_RejectsUnusableMatches(t *testing.T) {
	doc := parse(t, `<p>short</p>`)
	node := findText(doc, "short")

	tests := []struct {
		name string
		m    *anchor.Match
	}{
		{"nil match", nil},
		{"nil node", &anchor.Match{}},
		{"element node", &anchor.Match{Node: node.Parent, Offset: 0, Length: 1}},
		{"offset past end", &anchor.Match{Node: node, Offset: 10, Length: 2}},
		{"zero length", &anchor.Match{Node: node, Offset: 1, Length: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if m := WrapMatch(tt.m, "x", ClassImportant, "r1"); m != nil {
				t.Errorf("marker = %v, want nil", m)
			}
		})
	}
	if n := len(Markers(doc)); n != 0 {
		t.Errorf("rejected wraps left %d markers behind", n)
	}
}

func TestWrapRange_WithinOneNode(t *testing.T) {
	doc := parse(t, `<p>The quick brown fox jumps.</p>`)
	node := findText(doc, "quick")
	at := strings.Index(node.Data, "fox")

	marker := WrapRange(doc, dom.Range{
		Start: dom.Boundary{Node: node, Offset: at},
		End:   dom.Boundary{Node: node, Offset: at + 3},
	}, ClassImportant, "r1")
	if marker == nil {
		t.Fatal("WrapRange returned nil")
	}
	if got := dom.TextContent(marker); got != "fox" {
		t.Errorf("marker text = %q, want %q", got, "fox")
	}
}

func TestWrapRange_SameParentRun(t *testing.T) {
	doc := parse(t, `<p>ab<b>cd</b>ef</p>`)
	before := flatten(doc)
	start := findText(doc, "ab")
	end := findText(doc, "ef")

	marker := WrapRange(doc, dom.Range{
		Start: dom.Boundary{Node: start, Offset: 1},
		End:   dom.Boundary{Node: end, Offset: 1},
	}, ClassImportant, "r1")
	if marker == nil {
		t.Fatal("WrapRange returned nil")
	}
	if got, want := childKinds(marker), "text:b|b|text:e"; got != want {
		t.Errorf("marker children = %q, want %q", got, want)
	}
	p := marker.Parent
	if got, want := childKinds(p), "text:a|mark|text:f"; got != want {
		t.Errorf("paragraph children = %q, want %q", got, want)
	}
	if got := flatten(doc); got != before {
		t.Errorf("flattened text changed: %q -> %q", before, got)
	}
}

func TestWrapRange_CrossParentFallsBackToPieces(t *testing.T) {
	doc := parse(t, `<p>one two</p><p>three four</p>`)
	before := flatten(doc)
	first := findText(doc, "one")
	second := findText(doc, "three")

	marker := WrapRange(doc, dom.Range{
		Start: dom.Boundary{Node: first, Offset: 4},
		End:   dom.Boundary{Node: second, Offset: 5},
	}, ClassConfused, "r1")
	if marker == nil {
		t.Fatal("WrapRange returned nil")
	}
	if got := dom.TextContent(marker); got != "two" {
		t.Errorf("returned marker wraps %q, want the first piece %q", got, "two")
	}

	all := Markers(doc)
	if len(all) != 2 {
		t.Fatalf("marker count = %d, want 2", len(all))
	}
	for _, m := range all {
		if dom.Attr(m, IDAttr) != "r1" {
			t.Errorf("piece id = %q, want shared id r1", dom.Attr(m, IDAttr))
		}
	}
	if got := dom.TextContent(all[1]); got != "three" {
		t.Errorf("second piece wraps %q, want %q", got, "three")
	}
	if got := flatten(doc); got != before {
		t.Errorf("flattened text changed: %q -> %q", before, got)
	}
}

func TestWrapRange_ElementBoundaries(t *testing.T) {
	doc := parse(t, `<p>one<b>two</b></p>`)
	p := findText(doc, "one").Parent

	marker := WrapRange(doc, dom.Range{
		Start: dom.Boundary{Node: p, Offset: 0},
		End:   dom.Boundary{Node: p, Offset: 2},
	}, ClassImportant, "r1")
	if marker == nil {
		t.Fatal("WrapRange returned nil")
	}
	if n := len(Markers(doc)); n != 2 {
		t.Errorf("marker count = %d, want one per covered text segment", n)
	}
	if got := flatten(doc); got != "onetwo" {
		t.Errorf("flattened text = %q, want %q", got, "onetwo")
	}
}

func TestWrapRange_AlreadyInsideMarker(t *testing.T) {
	doc := parse(t, `<p>The quick brown fox jumps.</p>`)
	node := findText(doc, "quick")
	at := strings.Index(node.Data, "fox")

	marker := WrapRange(doc, dom.Range{
		Start: dom.Boundary{Node: node, Offset: at},
		End:   dom.Boundary{Node: node, Offset: at + 3},
	}, ClassImportant, "")
	if marker == nil {
		t.Fatal("initial wrap failed")
	}

	inner := marker.FirstChild
	again := WrapRange(doc, dom.Range{
		Start: dom.Boundary{Node: inner, Offset: 0},
		End:   dom.Boundary{Node: inner, Offset: 3},
	}, ClassImportant, "r1")
	if again != marker {
		t.Error("re-wrap created a new marker instead of returning the existing one")
	}
	if got := dom.Attr(marker, IDAttr); got != "r1" {
		t.Errorf("id = %q, want refreshed id r1", got)
	}
	if n := len(Markers(doc)); n != 1 {
		t.Errorf("marker count = %d, want 1", n)
	}
}

func TestWrapRange_RejectsBadInput(t *testing.T) {
	doc := parse(t, `<p>some text</p>`)
	node := findText(doc, "some")

	collapsed := dom.Range{
		Start: dom.Boundary{Node: node, Offset: 2},
		End:   dom.Boundary{Node: node, Offset: 2},
	}
	if m := WrapRange(doc, collapsed, ClassImportant, "r1"); m != nil {
		t.Error("collapsed range produced a marker")
	}
	valid := dom.Range{
		Start: dom.Boundary{Node: node, Offset: 0},
		End:   dom.Boundary{Node: node, Offset: 4},
	}
	if m := WrapRange(doc, valid, Class("bogus"), "r1"); m != nil {
		t.Error("unknown class produced a marker")
	}
	if m := WrapRange(doc, dom.Range{}, ClassImportant, "r1"); m != nil {
		t.Error("empty range produced a marker")
	}
	if got := flatten(doc); got != "some text" {
		t.Errorf("rejected wraps mutated the document: %q", got)
	}
}
