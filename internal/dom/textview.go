package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TextView is the flattened visible text of a document: the data of every
// text node in document order, excluding text inside script/style elements
// and whitespace-only nodes. Each included node's byte range within the
// flattened string is recorded so offsets can be mapped back to the tree.
//
// A TextView is a snapshot. It is invalidated by any mutation of the
// document and must be rebuilt, never cached across operations.
type TextView struct {
	Text     string
	segments []Segment

	// Pre-order visit index for every node in the tree, used to resolve
	// boundaries that do not land on an included text node.
	order  map[*html.Node]int
	segIdx map[*html.Node]int
}

// Segment maps one included text node to its byte range in TextView.Text.
type Segment struct {
	Node  *html.Node
	Start int
	End   int
}

// NewTextView walks doc and builds a fresh flattened view.
func NewTextView(doc *html.Node) *TextView {
	v := &TextView{
		order:  make(map[*html.Node]int),
		segIdx: make(map[*html.Node]int),
	}
	var buf strings.Builder
	ord := 0

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		v.order[n] = ord
		ord++

		if n.Type == html.TextNode && includeText(n) {
			start := buf.Len()
			buf.WriteString(n.Data)
			v.segIdx[n] = len(v.segments)
			v.segments = append(v.segments, Segment{Node: n, Start: start, End: buf.Len()})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	v.Text = buf.String()
	return v
}

func includeText(n *html.Node) bool {
	if strings.TrimSpace(n.Data) == "" {
		return false
	}
	p := n.Parent
	if p != nil && p.Type == html.ElementNode {
		if p.DataAtom == atom.Script || p.DataAtom == atom.Style {
			return false
		}
	}
	return true
}

// Segments returns the included text nodes in document order.
func (v *TextView) Segments() []Segment {
	return v.segments
}

// Locate maps a flattened byte offset to its owning text node and the local
// byte offset within that node's data. Returns (nil, 0) when the offset is
// outside the view.
func (v *TextView) Locate(offset int) (*html.Node, int) {
	if offset < 0 || offset >= len(v.Text) {
		return nil, 0
	}
	lo, hi := 0, len(v.segments)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		seg := v.segments[mid]
		switch {
		case offset < seg.Start:
			hi = mid - 1
		case offset >= seg.End:
			lo = mid + 1
		default:
			return seg.Node, offset - seg.Start
		}
	}
	return nil, 0
}

// Overlapping returns the segments that intersect the flattened byte range
// [start, end).
func (v *TextView) Overlapping(start, end int) []Segment {
	var out []Segment
	for _, seg := range v.segments {
		if seg.End <= start {
			continue
		}
		if seg.Start >= end {
			break
		}
		out = append(out, seg)
	}
	return out
}

// firstSegmentAtOrAfter returns the flattened offset of the first included
// text position at or after the node's pre-order position. Nodes outside the
// walked tree report the end of the view.
func (v *TextView) firstSegmentAtOrAfter(n *html.Node) int {
	target, ok := v.order[n]
	if !ok {
		return len(v.Text)
	}
	lo, hi := 0, len(v.segments)
	for lo < hi {
		mid := (lo + hi) / 2
		if v.order[v.segments[mid].Node] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == len(v.segments) {
		return len(v.Text)
	}
	return v.segments[lo].Start
}
