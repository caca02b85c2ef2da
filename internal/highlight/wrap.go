package highlight

import (
	"golang.org/x/net/html"

	"github.com/mbrennan/marginalia/internal/anchor"
	"github.com/mbrennan/marginalia/internal/dom"
	"github.com/mbrennan/marginalia/internal/logger"
)

// WrapRange highlights a live selection range. A selection already inside a
// marker keeps that marker (its record id is refreshed when one is supplied),
// so repeated wrapping never nests. When both endpoints are text nodes under
// one parent the covered run of siblings is extracted into a single marker;
// a range crossing element boundaries falls back to wrapping each covered
// text segment in place, every piece sharing the record id.
//
// Returns the marker (the first one, in the fallback case), or nil when the
// range is collapsed or does not resolve. A nil return means the tree was
// not touched.
func WrapRange(doc *html.Node, r dom.Range, class Class, recordID string) *html.Node {
	if doc == nil || r.Start.Node == nil || r.End.Node == nil || !class.Valid() {
		return nil
	}
	if m := enclosingMarker(dom.CommonAncestor(r.Start.Node, r.End.Node)); m != nil {
		if recordID != "" {
			dom.SetAttr(m, IDAttr, recordID)
		}
		return m
	}

	view := dom.NewTextView(doc)
	start, end, err := view.ResolveRange(r)
	if err != nil || start >= end {
		return nil
	}

	if r.Start.Node.Type == html.TextNode && r.End.Node.Type == html.TextNode &&
		r.Start.Node.Parent != nil && r.Start.Node.Parent == r.End.Node.Parent {
		return wrapRun(r, class, recordID)
	}

	var first *html.Node
	for _, seg := range view.Overlapping(start, end) {
		lo := max(start, seg.Start) - seg.Start
		hi := min(end, seg.End) - seg.Start
		if m := wrapSpan(seg.Node, lo, hi, class, recordID); m != nil && first == nil {
			first = m
		}
	}
	return first
}

// WrapMatch highlights a relocated anchor match. The match must reference a
// text node; its offsets are clamped to the node's bounds, and a mismatch
// between the stored quote and the text actually found there is logged but
// does not abort, tolerating drift since capture.
func WrapMatch(m *anchor.Match, quote string, class Class, recordID string) *html.Node {
	if m == nil || m.Node == nil || m.Node.Type != html.TextNode || !class.Valid() {
		return nil
	}
	if mk := enclosingMarker(m.Node); mk != nil {
		if recordID != "" {
			dom.SetAttr(mk, IDAttr, recordID)
		}
		return mk
	}

	data := m.Node.Data
	off := min(max(m.Offset, 0), len(data))
	end := min(max(m.Offset+m.Length, off), len(data))
	if off >= end {
		return nil
	}
	if actual := data[off:end]; quote != "" && actual != quote {
		logger.L().Warnw("highlight drifted from stored quote",
			"stored", quote, "actual", actual)
	}
	return wrapSpan(m.Node, off, end, class, recordID)
}

// wrapRun extracts the sibling run covered by r, whose endpoints are text
// nodes under one parent, into a single marker. Elements between the
// endpoints move into the marker intact.
func wrapRun(r dom.Range, class Class, recordID string) *html.Node {
	startNode, endNode := r.Start.Node, r.End.Node
	parent := startNode.Parent

	if startNode == endNode {
		return wrapSpan(startNode, r.Start.Offset, r.End.Offset, class, recordID)
	}

	first := startNode
	switch {
	case r.Start.Offset >= len(startNode.Data):
		first = startNode.NextSibling
	case r.Start.Offset > 0:
		first = splitTextAfter(startNode, r.Start.Offset)
	}
	last := endNode
	if r.End.Offset == 0 {
		last = endNode.PrevSibling
	} else if r.End.Offset < len(endNode.Data) {
		splitTextAfter(endNode, r.End.Offset)
	}
	if first == nil || last == nil {
		return nil
	}

	marker := newMarker(class, recordID)
	parent.InsertBefore(marker, first)
	for {
		n := marker.NextSibling
		if n == nil {
			break
		}
		parent.RemoveChild(n)
		marker.AppendChild(n)
		if n == last {
			break
		}
	}
	return marker
}

// wrapSpan wraps the byte span [off, end) of text node n in a fresh marker,
// splitting the node at the span edges.
func wrapSpan(n *html.Node, off, end int, class Class, recordID string) *html.Node {
	if n.Parent == nil || off < 0 || end > len(n.Data) || off >= end {
		return nil
	}
	target := n
	if off > 0 {
		target = splitTextAfter(n, off)
	}
	if end-off < len(target.Data) {
		splitTextAfter(target, end-off)
	}

	parent := target.Parent
	marker := newMarker(class, recordID)
	parent.InsertBefore(marker, target)
	parent.RemoveChild(target)
	marker.AppendChild(target)
	return marker
}

// splitTextAfter splits text node n at byte offset off. n keeps the head and
// the returned new sibling holds the tail.
func splitTextAfter(n *html.Node, off int) *html.Node {
	rest := &html.Node{Type: html.TextNode, Data: n.Data[off:]}
	n.Data = n.Data[:off]
	n.Parent.InsertBefore(rest, n.NextSibling)
	return rest
}
