package highlight

import (
	"golang.org/x/net/html"

	"github.com/mbrennan/marginalia/internal/dom"
)

// Remove unwraps a marker: its children take its place, and adjacent text
// nodes in the parent are merged back together, undoing the splits made at
// highlight time. Returns false when the marker is nil, not a marker, or
// already detached, so calling it twice is harmless.
func Remove(marker *html.Node) bool {
	if !IsMarker(marker) || marker.Parent == nil {
		return false
	}
	parent := marker.Parent
	for marker.FirstChild != nil {
		c := marker.FirstChild
		marker.RemoveChild(c)
		parent.InsertBefore(c, marker)
	}
	parent.RemoveChild(marker)
	normalize(parent)
	return true
}

// RemoveByID unwraps every marker under root carrying recordID and reports
// how many came off. A highlight wrapped in several pieces is undone whole.
func RemoveByID(root *html.Node, recordID string) int {
	if recordID == "" {
		return 0
	}
	var targets []*html.Node
	for _, m := range Markers(root) {
		if dom.Attr(m, IDAttr) == recordID {
			targets = append(targets, m)
		}
	}
	removed := 0
	for _, m := range targets {
		if Remove(m) {
			removed++
		}
	}
	return removed
}

// normalize merges runs of adjacent text node children of n and drops empty
// text nodes left over from splitting.
func normalize(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode {
			if next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				n.RemoveChild(next)
				continue
			}
			if c.Data == "" {
				n.RemoveChild(c)
			}
		}
		c = next
	}
}
