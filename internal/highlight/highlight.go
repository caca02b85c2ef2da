// Package highlight mutates a document tree to add and remove highlight
// markers. A marker is a <mark> element carrying one of two style classes
// and an opaque record id used for reverse lookup. Wrapping either completes
// fully or leaves the tree exactly as found; removal is safe to repeat.
package highlight

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mbrennan/marginalia/internal/dom"
)

// Class selects the visual style of a marker.
type Class string

const (
	ClassImportant Class = "important"
	ClassConfused  Class = "confused"
)

// Valid reports whether c is one of the two supported marker classes.
func (c Class) Valid() bool {
	return c == ClassImportant || c == ClassConfused
}

// IDAttr is the marker attribute carrying the owning record's id.
const IDAttr = "data-mark-id"

// IsMarker reports whether n is a highlight marker produced by this package.
func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode || n.DataAtom != atom.Mark {
		return false
	}
	return Class(dom.Attr(n, "class")).Valid()
}

// MarkerByID returns the first marker under root carrying recordID, or nil.
func MarkerByID(root *html.Node, recordID string) *html.Node {
	if recordID == "" {
		return nil
	}
	return dom.FindElement(root, func(n *html.Node) bool {
		return IsMarker(n) && dom.Attr(n, IDAttr) == recordID
	})
}

// Markers returns every marker under root in document order.
func Markers(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if IsMarker(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

func newMarker(class Class, recordID string) *html.Node {
	m := &html.Node{Type: html.ElementNode, DataAtom: atom.Mark, Data: "mark"}
	m.Attr = []html.Attribute{{Key: "class", Val: string(class)}}
	if recordID != "" {
		m.Attr = append(m.Attr, html.Attribute{Key: IDAttr, Val: recordID})
	}
	return m
}

// enclosingMarker returns the nearest marker at or above n.
func enclosingMarker(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if IsMarker(n) {
			return n
		}
	}
	return nil
}
