package dom

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
)

// Boundary is one endpoint of a Range. For a text node, Offset is a byte
// offset into the node's data. For an element, Offset is a child index; the
// boundary sits immediately before that child (or after the last child when
// Offset equals the child count). This mirrors the browser's Range model.
type Boundary struct {
	Node   *html.Node
	Offset int
}

// Range is a contiguous span of a document between two boundaries.
type Range struct {
	Start Boundary
	End   Boundary
}

var errBadBoundary = errors.New("boundary does not resolve inside the document")

// ResolveRange maps a Range's boundaries to byte offsets in the flattened
// view. Boundaries on excluded text nodes or on elements resolve to the
// first included text position at or after them in document order.
func (v *TextView) ResolveRange(r Range) (start, end int, err error) {
	start, err = v.resolveBoundary(r.Start)
	if err != nil {
		return 0, 0, err
	}
	end, err = v.resolveBoundary(r.End)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func (v *TextView) resolveBoundary(b Boundary) (int, error) {
	if b.Node == nil {
		return 0, errBadBoundary
	}
	if _, ok := v.order[b.Node]; !ok {
		return 0, errBadBoundary
	}

	switch b.Node.Type {
	case html.TextNode:
		if i, ok := v.segIdx[b.Node]; ok {
			if b.Offset < 0 || b.Offset > len(b.Node.Data) {
				return 0, errBadBoundary
			}
			return v.segments[i].Start + b.Offset, nil
		}
		// Excluded (whitespace-only or script/style) text node: the
		// nearest included position after it stands in.
		if next := nextInDocOrder(b.Node); next != nil {
			return v.firstSegmentAtOrAfter(next), nil
		}
		return len(v.Text), nil

	case html.ElementNode, html.DocumentNode:
		n := childCount(b.Node)
		if b.Offset < 0 || b.Offset > n {
			return 0, errBadBoundary
		}
		if b.Offset < n {
			return v.firstSegmentAtOrAfter(nthChild(b.Node, b.Offset)), nil
		}
		if next := nextAfterSubtree(b.Node); next != nil {
			return v.firstSegmentAtOrAfter(next), nil
		}
		return len(v.Text), nil
	}
	return 0, errBadBoundary
}

func childCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func nthChild(n *html.Node, i int) *html.Node {
	c := n.FirstChild
	for ; i > 0 && c != nil; i-- {
		c = c.NextSibling
	}
	return c
}

// nextAfterSubtree returns the first node in document order after n and all
// of n's descendants.
func nextAfterSubtree(n *html.Node) *html.Node {
	for n != nil {
		if n.NextSibling != nil {
			return n.NextSibling
		}
		n = n.Parent
	}
	return nil
}

// nextInDocOrder returns the node immediately following n in pre-order.
func nextInDocOrder(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	return nextAfterSubtree(n)
}

// CommonAncestor returns the deepest node containing both a and b, or nil
// when they belong to different trees.
func CommonAncestor(a, b *html.Node) *html.Node {
	if a == nil || b == nil {
		return nil
	}
	seen := make(map[*html.Node]bool)
	for n := a; n != nil; n = n.Parent {
		seen[n] = true
	}
	for n := b; n != nil; n = n.Parent {
		if seen[n] {
			return n
		}
	}
	return nil
}

// TextContent concatenates all text beneath n, including whitespace-only
// nodes. Markup-insensitive; used for element-level extraction rather than
// anchoring.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

// FindElement returns the first element beneath root matching the predicate,
// in document order.
func FindElement(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	if root.Type == html.ElementNode && match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

// Attr returns the value of the named attribute, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
