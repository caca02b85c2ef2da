// Package anchor converts document selections into portable anchors and
// relocates anchors inside possibly changed documents. Anchors are the
// persisted identity of a highlight; everything in the tree is disposable.
package anchor

import (
	"errors"

	"golang.org/x/net/html"
)

// DefaultContextLength is the rune budget for captured prefix/suffix context.
const DefaultContextLength = 40

// Anchor describes a text span independently of any live node reference:
// the exact quoted text plus bounded context on both sides. The context is
// a disambiguation hint, not part of the highlight's identity.
type Anchor struct {
	Quote  string `json:"quote"`
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}

// Match is the result of relocating an Anchor: a text node, a byte offset
// into its data, and the byte length of the quote. It is a weak reference —
// any document mutation invalidates it, so it must be consumed immediately
// and never stored.
type Match struct {
	Node   *html.Node
	Offset int
	Length int
}

// Input errors from Serialize. These indicate a caller bug (marking with no
// selection), not document drift, and are the only errors the core surfaces.
var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrEmptySelection   = errors.New("empty selection")
)
