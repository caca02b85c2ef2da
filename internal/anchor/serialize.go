package anchor

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/mbrennan/marginalia/internal/dom"
)

// Serialize captures a selection inside doc as an Anchor. The quote is the
// selected text as seen through the flattened view; prefix and suffix are at
// most contextLength runes of the text immediately around it. A contextLength
// of zero or less selects DefaultContextLength.
//
// Serialize fails rather than produce an anchor that could never be found
// again: boundaries that do not resolve inside doc yield ErrInvalidSelection,
// and a collapsed selection yields ErrEmptySelection.
func Serialize(doc *html.Node, r dom.Range, contextLength int) (Anchor, error) {
	if doc == nil || r.Start.Node == nil || r.End.Node == nil {
		return Anchor{}, ErrInvalidSelection
	}
	if contextLength <= 0 {
		contextLength = DefaultContextLength
	}

	view := dom.NewTextView(doc)
	start, end, err := view.ResolveRange(r)
	if err != nil {
		return Anchor{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	if start >= end {
		return Anchor{}, ErrEmptySelection
	}

	return Anchor{
		Quote:  view.Text[start:end],
		Prefix: lastRunes(view.Text[:start], contextLength),
		Suffix: firstRunes(view.Text[end:], contextLength),
	}, nil
}

// lastRunes returns the trailing n runes of s.
func lastRunes(s string, n int) string {
	i := len(s)
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return s[i:]
}

// firstRunes returns the leading n runes of s.
func firstRunes(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}
