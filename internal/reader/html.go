package reader

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/mbrennan/marginalia/internal/dom"
	"github.com/mbrennan/marginalia/internal/logger"
)

// minReadableChars is the threshold below which a readability result is
// considered thin and the selector fallback takes over.
const minReadableChars = 140

// FromHTML extracts the readable article from an HTML snapshot. The
// readability algorithm runs first; when it fails or yields thin text, a
// fixed list of content selectors is walked instead, ending at <body>.
func FromHTML(data []byte, pageURL string) (Article, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Article{}, fmt.Errorf("empty html snapshot")
	}

	if a, ok := tryReadability(data, pageURL); ok {
		return a, nil
	}
	return bySelectors(data)
}

func tryReadability(data []byte, pageURL string) (Article, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = &url.URL{}
	}
	art, err := readability.FromReader(bytes.NewReader(data), u)
	if err != nil {
		logger.L().Debugw("readability failed, using selector fallback",
			"url", pageURL, "error", err)
		return Article{}, false
	}
	text := strings.TrimSpace(art.TextContent)
	if len(text) < minReadableChars {
		logger.L().Debugw("readability output thin, using selector fallback",
			"url", pageURL, "chars", len(text))
		return Article{}, false
	}
	return Article{
		Title:    art.Title,
		Byline:   art.Byline,
		SiteName: art.SiteName,
		Excerpt:  art.Excerpt,
		Text:     text,
		HTML:     art.Content,
		Length:   len(text),
	}, true
}

// bySelectors walks the candidate content containers in priority order:
// article, main, [role=main], #content, .content, then the whole body.
func bySelectors(data []byte) (Article, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return Article{}, fmt.Errorf("parse html: %w", err)
	}

	selectors := []func(*html.Node) bool{
		func(n *html.Node) bool { return n.DataAtom == atom.Article },
		func(n *html.Node) bool { return n.DataAtom == atom.Main },
		func(n *html.Node) bool { return dom.Attr(n, "role") == "main" },
		func(n *html.Node) bool { return dom.Attr(n, "id") == "content" },
		func(n *html.Node) bool { return hasClass(n, "content") },
		func(n *html.Node) bool { return n.DataAtom == atom.Body },
	}

	var container *html.Node
	for _, match := range selectors {
		if found := dom.FindElement(doc, match); found != nil {
			container = found
			break
		}
	}
	if container == nil {
		container = doc
	}

	text := collapseWhitespace(visibleText(container))
	if text == "" {
		return Article{}, fmt.Errorf("no extractable text")
	}
	return Article{
		Title:  pageTitle(doc),
		Text:   text,
		Length: len(text),
	}, nil
}

// visibleText concatenates text beneath n, skipping script/style/nav/header/
// footer subtrees, with block-ish separation between nodes.
func visibleText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Nav, atom.Header, atom.Footer, atom.Noscript:
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if buf.Len() > 0 {
					buf.WriteByte(' ')
				}
				buf.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func pageTitle(doc *html.Node) string {
	title := dom.FindElement(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Title
	})
	if title == nil {
		return ""
	}
	return strings.TrimSpace(dom.TextContent(title))
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(dom.Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
