// Package reader extracts readable article text from page snapshots. HTML
// goes through the readability algorithm with selector fallbacks; markdown,
// pdf, docx and plain text snapshots are converted to the same Article
// shape so the digest pipeline treats every format alike.
package reader

import (
	"fmt"
	"strings"
)

// Format identifies the snapshot encoding a client uploaded.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatText     Format = "text"
)

// Valid reports whether f is a supported snapshot format.
func (f Format) Valid() bool {
	switch f {
	case FormatHTML, FormatMarkdown, FormatPDF, FormatDOCX, FormatText:
		return true
	}
	return false
}

// Article is the readable content of a page: what summarization and
// keyword extraction operate on.
type Article struct {
	Title    string `json:"title"`
	Byline   string `json:"byline,omitempty"`
	SiteName string `json:"site_name,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
	Text     string `json:"text"`
	HTML     string `json:"html,omitempty"`
	Length   int    `json:"length"`
}

// FromSnapshot extracts an Article from raw snapshot bytes. An empty
// format defaults to HTML, the format browser clients send.
func FromSnapshot(format Format, data []byte, pageURL string) (Article, error) {
	if format == "" {
		format = FormatHTML
	}
	switch format {
	case FormatHTML:
		return FromHTML(data, pageURL)
	case FormatMarkdown:
		return FromMarkdown(data, pageURL)
	case FormatPDF:
		return FromPDF(data)
	case FormatDOCX:
		return FromDOCX(data)
	case FormatText:
		return fromText(data), nil
	default:
		return Article{}, fmt.Errorf("unsupported snapshot format %q", format)
	}
}

func fromText(data []byte) Article {
	text := strings.TrimSpace(string(data))
	a := Article{Text: text, Length: len(text)}
	if i := strings.IndexByte(text, '\n'); i > 0 {
		a.Title = strings.TrimSpace(text[:i])
	} else {
		a.Title = text
	}
	return a
}
