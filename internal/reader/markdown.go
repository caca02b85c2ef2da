package reader

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// FromMarkdown renders a markdown snapshot to HTML with goldmark and runs
// the HTML extraction over the result, so rendered markdown pages get the
// same readable-article treatment as captured web pages.
func FromMarkdown(data []byte, pageURL string) (Article, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(data, &buf); err != nil {
		return Article{}, fmt.Errorf("render markdown: %w", err)
	}
	a, err := FromHTML(buf.Bytes(), pageURL)
	if err != nil {
		return Article{}, err
	}
	if a.HTML == "" {
		a.HTML = buf.String()
	}
	return a, nil
}
