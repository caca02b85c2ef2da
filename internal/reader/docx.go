package reader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// FromDOCX extracts paragraph text from a .docx snapshot. The first
// heading-styled paragraph becomes the title.
func FromDOCX(data []byte) (Article, error) {
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Article{}, fmt.Errorf("parse docx: %w", err)
	}

	var title string
	var paras []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		if title == "" && isHeading(para) {
			title = text
			continue
		}
		paras = append(paras, text)
	}

	text := strings.Join(paras, "\n\n")
	if text == "" && title == "" {
		return Article{}, fmt.Errorf("no extractable text in docx")
	}
	return Article{Title: title, Text: text, Length: len(text)}, nil
}

func isHeading(para *docx.Paragraph) bool {
	if para.Properties == nil || para.Properties.Style == nil {
		return false
	}
	style := strings.ToLower(para.Properties.Style.Val)
	return strings.HasPrefix(style, "heading") || style == "title"
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
