package reader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// FromPDF extracts plain text from a PDF snapshot. The library wants a
// ReadSeeker plus size, so the bytes go through a temp file.
func FromPDF(data []byte) (Article, error) {
	tmp, err := os.CreateTemp("", "marginalia-pdf-*.pdf")
	if err != nil {
		return Article{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return Article{}, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, r, err := pdflib.Open(tmpPath)
	if err != nil {
		return Article{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var buf strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(strings.TrimSpace(text))
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return Article{}, fmt.Errorf("no extractable text in pdf")
	}
	return Article{Text: text, Length: len(text)}, nil
}
