package parser

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// ExtractPages extracts plain text from a PDF, one string per page.
// Pages whose text cannot be read are returned empty rather than failing
// the whole document.
func ExtractPages(data []byte) ([]string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// ExtractText extracts the full text of a PDF, page texts joined by newlines.
func ExtractText(data []byte) (string, error) {
	pages, err := ExtractPages(data)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, page := range pages {
		buf.WriteString(page)
		buf.WriteString("\n")
	}
	return buf.String(), nil
}
