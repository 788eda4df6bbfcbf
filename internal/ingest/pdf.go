package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page is the extracted text of one PDF page. Number is 1-based.
type Page struct {
	Number int
	Text   string
}

// extractPDF extracts per-page plain text from the PDF at path.
// Pages without extractable text are skipped; totalPages is the page count
// of the file regardless. Returns an error if no page yields any text
// (scanned PDFs without an OCR layer typically hit this).
func extractPDF(path string) (pages []Page, totalPages int, err error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	totalPages = reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		text := normalizeExtractedText(content)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: pageIndex, Text: text})
	}

	if len(pages) == 0 {
		return nil, totalPages, fmt.Errorf("no extractable text found in pdf")
	}
	return pages, totalPages, nil
}

// normalizeExtractedText trims trailing whitespace per line and collapses
// runs of blank lines, which PDF extraction produces in abundance.
func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	buf := bytes.Buffer{}

	emptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String())
}
