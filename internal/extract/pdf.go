// Package extract turns uploaded files and fetched web pages into plain text
// ready for chunking.
package extract

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"subject-tutor/internal/corpus"
)

var (
	// ErrUnsupportedContent is returned for content types that cannot be turned into text.
	ErrUnsupportedContent = errors.New("unsupported content type")
	// ErrInvalidURL is returned for URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid url")
	// ErrContentTooLarge is returned when a response body exceeds the fetch limit.
	ErrContentTooLarge = errors.New("content too large")
	// ErrNoPages is returned for PDFs without any page.
	ErrNoPages = errors.New("pdf has no pages")
)

// ExtractPDF reads the plain text of every page. Pages are numbered from 1.
// Pages whose text cannot be decoded are returned with empty text.
func ExtractPDF(r io.ReaderAt, size int64) ([]corpus.Page, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	return readPages(reader)
}

// ExtractPDFFile opens path and extracts its pages.
func ExtractPDFFile(path string) ([]corpus.Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	return readPages(reader)
}

func readPages(reader *pdf.Reader) (pages []corpus.Page, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	n := reader.NumPage()
	if n == 0 {
		return nil, ErrNoPages
	}

	pages = make([]corpus.Page, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, corpus.Page{Number: i})
			continue
		}
		// Font names are page-scoped resources, so each page resolves its own.
		text, err := page.GetPlainText(nil)
		if err != nil {
			text = ""
		}
		pages = append(pages, corpus.Page{Number: i, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}
