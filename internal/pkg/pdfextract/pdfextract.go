package pdfextract

import (
	"errors"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrNoText = errors.New("pdf contains no extractable text")

// ExtractText returns the plain text of every page of the PDF in r, in page
// order, with surrounding whitespace removed.
func ExtractText(r io.ReaderAt, size int64) (string, error) {
	if size == 0 {
		return "", ErrNoText
	}
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
