package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var errEmptyPDF = errors.New("empty PDF content")

// extractPDF emits one <p> per non-empty text line. Font and style metadata
// is not available, so no headings are detected and no images are returned.
func (e *Extractor) extractPDF(data []byte) (c Content, err error) {
	if len(data) == 0 {
		return Content{}, extractionErr(FormatPDF, errEmptyPDF)
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("extract: pdf parser panic", "panic", r)
			c, err = Content{}, extractionErr(FormatPDF, fmt.Errorf("malformed pdf: %v", r))
		}
	}()

	text, err := pdfText(data)
	if err != nil {
		return Content{}, extractionErr(FormatPDF, err)
	}
	return Content{HTML: linesToHTML(text)}, nil
}

// pdfText returns every page's plain text separated by a blank line.
func pdfText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}
	return text.String(), nil
}
