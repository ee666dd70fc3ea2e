package extract

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageCount returns the number of pages in a PDF. The document structure is
// validated in relaxed mode.
func PageCount(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, extractionErr(FormatPDF, errEmptyPDF)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return 0, extractionErr(FormatPDF, fmt.Errorf("page count: %w", err))
	}
	return n, nil
}
