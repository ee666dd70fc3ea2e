package extract

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is matching. Concrete failures are reported as
// *UnsupportedFormatError and *ExtractionError.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrExtraction        = errors.New("extraction failed")
)

// UnsupportedFormatError reports an extension outside the supported set.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.Ext)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// ExtractionError reports bytes that cannot be read as the declared format.
type ExtractionError struct {
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtraction
}

func extractionErr(format Format, err error) error {
	return &ExtractionError{Format: format, Err: err}
}
