// Package extract turns uploaded documents into normalized HTML plus inline
// images.
//
// Dispatch is by declared file extension:
//
//   - pdf: page text, one <p> per non-empty line
//   - doc, docx: OOXML body walk producing <p>, <h1>-<h6> and styled
//     <table> markup, plus every image relationship as a data URL
//   - txt, rtf, odt: UTF-8 text with a CP1251 fallback, one <p> per line
//
// Usage:
//
//	content, err := extract.Extract(data, "docx")
//	if errors.Is(err, extract.ErrUnsupportedFormat) {
//	    // reject the upload
//	}
//	fmt.Println(content.HTML, len(content.Images))
package extract

import (
	"log/slog"
	"path"
	"strings"
)

// Format identifies an extraction path.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatText Format = "text"
)

// maxZipEntrySize limits decompressed size of individual zip entries
// to prevent zip bomb attacks (100 MB).
const maxZipEntrySize = 100 << 20

var extensionFormats = map[string]Format{
	"pdf":  FormatPDF,
	"doc":  FormatDOCX,
	"docx": FormatDOCX,
	"txt":  FormatText,
	"rtf":  FormatText,
	"odt":  FormatText,
}

// SupportedExtensions lists the accepted extensions in a stable order.
func SupportedExtensions() []string {
	return []string{"pdf", "doc", "docx", "txt", "rtf", "odt"}
}

// FormatFor maps an extension (case-insensitive, optional leading dot) to its
// extraction path.
func FormatFor(ext string) (Format, error) {
	ext = normalizeExt(ext)
	if f, ok := extensionFormats[ext]; ok {
		return f, nil
	}
	return "", &UnsupportedFormatError{Ext: ext}
}

// ExtensionFromFileName returns the lowercase suffix after the last dot.
// A name without a dot is returned lowercased in full.
func ExtensionFromFileName(name string) string {
	name = strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func normalizeExt(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// Content is the normalized result of an extraction.
type Content struct {
	HTML   string  `json:"html"`
	Images []Image `json:"images"`

	// Skipped lists embedded images that could not be read. Extraction
	// still succeeds when some images are skipped.
	Skipped []SkippedImage `json:"-"`
}

// Image is an embedded asset encoded as a data URL.
type Image struct {
	DataURL  string `json:"data"`
	MimeType string `json:"mime"`
}

// SkippedImage records why an image relationship was dropped.
type SkippedImage struct {
	RelID  string
	Target string
	Err    error
}

// Extractor runs the extraction pipeline. It holds no per-call state and is
// safe for concurrent use.
type Extractor struct {
	logger       *slog.Logger
	maxEntrySize int64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a structured logger. Skipped images and recovered parser
// panics are logged at warn level. If not set, no logs are emitted.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithMaxEntrySize overrides the per-entry decompression limit applied to
// DOCX archives.
func WithMaxEntrySize(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxEntrySize = n
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{logger: nopLogger, maxEntrySize: maxZipEntrySize}
	for _, o := range opts {
		o(e)
	}
	return e
}

var defaultExtractor = New()

// Extract runs the default Extractor.
func Extract(data []byte, ext string) (Content, error) {
	return defaultExtractor.Extract(data, ext)
}

// Extract converts data, declared as a file with extension ext, into Content.
// It returns an *UnsupportedFormatError for unknown extensions and an
// *ExtractionError when data cannot be parsed as the declared format.
func (e *Extractor) Extract(data []byte, ext string) (Content, error) {
	format, err := FormatFor(ext)
	if err != nil {
		return Content{}, err
	}

	var c Content
	switch format {
	case FormatPDF:
		c, err = e.extractPDF(data)
	case FormatDOCX:
		c, err = e.extractDOCX(data)
	case FormatText:
		c, err = e.extractText(data)
	}
	if err != nil {
		return Content{}, err
	}
	if c.Images == nil {
		c.Images = []Image{}
	}

	e.logger.Debug("extract: done",
		"format", format,
		"input_bytes", len(data),
		"html_bytes", len(c.HTML),
		"images", len(c.Images),
		"skipped_images", len(c.Skipped))
	return c, nil
}

var nopLogger = slog.New(slog.DiscardHandler)
