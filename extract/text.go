package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var errUndefinedCP1251 = errors.New("input is neither valid UTF-8 nor CP1251")

func (e *Extractor) extractText(data []byte) (Content, error) {
	text, err := decodeText(data)
	if err != nil {
		return Content{}, extractionErr(FormatText, err)
	}
	return Content{HTML: linesToHTML(text)}, nil
}

// decodeText tries UTF-8 first and falls back to CP1251. No other encodings
// are attempted.
func decodeText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return strings.TrimPrefix(string(data), "\ufeff"), nil
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode cp1251: %w", err)
	}
	// 0x98 is unassigned in CP1251 and decodes to U+FFFD; no assigned byte does.
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", errUndefinedCP1251
	}
	return string(decoded), nil
}
