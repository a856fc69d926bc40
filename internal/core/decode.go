package core

// decode.go turns uploaded bytes into clean UTF-8 text before tokenizing.
//
// Files exported from Excel or Google Sheets on Windows often carry a byte
// order mark, and some are saved as UTF-16. The decoder:
//
//   - strips a UTF-8 BOM
//   - switches to UTF-16 LE/BE when the matching BOM is present
//   - replaces invalid UTF-8 sequences with U+FFFD

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// xlsxMagic is the zip local file header every .xlsx workbook starts with.
var xlsxMagic = []byte("PK\x03\x04")

// NewDecodingReader wraps r so that reads yield BOM-free, valid UTF-8.
func NewDecodingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// DecodeText decodes raw file bytes into a string.
func DecodeText(data []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

// IsWorkbook reports whether data looks like an .xlsx file.
func IsWorkbook(data []byte) bool {
	return bytes.HasPrefix(data, xlsxMagic)
}
