package core

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
)

// SourceKind names where upload content comes from.
type SourceKind string

const (
	SourceFile     SourceKind = "file"      // Uploaded .csv/.tsv/.txt/.xlsx bytes
	SourceText     SourceKind = "text"      // Pasted spreadsheet text
	SourceSheet    SourceKind = "sheet"     // Public spreadsheet URL, fetched as CSV export
	SourceSheetAPI SourceKind = "sheet_api" // Spreadsheet URL read through the values API
)

// Source is the raw input of a parse or upload.
type Source struct {
	Kind SourceKind
	// Name is the original file name or URL, for history and logs.
	Name string
	// Data holds file bytes or pasted text.
	Data []byte
	// URL and Token are used by the spreadsheet kinds.
	URL   string
	Token string
}

// Parse reads a source and runs the ingestion pipeline on it. The course,
// when non-empty, fixes the record kind. The returned bytes are the content
// that was parsed, for keeping as a backup.
func (s *Service) Parse(ctx context.Context, src Source, courseID string) (ParseResult, []byte, error) {
	opts := s.cfg.Parse
	if courseID != "" {
		c, err := LookupCourse(courseID)
		if err != nil {
			return ParseResult{}, nil, err
		}
		opts.IsCollocation = c.KindOverride()
	}
	return s.parse(ctx, src, opts)
}

func (s *Service) parse(ctx context.Context, src Source, opts Options) (ParseResult, []byte, error) {
	switch src.Kind {
	case SourceFile:
		if len(src.Data) == 0 {
			return ParseResult{}, nil, ErrEmptySource
		}
		return ParseBytes(src.Data, opts), src.Data, nil

	case SourceText:
		if strings.TrimSpace(string(src.Data)) == "" {
			return ParseResult{}, nil, ErrEmptySource
		}
		text, err := DecodeText(src.Data)
		if err != nil {
			return ParseResult{}, nil, err
		}
		return ParseString(text, opts), src.Data, nil

	case SourceSheet:
		if s.sheets == nil {
			return ParseResult{}, nil, ErrSheetsNotConfigured
		}
		text, err := s.sheets.FetchCSV(ctx, src.URL)
		if err != nil {
			return ParseResult{}, nil, fmt.Errorf("fetch sheet: %w", err)
		}
		return ParseString(text, opts), []byte(text), nil

	case SourceSheetAPI:
		if s.sheets == nil {
			return ParseResult{}, nil, ErrSheetsNotConfigured
		}
		rows, err := s.sheets.FetchValues(ctx, src.URL, src.Token)
		if err != nil {
			return ParseResult{}, nil, fmt.Errorf("fetch sheet values: %w", err)
		}
		return ParseRows(rows, opts), encodeRows(rows), nil

	default:
		return ParseResult{}, nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}
}

// encodeRows renders API values as CSV for the upload backup.
func encodeRows(rows [][]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(rows)
	return buf.Bytes()
}
