package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyWorkbook is returned when an .xlsx file has no sheets.
var ErrEmptyWorkbook = errors.New("workbook has no sheets")

// TokenizerOptions tunes the delimited-text tokenizer.
type TokenizerOptions struct {
	// StrictQuotes rejects bare or unbalanced quotes instead of keeping them
	// as literal characters (default: false)
	StrictQuotes bool
}

// Tokenize splits delimited text into rows of cells.
//
// Quoted fields may contain the delimiter, doubled quotes and newlines.
// Blank lines are skipped and ragged rows are kept as-is.
func Tokenize(text string, delim rune, opts TokenizerOptions) (RawTable, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = !opts.StrictQuotes

	var rows RawTable
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// TokenizeWorkbook reads the first sheet of an .xlsx workbook.
func TokenizeWorkbook(data []byte) (RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	// GetRows keeps blank rows as empty slices; delimited input never yields them.
	out := make(RawTable, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}
