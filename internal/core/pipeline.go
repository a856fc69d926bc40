package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnreadableInput is returned when the input stream cannot be read at all.
// Every other problem is reported inside ParseResult.
var ErrUnreadableInput = errors.New("could not read file")

// Options control a single parse call. The zero value uses the package
// defaults and header-based kind detection.
type Options struct {
	// IsCollocation forces the kind when non-nil.
	IsCollocation *bool
	// HeaderThreshold overrides HeaderMatchThreshold when > 0.
	HeaderThreshold int
	// SampleSize overrides LeadingColumnSampleSize when > 0.
	SampleSize int
	// StrictQuotes rejects malformed quoting instead of reading it literally.
	StrictQuotes bool
}

func (o Options) headerThreshold() int {
	if o.HeaderThreshold > 0 {
		return o.HeaderThreshold
	}
	return HeaderMatchThreshold
}

func (o Options) sampleSize() int {
	if o.SampleSize > 0 {
		return o.SampleSize
	}
	return LeadingColumnSampleSize
}

// ParseFile reads an uploaded file and parses it. Both delimited text and
// .xlsx workbooks are accepted; workbooks are detected by content.
//
// The error is non-nil only when r cannot be read.
func ParseFile(r io.Reader, name string, opts Options) (ParseResult, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xlsxMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return ParseResult{}, fmt.Errorf("%w %s: %v", ErrUnreadableInput, name, err)
	}

	if IsWorkbook(head) {
		data, err := io.ReadAll(br)
		if err != nil {
			return ParseResult{}, fmt.Errorf("%w %s: %v", ErrUnreadableInput, name, err)
		}
		return ParseBytes(data, opts), nil
	}

	text, err := io.ReadAll(NewDecodingReader(br))
	if err != nil {
		return ParseResult{}, fmt.Errorf("%w %s: %v", ErrUnreadableInput, name, err)
	}
	return ParseString(string(text), opts), nil
}

// ParseBytes parses file content already held in memory.
func ParseBytes(data []byte, opts Options) ParseResult {
	if IsWorkbook(data) {
		rows, err := TokenizeWorkbook(data)
		if err != nil {
			return failedResult(err)
		}
		return ParseRows(rows, opts)
	}

	text, err := DecodeText(data)
	if err != nil {
		return failedResult(err)
	}
	return ParseString(text, opts)
}

// ParseString parses pasted or downloaded delimited text. A leading byte
// order mark is dropped and the delimiter is sniffed from the first line.
func ParseString(text string, opts Options) ParseResult {
	text = strings.TrimPrefix(text, "\ufeff")
	delim := SniffDelimiter(FirstLine(text))
	rows, err := Tokenize(text, delim, TokenizerOptions{StrictQuotes: opts.StrictQuotes})
	if err != nil {
		return failedResult(err)
	}
	return ParseRows(rows, opts)
}

// ParseRows parses an already tokenized table, such as a spreadsheet API
// values response.
func ParseRows(rows [][]string, opts Options) ParseResult {
	if len(rows) == 0 {
		return emptyResult()
	}

	var headers []string
	var data RawTable
	if DetectHeader(rows[0], opts.headerThreshold()) {
		headers = NormalizeHeaders(rows[0])
		data = rows[1:]
	} else {
		headers = PositionalHeaders
		data, _ = StripLeadingColumn(rows, opts.sampleSize())
	}

	kind := DetectKind(headers, opts.IsCollocation)
	result := ParseResult{
		Words:           []Word{},
		IsCollocation:   kind == KindCollocation,
		Errors:          []string{},
		DetectedHeaders: append([]string(nil), headers...),
	}

	n := 0
	for _, row := range data {
		if isEmptyRow(row) {
			continue
		}
		n++

		norm := NormalizeRow(Objectify(headers, row), kind)
		if isResidualHeader(norm) {
			continue
		}

		word, vr := ValidateRow(norm)
		if !vr.Valid {
			result.Errors = append(result.Errors, vr.RowError(n))
			continue
		}
		result.Words = append(result.Words, word)
	}
	return result
}

func failedResult(err error) ParseResult {
	r := emptyResult()
	r.Errors = append(r.Errors, err.Error())
	return r
}
