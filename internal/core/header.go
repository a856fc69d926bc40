package core

import "strings"

// HeaderMatchThreshold is the number of known field names a first row must
// contain to be treated as a header row.
var HeaderMatchThreshold = 2

// KnownFields are the field names recognized in a header row. Positional
// aliases (_1.._6) are deliberately absent.
var KnownFields = map[string]struct{}{
	FieldWord:          {},
	FieldCollocation:   {},
	FieldMeaning:       {},
	FieldPronunciation: {},
	"pronounciation":   {},
	FieldExplanation:   {},
	FieldExample:       {},
	"example sentence": {},
	FieldTranslation:   {},
}

// PositionalHeaders are assigned to headerless tables. Only the first six
// columns of a headerless row are read.
var PositionalHeaders = []string{"_1", "_2", "_3", "_4", "_5", "_6"}

// NormalizeHeaders trims and lowercases every cell of a header row.
func NormalizeHeaders(row []string) []string {
	out := make([]string, len(row))
	for i, h := range row {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

// DetectHeader reports whether first is a header row: at least threshold of
// its normalized cells must be known field names.
func DetectHeader(first []string, threshold int) bool {
	matches := 0
	for _, h := range NormalizeHeaders(first) {
		if _, ok := KnownFields[h]; ok {
			matches++
		}
	}
	return matches >= threshold
}
