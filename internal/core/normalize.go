package core

import "strings"

// Field is one header/value pair of an objectified row.
type Field struct {
	Key   string
	Value string
}

// Record is a data row keyed by header, in column order. Keys are unique;
// when a header repeats, the later column's value wins.
type Record []Field

// Objectify pairs each header with the cell at the same position. Cells past
// the last header are dropped and missing cells are left out.
func Objectify(headers []string, row []string) Record {
	rec := make(Record, 0, len(headers))
	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		if i >= len(row) {
			break
		}
		if j, ok := pos[h]; ok {
			rec[j].Value = row[i]
			continue
		}
		pos[h] = len(rec)
		rec = append(rec, Field{Key: h, Value: row[i]})
	}
	return rec
}

// NormalizedRow holds the canonical fields of one record for a given kind.
type NormalizedRow struct {
	Kind   Kind
	Values map[string]string
	// Extra holds values whose keys matched no alias.
	Extra map[string]string
}

// Get returns the canonical field value, or "" when absent.
func (r NormalizedRow) Get(field string) string {
	return r.Values[field]
}

var sharedAliases = map[string]string{
	"meaning":          FieldMeaning,
	"_2":               FieldMeaning,
	"example":          FieldExample,
	"example sentence": FieldExample,
	"_4":               FieldExample,
	"translation":      FieldTranslation,
	"_5":               FieldTranslation,
}

var standardAliases = map[string]string{
	"word":           FieldWord,
	"_1":             FieldWord,
	"pronunciation":  FieldPronunciation,
	"pronounciation": FieldPronunciation,
	"_3":             FieldPronunciation,
}

var collocationAliases = map[string]string{
	"collocation": FieldCollocation,
	"_1":          FieldCollocation,
	"explanation": FieldExplanation,
	"_3":          FieldExplanation,
}

// ResolveAlias maps a cleaned key to its canonical field for the kind.
func ResolveAlias(key string, kind Kind) (string, bool) {
	kindAliases := standardAliases
	if kind == KindCollocation {
		kindAliases = collocationAliases
	}
	if f, ok := kindAliases[key]; ok {
		return f, true
	}
	f, ok := sharedAliases[key]
	return f, ok
}

// NormalizeRow maps a record onto the canonical field set of kind.
//
// Keys are trimmed and lowercased and values trimmed before alias
// resolution. Unresolved keys, including an empty one, go to Extra under
// their cleaned key. Every canonical field of the kind is present in the result,
// defaulting to "".
func NormalizeRow(rec Record, kind Kind) NormalizedRow {
	out := NormalizedRow{
		Kind:   kind,
		Values: make(map[string]string, 5),
	}
	for _, f := range kind.Fields() {
		out.Values[f] = ""
	}

	for _, f := range rec {
		key := strings.ToLower(strings.TrimSpace(f.Key))
		value := strings.TrimSpace(f.Value)
		if canonical, ok := ResolveAlias(key, kind); ok {
			out.Values[canonical] = value
			continue
		}
		if out.Extra == nil {
			out.Extra = make(map[string]string)
		}
		out.Extra[key] = value
	}
	return out
}
