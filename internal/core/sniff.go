package core

import "strings"

// FirstLine returns text up to the first '\n'. A trailing '\r' is kept; it
// never affects delimiter counts.
func FirstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// SniffDelimiter picks the field separator from a table's first line.
//
// Tab wins ties against both other candidates, semicolon must strictly beat
// comma, and comma is the fallback, including for lines that contain none of
// the three.
func SniffDelimiter(firstLine string) rune {
	tabs := strings.Count(firstLine, "\t")
	commas := strings.Count(firstLine, ",")
	semis := strings.Count(firstLine, ";")

	if tabs+commas+semis == 0 {
		return ','
	}
	if tabs >= commas && tabs >= semis {
		return '\t'
	}
	if semis > commas {
		return ';'
	}
	return ','
}
