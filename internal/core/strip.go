package core

import (
	"regexp"
	"strings"
)

// LeadingColumnSampleSize is how many non-empty rows are inspected when
// deciding whether to drop a leading index column.
var LeadingColumnSampleSize = 5

var digitsOnly = regexp.MustCompile(`^\d+$`)

// StripLeadingColumn drops column 0 from every row when it looks like a row
// number or blank gutter, as spreadsheet exports often add.
//
// The first sampleSize non-empty rows are inspected. The column is dropped
// only if the first sampled row has more than one cell and every sampled
// row's first cell is blank or all digits. The second return value reports
// whether the column was dropped.
func StripLeadingColumn(rows RawTable, sampleSize int) (RawTable, bool) {
	var sample RawTable
	for _, row := range rows {
		if len(sample) >= sampleSize {
			break
		}
		if !isEmptyRow(row) {
			sample = append(sample, row)
		}
	}

	if len(sample) == 0 || len(sample[0]) <= 1 {
		return rows, false
	}

	for _, row := range sample {
		first := strings.TrimSpace(row[0])
		if first != "" && !digitsOnly.MatchString(first) {
			return rows, false
		}
	}

	out := make(RawTable, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			out[i] = row[1:]
		} else {
			out[i] = row
		}
	}
	return out, true
}

// isEmptyRow reports whether every cell is empty or whitespace.
func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
