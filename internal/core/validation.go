package core

// validation.go checks normalized rows against the schema of their kind.
//
// Only the headword and meaning are required. A failing row yields one
// ValidationError per empty required field and is excluded from the result;
// it never stops the rest of the batch.

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Canonical field name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationResult contains the result of validating a row.
type ValidationResult struct {
	Valid  bool              // True if all validations passed
	Errors []ValidationError // List of validation errors (empty if Valid)
}

// RowError formats the errors of the row at 1-based position n.
func (r ValidationResult) RowError(n int) string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("Row %d: %s", n, strings.Join(msgs, ", "))
}

const msgRequired = "required field is empty"

// RequiredFields returns the fields that must be non-empty for the kind.
func RequiredFields(kind Kind) []string {
	return []string{kind.PrimaryField(), FieldMeaning}
}

// ValidateRow checks the row's required fields and builds the typed record.
// The returned Word is nil when validation fails.
func ValidateRow(row NormalizedRow) (Word, ValidationResult) {
	result := ValidationResult{Valid: true}
	for _, f := range RequiredFields(row.Kind) {
		if row.Get(f) == "" {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				Field:   f,
				Message: msgRequired,
			})
		}
	}
	if !result.Valid {
		return nil, result
	}
	return buildWord(row), result
}

func buildWord(row NormalizedRow) Word {
	if row.Kind == KindCollocation {
		return CollocationWord{
			Collocation: row.Get(FieldCollocation),
			Meaning:     row.Get(FieldMeaning),
			Explanation: row.Get(FieldExplanation),
			Example:     row.Get(FieldExample),
			Translation: row.Get(FieldTranslation),
			Extra:       row.Extra,
		}
	}
	return StandardWord{
		Word:          row.Get(FieldWord),
		Meaning:       row.Get(FieldMeaning),
		Pronunciation: row.Get(FieldPronunciation),
		Example:       row.Get(FieldExample),
		Translation:   row.Get(FieldTranslation),
		Extra:         row.Extra,
	}
}

// isResidualHeader reports whether row is a header row that slipped past
// header detection, e.g. "Word,Meaning" repeated mid-file.
func isResidualHeader(row NormalizedRow) bool {
	primary := row.Kind.PrimaryField()
	return strings.ToLower(row.Get(primary)) == primary &&
		strings.ToLower(row.Get(FieldMeaning)) == FieldMeaning
}
