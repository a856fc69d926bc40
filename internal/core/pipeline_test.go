package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
	"unicode/utf16"
)

// ============================================================================
// ParseRows Scenarios
// ============================================================================

func TestParseRows_HeaderedStandard(t *testing.T) {
	rows := [][]string{
		{"Word", "Meaning", "Pronunciation", "Example", "Translation"},
		{"run", "달리다", "rʌn", "I run daily.", "나는 매일 달린다."},
	}

	got := ParseRows(rows, Options{})

	if got.IsCollocation {
		t.Error("IsCollocation = true, want false")
	}
	if len(got.Errors) != 0 {
		t.Errorf("Errors = %v, want none", got.Errors)
	}
	want := []Word{StandardWord{
		Word: "run", Meaning: "달리다", Pronunciation: "rʌn",
		Example: "I run daily.", Translation: "나는 매일 달린다.",
	}}
	if !reflect.DeepEqual(got.Words, want) {
		t.Errorf("Words = %#v, want %#v", got.Words, want)
	}
	wantHeaders := []string{"word", "meaning", "pronunciation", "example", "translation"}
	if !reflect.DeepEqual(got.DetectedHeaders, wantHeaders) {
		t.Errorf("DetectedHeaders = %v, want %v", got.DetectedHeaders, wantHeaders)
	}
}

func TestParseRows_PositionalStandard(t *testing.T) {
	rows := [][]string{{"look up", "찾아보다", "", "look it up.", ""}}

	got := ParseRows(rows, Options{})

	if got.IsCollocation {
		t.Error("IsCollocation = true, want false")
	}
	want := []Word{StandardWord{Word: "look up", Meaning: "찾아보다", Example: "look it up."}}
	if !reflect.DeepEqual(got.Words, want) {
		t.Errorf("Words = %#v, want %#v", got.Words, want)
	}
	if !reflect.DeepEqual(got.DetectedHeaders, PositionalHeaders) {
		t.Errorf("DetectedHeaders = %v, want %v", got.DetectedHeaders, PositionalHeaders)
	}
}

func TestParseRows_LeadingColumnCollocationOverride(t *testing.T) {
	rows := [][]string{{"", "break the ice", "분위기를 깨다", "relationship", "She broke the ice.", ""}}

	got := ParseRows(rows, Options{IsCollocation: Bool(true)})

	if !got.IsCollocation {
		t.Fatal("IsCollocation = false, want true")
	}
	want := []Word{CollocationWord{
		Collocation: "break the ice", Meaning: "분위기를 깨다",
		Explanation: "relationship", Example: "She broke the ice.",
	}}
	if !reflect.DeepEqual(got.Words, want) {
		t.Errorf("Words = %#v, want %#v", got.Words, want)
	}
}

func TestParseRows_RowErrorsDoNotAbort(t *testing.T) {
	rows := [][]string{
		{"word", "meaning"},
		{"run", "달리다"},
		{"", "걷다"},
		{"   ", "  "},
		{"swim", ""},
		{"jump", "뛰다"},
	}

	got := ParseRows(rows, Options{})

	wantErrors := []string{
		"Row 2: word: required field is empty",
		"Row 3: meaning: required field is empty",
	}
	if !reflect.DeepEqual(got.Errors, wantErrors) {
		t.Errorf("Errors = %q, want %q", got.Errors, wantErrors)
	}
	if len(got.Words) != 2 || got.Words[0].Headword() != "run" || got.Words[1].Headword() != "jump" {
		t.Errorf("Words = %v, want run then jump", got.Words)
	}
}

func TestParseRows_ResidualHeaderSkipped(t *testing.T) {
	rows := [][]string{
		{"run", "달리다"},
		{"Word", "Meaning"},
		{"walk", "걷다"},
	}

	got := ParseRows(rows, Options{})

	if len(got.Errors) != 0 {
		t.Errorf("Errors = %v, want none", got.Errors)
	}
	if len(got.Words) != 2 {
		t.Fatalf("len(Words) = %d, want 2", len(got.Words))
	}
}

func TestParseRows_ResidualHeaderCountsTowardRowNumbers(t *testing.T) {
	rows := [][]string{
		{"run", "달리다"},
		{"WORD", "meaning"},
		{"walk", ""},
	}

	got := ParseRows(rows, Options{})

	want := []string{"Row 3: meaning: required field is empty"}
	if !reflect.DeepEqual(got.Errors, want) {
		t.Errorf("Errors = %q, want %q", got.Errors, want)
	}
}

func TestParseRows_HeaderModeDoesNotStrip(t *testing.T) {
	rows := [][]string{
		{"", "word", "meaning"},
		{"1", "run", "달리다"},
	}

	got := ParseRows(rows, Options{})

	want := []Word{StandardWord{Word: "run", Meaning: "달리다", Extra: map[string]string{"": "1"}}}
	if !reflect.DeepEqual(got.Words, want) {
		t.Errorf("Words = %#v, want %#v", got.Words, want)
	}
	if got.DetectedHeaders[0] != "" {
		t.Errorf("DetectedHeaders[0] = %q, want empty", got.DetectedHeaders[0])
	}
}

func TestParseRows_PositionalExtraColumns(t *testing.T) {
	rows := [][]string{{"run", "달리다", "rʌn", "I run.", "나는 달린다.", "note", "dropped"}}

	got := ParseRows(rows, Options{})

	if len(got.Words) != 1 {
		t.Fatalf("len(Words) = %d, want 1", len(got.Words))
	}
	sw := got.Words[0].(StandardWord)
	if !reflect.DeepEqual(sw.Extra, map[string]string{"_6": "note"}) {
		t.Errorf("Extra = %v, want only _6", sw.Extra)
	}
}

func TestParseRows_Empty(t *testing.T) {
	got := ParseRows(nil, Options{})
	if got.Words == nil || got.Errors == nil || got.DetectedHeaders == nil {
		t.Error("empty result must use empty, non-nil slices")
	}
	if len(got.Words)+len(got.Errors)+len(got.DetectedHeaders) != 0 {
		t.Errorf("got %+v, want empty result", got)
	}
}

func TestParseRows_CustomThreshold(t *testing.T) {
	// Only "word" is a known field, so the first row is a header at
	// threshold 1 and data at the default threshold of 2.
	rows := [][]string{{"word", "뜻"}, {"run", "달리다"}}

	tests := []struct {
		name        string
		threshold   int
		wantHeaders []string
		wantWords   []Word
		wantErrors  []string
	}{
		{
			name:        "default threshold keeps first row as data",
			threshold:   0,
			wantHeaders: PositionalHeaders,
			wantWords: []Word{
				StandardWord{Word: "word", Meaning: "뜻"},
				StandardWord{Word: "run", Meaning: "달리다"},
			},
			wantErrors: []string{},
		},
		{
			name:        "threshold 1 promotes single match to header",
			threshold:   1,
			wantHeaders: []string{"word", "뜻"},
			wantWords:   []Word{},
			wantErrors:  []string{"Row 1: meaning: required field is empty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRows(rows, Options{HeaderThreshold: tt.threshold})

			if !reflect.DeepEqual(got.DetectedHeaders, tt.wantHeaders) {
				t.Errorf("DetectedHeaders = %v, want %v", got.DetectedHeaders, tt.wantHeaders)
			}
			if !reflect.DeepEqual(got.Words, tt.wantWords) {
				t.Errorf("Words = %#v, want %#v", got.Words, tt.wantWords)
			}
			if !reflect.DeepEqual(got.Errors, tt.wantErrors) {
				t.Errorf("Errors = %v, want %v", got.Errors, tt.wantErrors)
			}
		})
	}
}

func TestParseRows_ThresholdAboveMatches(t *testing.T) {
	rows := [][]string{{"word", "meaning"}, {"run", "달리다"}}

	got := ParseRows(rows, Options{HeaderThreshold: 3})

	if !reflect.DeepEqual(got.DetectedHeaders, PositionalHeaders) {
		t.Errorf("DetectedHeaders = %v, want positional", got.DetectedHeaders)
	}
	// The "word,meaning" row is dropped by the residual header guard.
	want := []Word{StandardWord{Word: "run", Meaning: "달리다"}}
	if !reflect.DeepEqual(got.Words, want) {
		t.Errorf("Words = %#v, want %#v", got.Words, want)
	}
}

func TestParseRows_ResidualHeaderNeedsPrimaryFieldName(t *testing.T) {
	// Only a row repeating the primary field name counts as a residual
	// header, so "example,Meaning" after the header is an ordinary record.
	rows := [][]string{
		{"Word", "Meaning"},
		{"example", "Meaning"},
		{"run", "달리다"},
	}

	got := ParseRows(rows, Options{})

	want := []Word{
		StandardWord{Word: "example", Meaning: "Meaning"},
		StandardWord{Word: "run", Meaning: "달리다"},
	}
	if !reflect.DeepEqual(got.Words, want) {
		t.Errorf("Words = %#v, want %#v", got.Words, want)
	}
	if len(got.Errors) != 0 {
		t.Errorf("Errors = %v, want none", got.Errors)
	}
}

func TestParseString_DelimiterIdempotence(t *testing.T) {
	inputs := []string{
		"word,meaning,example\nrun,달리다,\"I run, you run.\"\nwalk,걷다,\n",
		"word\tmeaning\texample\nrun\t달리다\tI run, you run, we run.\n",
		"word;meaning\nrun;달리다\nswim;수영하다\n",
	}

	for _, text := range inputs {
		first := ParseString(text, Options{})

		rows, err := Tokenize(text, SniffDelimiter(FirstLine(text)), TokenizerOptions{})
		if err != nil {
			t.Fatalf("Tokenize: %v", err)
		}
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		w.Comma = SniffDelimiter(FirstLine(text))
		if err := w.WriteAll(rows); err != nil {
			t.Fatalf("WriteAll: %v", err)
		}

		second := ParseString(buf.String(), Options{})
		if !reflect.DeepEqual(first.Words, second.Words) || first.IsCollocation != second.IsCollocation {
			t.Errorf("re-serialized parse differs:\nfirst  %#v\nsecond %#v", first.Words, second.Words)
		}
	}
}

// ============================================================================
// Entry Point Tests
// ============================================================================

func TestParseString_TabSeparatedPaste(t *testing.T) {
	text := "1\trun\t달리다\n2\twalk\t걷다\n"

	got := ParseString(text, Options{})

	want := []Word{
		StandardWord{Word: "run", Meaning: "달리다"},
		StandardWord{Word: "walk", Meaning: "걷다"},
	}
	if !reflect.DeepEqual(got.Words, want) {
		t.Errorf("Words = %#v, want %#v", got.Words, want)
	}
}

func TestParseString_LeadingBOM(t *testing.T) {
	got := ParseString("\ufeffWord,Meaning\nrun,달리다\n", Options{})

	if !reflect.DeepEqual(got.DetectedHeaders, []string{"word", "meaning"}) {
		t.Errorf("DetectedHeaders = %v, want [word meaning]", got.DetectedHeaders)
	}
	want := []Word{StandardWord{Word: "run", Meaning: "달리다"}}
	if !reflect.DeepEqual(got.Words, want) {
		t.Errorf("Words = %#v, want %#v", got.Words, want)
	}
}

func TestParseString_TokenizerFailure(t *testing.T) {
	got := ParseString("word,meaning\nrun,\"unterminated\n", Options{StrictQuotes: true, IsCollocation: Bool(true)})

	if len(got.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly one", got.Errors)
	}
	if got.IsCollocation || len(got.Words) != 0 || len(got.DetectedHeaders) != 0 {
		t.Errorf("got %+v, want empty failed result", got)
	}
}

func TestParseFile(t *testing.T) {
	t.Run("csv with bom", func(t *testing.T) {
		r := strings.NewReader("\xef\xbb\xbfWord,Meaning\nrun,달리다\n")
		got, err := ParseFile(r, "words.csv", Options{})
		if err != nil {
			t.Fatalf("ParseFile() error = %v", err)
		}
		if got.DetectedHeaders[0] != "word" {
			t.Errorf("DetectedHeaders = %v, BOM not stripped", got.DetectedHeaders)
		}
		if len(got.Words) != 1 {
			t.Errorf("Words = %v, want 1", got.Words)
		}
	})

	t.Run("xlsx workbook", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"Collocation", "Meaning"},
			{"make sense", "말이 되다"},
		})
		got, err := ParseFile(bytes.NewReader(data), "words.xlsx", Options{})
		if err != nil {
			t.Fatalf("ParseFile() error = %v", err)
		}
		if !got.IsCollocation || len(got.Words) != 1 {
			t.Errorf("got %+v, want one collocation", got)
		}
	})

	t.Run("utf-16 export", func(t *testing.T) {
		got, err := ParseFile(bytes.NewReader(utf16LE("Word\tMeaning\r\nrun\t달리다\r\n")), "words.txt", Options{})
		if err != nil {
			t.Fatalf("ParseFile() error = %v", err)
		}
		want := []Word{StandardWord{Word: "run", Meaning: "달리다"}}
		if !reflect.DeepEqual(got.Words, want) {
			t.Errorf("Words = %#v, want %#v", got.Words, want)
		}
	})

	t.Run("shorter than workbook magic", func(t *testing.T) {
		got, err := ParseFile(strings.NewReader("a"), "words.csv", Options{})
		if err != nil {
			t.Fatalf("ParseFile() error = %v", err)
		}
		if len(got.Words) != 0 || len(got.Errors) != 1 {
			t.Errorf("got %+v, want one row error", got)
		}
	})

	t.Run("unreadable stream", func(t *testing.T) {
		_, err := ParseFile(iotest.ErrReader(errors.New("disk gone")), "words.csv", Options{})
		if !errors.Is(err, ErrUnreadableInput) {
			t.Errorf("error = %v, want ErrUnreadableInput", err)
		}
	})
}

func TestParseResult_TypedAccessors(t *testing.T) {
	std := ParseRows([][]string{{"word", "meaning"}, {"run", "달리다"}}, Options{})
	if len(std.StandardWords()) != 1 || std.CollocationWords() != nil {
		t.Error("standard result accessors wrong")
	}

	col := ParseRows([][]string{{"collocation", "meaning"}, {"make sense", "말이 되다"}}, Options{})
	if len(col.CollocationWords()) != 1 || col.StandardWords() != nil {
		t.Error("collocation result accessors wrong")
	}
}

// utf16LE encodes s as UTF-16 little endian with a byte order mark.
func utf16LE(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, u := range utf16.Encode([]rune(s)) {
		out = append(out, byte(u), byte(u>>8))
	}
	return out
}
