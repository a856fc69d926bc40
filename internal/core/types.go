package core

// Kind selects which canonical field set a batch is validated against.
type Kind int

const (
	KindStandard Kind = iota
	KindCollocation
)

func (k Kind) String() string {
	if k == KindCollocation {
		return "collocation"
	}
	return "standard"
}

// PrimaryField returns the name of the required headword field for the kind.
func (k Kind) PrimaryField() string {
	if k == KindCollocation {
		return FieldCollocation
	}
	return FieldWord
}

// Canonical field names.
const (
	FieldWord          = "word"
	FieldCollocation   = "collocation"
	FieldMeaning       = "meaning"
	FieldPronunciation = "pronunciation"
	FieldExplanation   = "explanation"
	FieldExample       = "example"
	FieldTranslation   = "translation"
)

// Fields returns the canonical field set of the kind in display order.
func (k Kind) Fields() []string {
	if k == KindCollocation {
		return []string{FieldCollocation, FieldMeaning, FieldExplanation, FieldExample, FieldTranslation}
	}
	return []string{FieldWord, FieldMeaning, FieldPronunciation, FieldExample, FieldTranslation}
}

// RawTable is a tokenized table: rows of cells, ragged rows allowed.
type RawTable [][]string

// Word is a validated vocabulary record, either a StandardWord or a CollocationWord.
type Word interface {
	// Headword returns the value of the primary field.
	Headword() string
	Kind() Kind
	isWord()
}

// StandardWord is a single vocabulary entry.
type StandardWord struct {
	Word          string            `json:"word"`
	Meaning       string            `json:"meaning"`
	Pronunciation string            `json:"pronunciation"`
	Example       string            `json:"example"`
	Translation   string            `json:"translation"`
	Extra         map[string]string `json:"extra,omitempty"`
}

func (w StandardWord) Headword() string { return w.Word }
func (w StandardWord) Kind() Kind       { return KindStandard }
func (StandardWord) isWord()            {}

// CollocationWord is a multi-word expression entry.
type CollocationWord struct {
	Collocation string            `json:"collocation"`
	Meaning     string            `json:"meaning"`
	Explanation string            `json:"explanation"`
	Example     string            `json:"example"`
	Translation string            `json:"translation"`
	Extra       map[string]string `json:"extra,omitempty"`
}

func (w CollocationWord) Headword() string { return w.Collocation }
func (w CollocationWord) Kind() Kind       { return KindCollocation }
func (CollocationWord) isWord()            {}

// ParseResult is the outcome of one pipeline call.
//
// Words holds records of a single kind only, in input order. Errors holds one
// "Row N: ..." entry per rejected row, or a single tokenizer message.
type ParseResult struct {
	Words           []Word   `json:"words"`
	IsCollocation   bool     `json:"isCollocation"`
	Errors          []string `json:"errors"`
	DetectedHeaders []string `json:"detectedHeaders"`
}

// Kind returns the kind the result was validated against.
func (r ParseResult) Kind() Kind {
	if r.IsCollocation {
		return KindCollocation
	}
	return KindStandard
}

// StandardWords returns the words as StandardWord values. Returns nil for
// collocation results.
func (r ParseResult) StandardWords() []StandardWord {
	if r.IsCollocation {
		return nil
	}
	out := make([]StandardWord, 0, len(r.Words))
	for _, w := range r.Words {
		if sw, ok := w.(StandardWord); ok {
			out = append(out, sw)
		}
	}
	return out
}

// CollocationWords returns the words as CollocationWord values. Returns nil
// for standard results.
func (r ParseResult) CollocationWords() []CollocationWord {
	if !r.IsCollocation {
		return nil
	}
	out := make([]CollocationWord, 0, len(r.Words))
	for _, w := range r.Words {
		if cw, ok := w.(CollocationWord); ok {
			out = append(out, cw)
		}
	}
	return out
}

func emptyResult() ParseResult {
	return ParseResult{
		Words:           []Word{},
		Errors:          []string{},
		DetectedHeaders: []string{},
	}
}
