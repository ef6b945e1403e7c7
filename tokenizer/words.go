package tokenizer

import "regexp"

var wordRun = regexp.MustCompile(`\s*\S+`)

// Words counts one whitespace-delimited word, together with the whitespace
// preceding it, as one token. Token spans cover every byte of the input, so
// windowed chunks lose nothing at their boundaries. Useful for tests and for
// rough budgeting without a BPE model.
type Words struct{}

// NewWords returns the word tokenizer.
func NewWords() *Words {
	return &Words{}
}

// Encode returns one span per word run. A trailing whitespace remainder is
// folded into the last span.
func (*Words) Encode(text string) ([]Span, error) {
	matches := wordRun.FindAllStringIndex(text, -1)
	spans := make([]Span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, Span{Start: m[0], End: m[1]})
	}
	if n := len(spans); n > 0 && spans[n-1].End < len(text) {
		spans[n-1].End = len(text)
	}
	return spans, nil
}

// Count returns the number of word runs in text.
func (*Words) Count(text string) (int, error) {
	return len(wordRun.FindAllStringIndex(text, -1)), nil
}
