// Package tokenizer defines the token counting capability consumed by the
// chunkers and provides BPE (tiktoken) and whitespace-word implementations.
package tokenizer

// Span is the half-open byte-offset range of one token in the encoded text.
type Span struct {
	Start int
	End   int
}

// Tokenizer converts text into tokens. Implementations must be deterministic
// for identical input.
type Tokenizer interface {
	// Encode returns the byte-offset span of every token in text, in order.
	// Spans may be zero-width for structural tokens with no textual content.
	Encode(text string) ([]Span, error)
	// Count returns the number of tokens in text.
	Count(text string) (int, error)
}
