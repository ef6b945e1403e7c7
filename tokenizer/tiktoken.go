package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// Tiktoken tokenizes with an OpenAI BPE encoding.
type Tiktoken struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktoken loads the named encoding (for example "cl100k_base" or
// "o200k_base"). An empty name selects DefaultEncoding.
func NewTiktoken(encoding string) (*Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %q: %w", encoding, err)
	}
	return &Tiktoken{encoding: enc}, nil
}

// Encode derives byte spans by decoding each token id in order. BPE token
// byte sequences partition the input, so the cumulative lengths are exact.
func (t *Tiktoken) Encode(text string) ([]Span, error) {
	ids := t.encoding.Encode(text, nil, nil)
	spans := make([]Span, len(ids))
	offset := 0
	for i, id := range ids {
		n := len(t.encoding.Decode([]int{id}))
		spans[i] = Span{Start: offset, End: offset + n}
		offset += n
	}
	if offset != len(text) {
		return nil, fmt.Errorf("token spans cover %d of %d bytes", offset, len(text))
	}
	return spans, nil
}

// Count returns the number of BPE tokens in text.
func (t *Tiktoken) Count(text string) (int, error) {
	return len(t.encoding.Encode(text, nil, nil)), nil
}
