package chunx

import (
	"context"
	"strings"

	"github.com/preciz/chunx/tokenizer"
)

// TokenOptions configures the token chunker.
type TokenOptions struct {
	// ChunkSize is the maximum number of tokens per chunk.
	ChunkSize int
	// ChunkOverlap is the number of tokens shared between consecutive chunks.
	// Values below 1 are a fraction of ChunkSize, values of 1 and above an
	// absolute token count.
	ChunkOverlap float64
}

// DefaultTokenOptions returns the stock token chunker settings: 512-token
// chunks with 25% overlap.
func DefaultTokenOptions() TokenOptions {
	return TokenOptions{ChunkSize: 512, ChunkOverlap: 0.25}
}

// TokenChunker slides a fixed-size, fixed-stride window over the tokenizer's
// token offsets.
type TokenChunker struct {
	tok     tokenizer.Tokenizer
	size    int
	overlap int
}

// NewTokenChunker validates opts eagerly and returns the chunker.
func NewTokenChunker(tok tokenizer.Tokenizer, opts TokenOptions) (*TokenChunker, error) {
	if tok == nil {
		return nil, configErr("tokenizer", "required")
	}
	if opts.ChunkSize <= 0 {
		return nil, configErr("chunk_size", "must be positive, got %d", opts.ChunkSize)
	}
	overlap, err := resolveOverlap(opts.ChunkSize, opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &TokenChunker{tok: tok, size: opts.ChunkSize, overlap: overlap}, nil
}

// Chunk tokenizes text once and windows the non-empty token spans with stride
// ChunkSize-overlap. Each chunk's text is the raw byte slice between its
// first and last token, so bytes the tokenizer dropped (punctuation,
// whitespace) are preserved inside the chunk.
func (c *TokenChunker) Chunk(_ context.Context, text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	spans, err := c.tok.Encode(text)
	if err != nil {
		return nil, err
	}
	// Zero-width spans belong to structural tokens with no textual content.
	tokens := make([]tokenizer.Span, 0, len(spans))
	for _, s := range spans {
		if s.End > s.Start {
			tokens = append(tokens, s)
		}
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	step := c.size - c.overlap
	var chunks []Chunk
	for start := 0; start < len(tokens); start += step {
		end := start + c.size
		if end > len(tokens) {
			end = len(tokens)
		}
		from, to := tokens[start].Start, tokens[end-1].End
		ck, err := newChunk(text[from:to], from, to, end-start)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ck)
		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}
