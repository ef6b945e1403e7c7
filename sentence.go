package chunx

import (
	"context"
	"strings"

	"github.com/preciz/chunx/tokenizer"
)

// SentenceOptions configures the sentence chunker.
type SentenceOptions struct {
	// ChunkSize is the token budget per chunk. A chunk may exceed it only
	// when forced to reach MinSentencesPerChunk.
	ChunkSize int
	// ChunkOverlap is the minimum token worth of trailing sentences repeated
	// at the start of the next chunk. Values below 1 are a fraction of
	// ChunkSize, values of 1 and above an absolute token count.
	ChunkOverlap float64
	// MinSentencesPerChunk is the minimum number of sentences per chunk.
	MinSentencesPerChunk int
	// Delimiters end a sentence. Delimiter characters stay with the sentence
	// they terminate.
	Delimiters []string
	// MinCharsPerSentence merges fragments shorter than this many bytes into
	// their predecessor.
	MinCharsPerSentence int
}

// DefaultSentenceOptions returns the stock sentence chunker settings:
// 512-token chunks, 128 tokens of overlap, at least one sentence per chunk,
// sentence boundaries on . ! ? and newline, fragments under 6 bytes merged.
func DefaultSentenceOptions() SentenceOptions {
	return SentenceOptions{
		ChunkSize:            512,
		ChunkOverlap:         128,
		MinSentencesPerChunk: 1,
		Delimiters:           DefaultDelimiters(),
		MinCharsPerSentence:  6,
	}
}

// SentenceChunker packs whole sentences into token-budgeted chunks.
type SentenceChunker struct {
	tok          tokenizer.Tokenizer
	size         int
	overlap      int
	minSentences int
	minChars     int
	delimiters   []string
}

// NewSentenceChunker validates opts eagerly and returns the chunker.
func NewSentenceChunker(tok tokenizer.Tokenizer, opts SentenceOptions) (*SentenceChunker, error) {
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
	if opts.MinSentencesPerChunk < 1 {
		return nil, configErr("min_sentences_per_chunk", "must be at least 1, got %d", opts.MinSentencesPerChunk)
	}
	if len(opts.Delimiters) == 0 {
		return nil, configErr("delimiters", "must not be empty")
	}
	if opts.MinCharsPerSentence < 0 {
		return nil, configErr("min_chars_per_sentence", "must not be negative, got %d", opts.MinCharsPerSentence)
	}
	return &SentenceChunker{
		tok:          tok,
		size:         opts.ChunkSize,
		overlap:      overlap,
		minSentences: opts.MinSentencesPerChunk,
		minChars:     opts.MinCharsPerSentence,
		delimiters:   opts.Delimiters,
	}, nil
}

// Chunk splits text into sentences and greedily packs them under the token
// budget. A chunk holding fewer than the sentence minimum takes one more
// sentence even past the budget, so no chunk is ever empty or under the
// minimum. With a non-zero overlap the next chunk restarts inside the
// previous one, at the sentence whose trailing token sum first exceeds the
// overlap budget.
func (c *SentenceChunker) Chunk(_ context.Context, text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	sents, err := c.prepare(text)
	if err != nil {
		return nil, err
	}
	if len(sents) == 0 {
		return nil, nil
	}

	var chunks []Chunk
	pos := 0
	for pos < len(sents) {
		count := 0
		total := 0
		for i := pos; i < len(sents); i++ {
			if count >= c.minSentences && total+sents[i].TokenCount > c.size {
				break
			}
			total += sents[i].TokenCount
			count++
		}
		ck, err := newSentenceChunk(sents[pos : pos+count])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ck)
		if pos+count >= len(sents) {
			break
		}
		pos = c.nextStart(sents, pos, count)
	}
	return chunks, nil
}

// nextStart walks backward from the end of the chunk that was just emitted,
// accumulating sentence token counts; the next chunk starts at the sentence
// whose inclusion pushed the sum past the overlap, so it begins with at least
// overlap tokens of trailing context. Progress past pos is guaranteed.
func (c *SentenceChunker) nextStart(sents []Chunk, pos, count int) int {
	if c.overlap == 0 {
		return pos + count
	}
	acc := 0
	for j := pos + count - 1; j > pos; j-- {
		acc += sents[j].TokenCount
		if acc > c.overlap {
			return j
		}
	}
	return pos + 1
}

// prepare splits text into sentences and tokenizes each one. Token-less
// fragments (whitespace or bare delimiter runs) are folded into a neighboring
// sentence, so every sentence carries tokens. Splitting never reorders or
// duplicates text, so spans are cumulative byte offsets of a strict
// left-to-right walk.
func (c *SentenceChunker) prepare(text string) ([]Chunk, error) {
	frags, counts, err := tokenizedFragments(c.tok, splitSentences(text, c.delimiters, c.minChars))
	if err != nil {
		return nil, err
	}
	sents := make([]Chunk, 0, len(frags))
	offset := 0
	for i, f := range frags {
		ck, err := newChunk(f, offset, offset+len(f), counts[i])
		if err != nil {
			return nil, err
		}
		sents = append(sents, ck)
		offset += len(f)
	}
	return sents, nil
}
