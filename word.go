package chunx

import (
	"context"
	"regexp"
	"strings"

	"github.com/preciz/chunx/tokenizer"
)

// WordOptions configures the word chunker.
type WordOptions struct {
	// ChunkSize is the maximum number of tokens per chunk.
	ChunkSize int
	// ChunkOverlap is the token budget for the suffix of a closed chunk that
	// seeds the next one. Values below 1 are a fraction of ChunkSize, values
	// of 1 and above an absolute token count.
	ChunkOverlap float64
}

// DefaultWordOptions returns the stock word chunker settings: 512-token
// chunks with 25% overlap.
func DefaultWordOptions() WordOptions {
	return WordOptions{ChunkSize: 512, ChunkOverlap: 0.25}
}

// wordUnit matches a run of non-whitespace together with the whitespace that
// precedes it, so the units of a text concatenate back to the text exactly.
var wordUnit = regexp.MustCompile(`\s*\S+`)

// WordChunker packs whitespace-delimited units into token-budgeted chunks
// with a token-budgeted overlap between consecutive chunks.
type WordChunker struct {
	tok     tokenizer.Tokenizer
	size    int
	overlap int
}

// NewWordChunker validates opts eagerly and returns the chunker.
func NewWordChunker(tok tokenizer.Tokenizer, opts WordOptions) (*WordChunker, error) {
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
	return &WordChunker{tok: tok, size: opts.ChunkSize, overlap: overlap}, nil
}

// Chunk splits text into word units, counts tokens per unit (memoized by unit
// text for the duration of the call) and accumulates units under the chunk
// size. When a unit would overflow the budget the current chunk is closed and
// the next one is seeded with the closed chunk's trailing units worth at most
// the overlap budget, followed by the unit that triggered the overflow.
func (c *WordChunker) Chunk(_ context.Context, text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	units := splitUnits(text)
	if len(units) == 0 {
		return nil, nil
	}

	memo := make(map[string]int, len(units))
	counts := make([]int, len(units))
	for i, u := range units {
		s := text[u[0]:u[1]]
		n, ok := memo[s]
		if !ok {
			var err error
			n, err = c.tok.Count(s)
			if err != nil {
				return nil, err
			}
			memo[s] = n
		}
		counts[i] = n
	}

	var chunks []Chunk
	start := 0
	total := 0
	for i, n := range counts {
		if total+n > c.size && i > start {
			ck, err := c.emit(text, units, counts, start, i)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, ck)
			// Seed the next chunk with the closed chunk's trailing units
			// while their reversed partial sum stays within the overlap.
			j := i
			acc := 0
			for j > start && acc+counts[j-1] <= c.overlap {
				j--
				acc += counts[j]
			}
			start = j
			total = acc
		}
		total += n
	}
	ck, err := c.emit(text, units, counts, start, len(units))
	if err != nil {
		return nil, err
	}
	return append(chunks, ck), nil
}

// emit closes the chunk covering units [start, end). Units are contiguous in
// the source, so the chunk span runs from the first unit's start to the last
// unit's end.
func (c *WordChunker) emit(text string, units [][2]int, counts []int, start, end int) (Chunk, error) {
	from, to := units[start][0], units[end-1][1]
	total := 0
	for _, n := range counts[start:end] {
		total += n
	}
	return newChunk(text[from:to], from, to, total)
}

// splitUnits returns the byte spans of the maximal \s*\S+ runs in text plus
// any trailing remainder, so the units reconstruct the text exactly.
func splitUnits(text string) [][2]int {
	matches := wordUnit.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	units := make([][2]int, 0, len(matches)+1)
	for _, m := range matches {
		units = append(units, [2]int{m[0], m[1]})
	}
	if last := units[len(units)-1][1]; last < len(text) {
		units = append(units, [2]int{last, len(text)})
	}
	return units
}
