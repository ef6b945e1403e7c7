// Package chunx splits text into bounded, addressable chunks suitable for
// language models and retrieval systems. Four strategies are supported: fixed
// token windows, word-boundary windows, sentence-boundary windows and
// semantic grouping by embedding similarity. Every chunk carries an exact
// byte-offset span into the source text and a token count, so callers can
// always map a chunk back to the bytes it came from.
//
// Token counting and embedding are external capabilities supplied through the
// tokenizer and embeddings packages. Chunkers hold no mutable state between
// calls and are safe for concurrent use on independent texts.
package chunx

import (
	"context"
	"fmt"
	"strings"

	"github.com/preciz/chunx/embeddings"
	"github.com/preciz/chunx/tokenizer"
)

// Chunk is one addressable piece of the source text.
//
// StartByte and EndByte form a half-open span into the source; Text always
// equals source[StartByte:EndByte]. Sentences is nil for token and word
// chunks and holds the ordered sentence-level chunks for sentence and
// semantic chunks; their spans are contiguous and their texts concatenate to
// Text. Embedding is set only on sentence chunks produced by the semantic
// chunker.
type Chunk struct {
	Text       string            `json:"text"`
	StartByte  int               `json:"start_byte"`
	EndByte    int               `json:"end_byte"`
	TokenCount int               `json:"token_count"`
	Embedding  embeddings.Vector `json:"embedding,omitempty"`
	Sentences  []Chunk           `json:"sentences,omitempty"`
}

// Chunker is the capability every strategy implements. Chunk returns the
// chunks of text in source order; empty and whitespace-only input yields an
// empty result without error.
type Chunker interface {
	Chunk(ctx context.Context, text string) ([]Chunk, error)
}

// Strategy names one of the four chunking strategies. The set is closed.
type Strategy string

const (
	StrategyToken    Strategy = "token"
	StrategyWord     Strategy = "word"
	StrategySentence Strategy = "sentence"
	StrategySemantic Strategy = "semantic"
)

// Config is the strategy-independent union of chunker options, for callers
// that select a strategy at runtime (for example from a decoded request).
// Fields the selected strategy does not use are ignored.
type Config struct {
	ChunkSize            int      `json:"chunk_size"`
	ChunkOverlap         float64  `json:"chunk_overlap"`
	MinSentencesPerChunk int      `json:"min_sentences_per_chunk"`
	Delimiters           []string `json:"delimiters"`
	MinCharsPerSentence  int      `json:"min_chars_per_sentence"`
	Threshold            float64  `json:"threshold"`
	MinSentences         int      `json:"min_sentences"`
	MinChunkSize         int      `json:"min_chunk_size"`
	ThresholdStep        float64  `json:"threshold_step"`
	SimilarityWindow     int      `json:"similarity_window"`
}

// New builds a chunker for the given strategy. emb may be nil for every
// strategy except StrategySemantic. Unknown strategies are a ConfigError.
func New(strategy Strategy, tok tokenizer.Tokenizer, emb embeddings.Embedder, cfg Config) (Chunker, error) {
	switch strategy {
	case StrategyToken:
		return NewTokenChunker(tok, TokenOptions{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		})
	case StrategyWord:
		return NewWordChunker(tok, WordOptions{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		})
	case StrategySentence:
		return NewSentenceChunker(tok, SentenceOptions{
			ChunkSize:            cfg.ChunkSize,
			ChunkOverlap:         cfg.ChunkOverlap,
			MinSentencesPerChunk: cfg.MinSentencesPerChunk,
			Delimiters:           cfg.Delimiters,
			MinCharsPerSentence:  cfg.MinCharsPerSentence,
		})
	case StrategySemantic:
		return NewSemanticChunker(tok, emb, SemanticOptions{
			ChunkSize:           cfg.ChunkSize,
			Threshold:           cfg.Threshold,
			MinSentences:        cfg.MinSentences,
			MinChunkSize:        cfg.MinChunkSize,
			ThresholdStep:       cfg.ThresholdStep,
			SimilarityWindow:    cfg.SimilarityWindow,
			Delimiters:          cfg.Delimiters,
			MinCharsPerSentence: cfg.MinCharsPerSentence,
		})
	default:
		return nil, configErr("strategy", "unknown strategy %q", strategy)
	}
}

// newChunk constructs a validated chunk. Chunks are immutable after
// construction.
func newChunk(text string, start, end, tokenCount int) (Chunk, error) {
	switch {
	case start < 0 || end < start:
		return Chunk{}, fmt.Errorf("chunx: invalid span [%d,%d)", start, end)
	case len(text) != end-start:
		return Chunk{}, fmt.Errorf("chunx: text length %d does not match span [%d,%d)", len(text), start, end)
	case tokenCount <= 0:
		return Chunk{}, fmt.Errorf("chunx: token count must be positive, got %d", tokenCount)
	}
	return Chunk{Text: text, StartByte: start, EndByte: end, TokenCount: tokenCount}, nil
}

// newSentenceChunk builds a composite chunk from contiguous sentence chunks.
// Its span endpoints are the first and last sentence's endpoints and its
// token count is the sum of the sentences' counts.
func newSentenceChunk(sentences []Chunk) (Chunk, error) {
	if len(sentences) == 0 {
		return Chunk{}, fmt.Errorf("chunx: sentence chunk needs at least one sentence")
	}
	var b strings.Builder
	total := 0
	for i, s := range sentences {
		if i > 0 && s.StartByte != sentences[i-1].EndByte {
			return Chunk{}, fmt.Errorf("chunx: sentences not contiguous at index %d", i)
		}
		b.WriteString(s.Text)
		total += s.TokenCount
	}
	return Chunk{
		Text:       b.String(),
		StartByte:  sentences[0].StartByte,
		EndByte:    sentences[len(sentences)-1].EndByte,
		TokenCount: total,
		Sentences:  sentences,
	}, nil
}

// resolveOverlap converts an overlap setting to an absolute token count.
// Values below 1 are a fraction of chunkSize (rounded down); values of 1 and
// above are absolute counts and must stay below chunkSize.
func resolveOverlap(chunkSize int, overlap float64) (int, error) {
	switch {
	case overlap < 0:
		return 0, configErr("chunk_overlap", "must not be negative, got %v", overlap)
	case overlap < 1:
		return int(overlap * float64(chunkSize)), nil
	default:
		abs := int(overlap)
		if abs >= chunkSize {
			return 0, configErr("chunk_overlap", "%d must be smaller than chunk size %d", abs, chunkSize)
		}
		return abs, nil
	}
}
