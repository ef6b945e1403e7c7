package chunx

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/preciz/chunx/embeddings"
	"github.com/preciz/chunx/tokenizer"
)

// ThresholdAuto selects adaptive threshold resolution: the split threshold is
// binary-searched against the configured chunk size constraints instead of
// being supplied by the caller.
const ThresholdAuto float64 = -1

// maxThresholdIterations caps the adaptive search so it terminates regardless
// of oscillation in the size feedback.
const maxThresholdIterations = 10

// SemanticOptions configures the semantic chunker.
type SemanticOptions struct {
	// ChunkSize is the token budget per emitted chunk.
	ChunkSize int
	// Threshold is the cosine-distance cutoff in [0,1] below which two
	// adjacent sentences split into separate groups, or ThresholdAuto.
	Threshold float64
	// MinSentences is the minimum number of sentences per group; smaller
	// groups are discarded as invalid split candidates.
	MinSentences int
	// MinChunkSize is the minimum token total a group must reach during the
	// adaptive threshold search.
	MinChunkSize int
	// ThresholdStep stops the adaptive search once the interval is narrower.
	ThresholdStep float64
	// SimilarityWindow is how many neighboring sentences on each side join a
	// sentence's embedding context. 0 embeds the bare sentence.
	SimilarityWindow int
	// Delimiters end a sentence, as in SentenceOptions.
	Delimiters []string
	// MinCharsPerSentence optionally merges fragments shorter than this many
	// bytes into their predecessor. 0 disables merging.
	MinCharsPerSentence int
}

// DefaultSemanticOptions returns the stock semantic chunker settings:
// 512-token chunks, adaptive threshold with step 0.01, at least one sentence
// per group, two tokens minimum per group, one neighbor sentence of context.
func DefaultSemanticOptions() SemanticOptions {
	return SemanticOptions{
		ChunkSize:        512,
		Threshold:        ThresholdAuto,
		MinSentences:     1,
		MinChunkSize:     2,
		ThresholdStep:    0.01,
		SimilarityWindow: 1,
		Delimiters:       DefaultDelimiters(),
	}
}

// SemanticChunker groups sentences by embedding similarity and repacks each
// group into token-budgeted chunks.
type SemanticChunker struct {
	tok          tokenizer.Tokenizer
	embed        embeddings.Embedder
	size         int
	threshold    float64
	minSentences int
	minChunkSize int
	step         float64
	window       int
	minChars     int
	delimiters   []string
}

// NewSemanticChunker validates opts eagerly and returns the chunker.
func NewSemanticChunker(tok tokenizer.Tokenizer, embed embeddings.Embedder, opts SemanticOptions) (*SemanticChunker, error) {
	if tok == nil {
		return nil, configErr("tokenizer", "required")
	}
	if embed == nil {
		return nil, configErr("embedder", "required")
	}
	if opts.ChunkSize <= 0 {
		return nil, configErr("chunk_size", "must be positive, got %d", opts.ChunkSize)
	}
	if opts.Threshold != ThresholdAuto && (opts.Threshold < 0 || opts.Threshold > 1) {
		return nil, configErr("threshold", "must be in [0,1] or ThresholdAuto, got %v", opts.Threshold)
	}
	if opts.MinSentences < 1 {
		return nil, configErr("min_sentences", "must be at least 1, got %d", opts.MinSentences)
	}
	if opts.MinChunkSize < 1 {
		return nil, configErr("min_chunk_size", "must be positive, got %d", opts.MinChunkSize)
	}
	if opts.MinChunkSize > opts.ChunkSize {
		return nil, configErr("min_chunk_size", "%d must not exceed chunk size %d", opts.MinChunkSize, opts.ChunkSize)
	}
	if opts.ThresholdStep <= 0 || opts.ThresholdStep >= 1 {
		return nil, configErr("threshold_step", "must be in (0,1), got %v", opts.ThresholdStep)
	}
	if opts.SimilarityWindow < 0 {
		return nil, configErr("similarity_window", "must not be negative, got %d", opts.SimilarityWindow)
	}
	if len(opts.Delimiters) == 0 {
		return nil, configErr("delimiters", "must not be empty")
	}
	if opts.MinCharsPerSentence < 0 {
		return nil, configErr("min_chars_per_sentence", "must not be negative, got %d", opts.MinCharsPerSentence)
	}
	return &SemanticChunker{
		tok:          tok,
		embed:        embed,
		size:         opts.ChunkSize,
		threshold:    opts.Threshold,
		minSentences: opts.MinSentences,
		minChunkSize: opts.MinChunkSize,
		step:         opts.ThresholdStep,
		window:       opts.SimilarityWindow,
		minChars:     opts.MinCharsPerSentence,
		delimiters:   opts.Delimiters,
	}, nil
}

// Chunk prepares embedded sentences, resolves the split threshold, partitions
// the sentence sequence into similarity-coherent groups and repacks each
// group under the token budget. Inputs with no more sentences than
// MinSentences come back as a single chunk.
func (c *SemanticChunker) Chunk(ctx context.Context, text string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	sents, err := c.prepare(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(sents) == 0 {
		return nil, nil
	}
	if len(sents) <= c.minSentences {
		ck, err := newSentenceChunk(sents)
		if err != nil {
			return nil, err
		}
		return []Chunk{ck}, nil
	}

	distances, scores := sentenceScores(sents)
	threshold := c.threshold
	if threshold == ThresholdAuto {
		threshold = c.resolveThreshold(sents, distances, scores)
	}

	var chunks []Chunk
	for _, group := range splitGroups(sents, scores, threshold, c.minSentences) {
		packed, err := c.pack(group)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, packed...)
	}
	return chunks, nil
}

// prepare splits text into sentences, resolves their spans with a forward
// scan, tokenizes each one and attaches one embedding per sentence, computed
// from the sentence's neighbor-window context in a single batched call.
// Token-less fragments (whitespace or bare delimiter runs) are folded into a
// neighboring sentence before spans and embeddings are resolved.
func (c *SemanticChunker) prepare(ctx context.Context, text string) ([]Chunk, error) {
	frags, counts, err := tokenizedFragments(c.tok, splitSentences(text, c.delimiters, c.minChars))
	if err != nil {
		return nil, err
	}
	if len(frags) == 0 {
		return nil, nil
	}
	spans := resolveSpans(text, frags)
	sents := make([]Chunk, len(frags))
	for i, f := range frags {
		ck, err := newChunk(f, spans[i][0], spans[i][1], counts[i])
		if err != nil {
			return nil, err
		}
		sents[i] = ck
	}

	// Fragments keep their delimiter and whitespace prefix, so concatenating
	// neighbors reproduces the source text of the window.
	windows := make([]string, len(frags))
	for i := range frags {
		lo := i - c.window
		if lo < 0 {
			lo = 0
		}
		hi := i + c.window + 1
		if hi > len(frags) {
			hi = len(frags)
		}
		windows[i] = strings.Join(frags[lo:hi], "")
	}
	vectors, err := c.embed.EmbedBatch(ctx, windows)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(sents) {
		return nil, fmt.Errorf("chunx: embedder returned %d vectors for %d inputs", len(vectors), len(sents))
	}
	for i := range sents {
		sents[i].Embedding = vectors[i]
	}
	return sents, nil
}

// sentenceScores computes the cosine distance between every temporally
// adjacent embedding pair and assigns each sentence the mean of the distances
// it participates in; boundary sentences have a single neighbor.
func sentenceScores(sents []Chunk) (distances, scores []float64) {
	n := len(sents)
	distances = make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		distances[i] = cosineDistance(sents[i].Embedding, sents[i+1].Embedding)
	}
	scores = make([]float64, n)
	for i := range scores {
		switch i {
		case 0:
			scores[i] = distances[0]
		case n - 1:
			scores[i] = distances[n-2]
		default:
			scores[i] = (distances[i-1] + distances[i]) / 2
		}
	}
	return distances, scores
}

// splitGroups partitions the sentence sequence after every sentence whose
// score is at or below the threshold. Partitions with fewer than minSentences
// sentences are dropped, not re-merged.
func splitGroups(sents []Chunk, scores []float64, threshold float64, minSentences int) [][]Chunk {
	var groups [][]Chunk
	start := 0
	for i := range sents {
		if scores[i] <= threshold || i == len(sents)-1 {
			if g := sents[start : i+1]; len(g) >= minSentences {
				groups = append(groups, g)
			}
			start = i + 1
		}
	}
	return groups
}

// resolveThreshold binary-searches a distance threshold whose grouping keeps
// every group's token total within [MinChunkSize, ChunkSize]. The interval is
// bracketed one standard deviation around the median adjacent distance;
// oversized groups raise the floor (more split points, smaller groups) and
// undersized groups lower the ceiling. The search is capped, so the result is
// a best-effort heuristic, not a proven optimum: on exhaustion the midpoint
// of the final interval is returned.
func (c *SemanticChunker) resolveThreshold(sents []Chunk, distances, scores []float64) float64 {
	med := median(distances)
	sd := stddev(distances)
	lo := math.Max(med-sd, 0)
	hi := math.Min(med+sd, 1)

	for i := 0; i < maxThresholdIterations && hi-lo > c.step; i++ {
		mid := (lo + hi) / 2
		tooBig, tooSmall := false, false
		for _, g := range splitGroups(sents, scores, mid, c.minSentences) {
			total := 0
			for _, s := range g {
				total += s.TokenCount
			}
			if total > c.size {
				tooBig = true
			}
			if total < c.minChunkSize {
				tooSmall = true
			}
		}
		switch {
		case tooBig:
			lo = mid
		case tooSmall:
			hi = mid
		default:
			return mid
		}
	}
	return (lo + hi) / 2
}

// pack greedily accumulates a group's sentences into chunks under the token
// budget, without overlap. A sentence that alone overflows the budget is
// still emitted on its own so no chunk comes out empty.
func (c *SemanticChunker) pack(group []Chunk) ([]Chunk, error) {
	var chunks []Chunk
	pos := 0
	for pos < len(group) {
		count := 0
		total := 0
		for i := pos; i < len(group); i++ {
			if count > 0 && total+group[i].TokenCount > c.size {
				break
			}
			total += group[i].TokenCount
			count++
		}
		ck, err := newSentenceChunk(group[pos : pos+count])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ck)
		pos += count
	}
	return chunks, nil
}
