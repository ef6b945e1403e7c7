package chunx

import (
	"context"
	"errors"
	"testing"

	"github.com/preciz/chunx/tokenizer"
)

func newTestSentenceChunker(t *testing.T, opts SentenceOptions) *SentenceChunker {
	t.Helper()
	if opts.Delimiters == nil {
		opts.Delimiters = DefaultDelimiters()
	}
	if opts.MinSentencesPerChunk == 0 {
		opts.MinSentencesPerChunk = 1
	}
	c, err := NewSentenceChunker(tokenizer.NewWords(), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func TestSentenceChunkerPacking(t *testing.T) {
	c := newTestSentenceChunker(t, SentenceOptions{ChunkSize: 6})

	text := "One two three. Four five six. Seven eight nine. Ten eleven twelve."
	chunks, err := c.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	if chunks[0].Text != "One two three. Four five six." {
		t.Errorf("unexpected first chunk %q", chunks[0].Text)
	}
	if chunks[1].Text != " Seven eight nine. Ten eleven twelve." {
		t.Errorf("unexpected second chunk %q", chunks[1].Text)
	}

	for i, ck := range chunks {
		if ck.TokenCount != 6 {
			t.Errorf("chunk %d: expected 6 tokens, got %d", i, ck.TokenCount)
		}
		if len(ck.Sentences) != 2 {
			t.Errorf("chunk %d: expected 2 sentences, got %d", i, len(ck.Sentences))
		}
		if ck.Text != text[ck.StartByte:ck.EndByte] {
			t.Errorf("chunk %d: text does not match span [%d,%d)", i, ck.StartByte, ck.EndByte)
		}
		for j, s := range ck.Sentences {
			if s.Text != text[s.StartByte:s.EndByte] {
				t.Errorf("chunk %d sentence %d: text does not match its span", i, j)
			}
		}
	}
	if chunks[1].StartByte != chunks[0].EndByte {
		t.Errorf("expected contiguous chunks without overlap, got gap at %d", chunks[1].StartByte)
	}
}

func TestSentenceChunkerOverlap(t *testing.T) {
	c := newTestSentenceChunker(t, SentenceOptions{ChunkSize: 6, ChunkOverlap: 2})

	text := "One two three. Four five six. Seven eight nine. Ten eleven twelve."
	chunks, err := c.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Sentences
		carried := prev[len(prev)-1]
		lead := chunks[i].Sentences[0]
		if lead.StartByte != carried.StartByte || lead.Text != carried.Text {
			t.Errorf("chunk %d does not start with chunk %d's trailing sentence", i, i-1)
		}
		// The carried sentence alone already exceeds the overlap budget.
		if lead.TokenCount <= 2 {
			t.Errorf("chunk %d carries %d overlap tokens, want more than 2", i, lead.TokenCount)
		}
	}
}

func TestSentenceChunkerMinSentencesForced(t *testing.T) {
	c := newTestSentenceChunker(t, SentenceOptions{ChunkSize: 1, MinSentencesPerChunk: 2})

	text := "One two three. Four five six. Seven eight nine. Ten eleven twelve."
	chunks, err := c.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, ck := range chunks {
		if len(ck.Sentences) != 2 {
			t.Errorf("chunk %d: expected the forced 2 sentences, got %d", i, len(ck.Sentences))
		}
		if ck.TokenCount <= 1 {
			t.Errorf("chunk %d: forced inclusion should exceed the budget, got %d tokens", i, ck.TokenCount)
		}
	}
}

func TestSentenceChunkerShortFragmentMerge(t *testing.T) {
	c := newTestSentenceChunker(t, SentenceOptions{ChunkSize: 512, MinCharsPerSentence: 6})

	chunks, err := c.Chunk(context.Background(), "A. B. This is fine.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if len(chunks[0].Sentences) != 2 {
		t.Fatalf("expected 2 sentences after merging, got %d", len(chunks[0].Sentences))
	}
	if chunks[0].Sentences[0].Text != "A. B." {
		t.Errorf("expected short fragments merged, got %q", chunks[0].Sentences[0].Text)
	}
}

func TestSentenceChunkerDegenerateInputs(t *testing.T) {
	c := newTestSentenceChunker(t, SentenceOptions{ChunkSize: 512})

	for _, text := range []string{"", " \n\t "} {
		chunks, err := c.Chunk(context.Background(), text)
		if err != nil {
			t.Errorf("input %q: unexpected error: %v", text, err)
		}
		if len(chunks) != 0 {
			t.Errorf("input %q: expected no chunks, got %d", text, len(chunks))
		}
	}

	chunks, err := c.Chunk(context.Background(), "Just one sentence.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "Just one sentence." {
		t.Errorf("expected one chunk reproducing input, got %+v", chunks)
	}
	if len(chunks[0].Sentences) != 1 {
		t.Errorf("expected one sentence, got %d", len(chunks[0].Sentences))
	}
}

func TestSentenceChunkerLeadingWhitespaceRun(t *testing.T) {
	c, err := NewSentenceChunker(tokenizer.NewWords(), DefaultSentenceOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The leading newlines merge into a token-less fragment of their own; it
	// must be folded into the sentence that follows, not chunked alone.
	text := "\n\n\n\n\n\nHello world."
	chunks, err := c.Chunk(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	ck := chunks[0]
	if ck.Text != text || ck.StartByte != 0 || ck.EndByte != len(text) {
		t.Errorf("expected chunk to cover the whole input, got %q [%d,%d)", ck.Text, ck.StartByte, ck.EndByte)
	}
	if ck.TokenCount != 2 {
		t.Errorf("expected 2 tokens, got %d", ck.TokenCount)
	}
	if len(ck.Sentences) != 1 {
		t.Errorf("expected the whitespace run folded into one sentence, got %d", len(ck.Sentences))
	}
}

func TestSentenceChunkerConfigErrors(t *testing.T) {
	tok := tokenizer.NewWords()

	tests := []struct {
		name string
		tok  tokenizer.Tokenizer
		opts SentenceOptions
	}{
		{"nil tokenizer", nil, DefaultSentenceOptions()},
		{"zero chunk size", tok, SentenceOptions{MinSentencesPerChunk: 1, Delimiters: DefaultDelimiters()}},
		{"overlap not below size", tok, SentenceOptions{ChunkSize: 128, ChunkOverlap: 128, MinSentencesPerChunk: 1, Delimiters: DefaultDelimiters()}},
		{"zero min sentences", tok, SentenceOptions{ChunkSize: 512, Delimiters: DefaultDelimiters()}},
		{"empty delimiters", tok, SentenceOptions{ChunkSize: 512, MinSentencesPerChunk: 1}},
		{"negative min chars", tok, SentenceOptions{ChunkSize: 512, MinSentencesPerChunk: 1, Delimiters: DefaultDelimiters(), MinCharsPerSentence: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSentenceChunker(tt.tok, tt.opts)
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestSentenceChunkerTokenizerError(t *testing.T) {
	want := errors.New("count failed")
	c, err := NewSentenceChunker(failingTokenizer{err: want}, DefaultSentenceOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = c.Chunk(context.Background(), "Some text. More text.")
	if !errors.Is(err, want) {
		t.Errorf("expected tokenizer error to propagate unmodified, got %v", err)
	}
}
