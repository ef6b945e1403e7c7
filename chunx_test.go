package chunx

import (
	"errors"
	"regexp"
	"testing"

	"github.com/preciz/chunx/embeddings"
	"github.com/preciz/chunx/tokenizer"
)

// wordPunct counts every word and every standalone punctuation mark as one
// token, so "friend," is two tokens while "friend" is one.
type wordPunct struct{}

var wordPunctRun = regexp.MustCompile(`\w+|[^\w\s]`)

func (wordPunct) Encode(text string) ([]tokenizer.Span, error) {
	matches := wordPunctRun.FindAllStringIndex(text, -1)
	spans := make([]tokenizer.Span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, tokenizer.Span{Start: m[0], End: m[1]})
	}
	return spans, nil
}

func (wordPunct) Count(text string) (int, error) {
	return len(wordPunctRun.FindAllStringIndex(text, -1)), nil
}

// failingTokenizer simulates a broken tokenizer capability.
type failingTokenizer struct{ err error }

func (f failingTokenizer) Encode(string) ([]tokenizer.Span, error) { return nil, f.err }
func (f failingTokenizer) Count(string) (int, error)               { return 0, f.err }

func TestNewBuildsEveryStrategy(t *testing.T) {
	tok := tokenizer.NewWords()
	emb := new(embeddings.MockEmbedder)
	cfg := Config{
		ChunkSize:            512,
		ChunkOverlap:         0.25,
		MinSentencesPerChunk: 1,
		Delimiters:           DefaultDelimiters(),
		Threshold:            ThresholdAuto,
		MinSentences:         1,
		MinChunkSize:         2,
		ThresholdStep:        0.01,
		SimilarityWindow:     1,
	}

	for _, strategy := range []Strategy{StrategyToken, StrategyWord, StrategySentence, StrategySemantic} {
		t.Run(string(strategy), func(t *testing.T) {
			c, err := New(strategy, tok, emb, cfg)
			if err != nil {
				t.Fatalf("expected chunker, got error: %v", err)
			}
			if c == nil {
				t.Fatal("expected non-nil chunker")
			}
		})
	}
}

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New("paragraph", tokenizer.NewWords(), nil, Config{ChunkSize: 10})
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cerr.Option != "strategy" {
		t.Errorf("expected option 'strategy', got %q", cerr.Option)
	}
}

func TestResolveOverlap(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   float64
		want      int
		wantErr   bool
	}{
		{"quarter of 512", 512, 0.25, 128, false},
		{"quarter of 4", 4, 0.25, 1, false},
		{"quarter of 3 rounds down", 3, 0.25, 0, false},
		{"zero", 10, 0, 0, false},
		{"absolute", 10, 5, 5, false},
		{"fraction just under one", 10, 0.999, 9, false},
		{"absolute equal to size", 10, 10, 0, true},
		{"negative", 10, -0.1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveOverlap(tt.chunkSize, tt.overlap)
			if tt.wantErr {
				var cerr *ConfigError
				if !errors.As(err, &cerr) {
					t.Fatalf("expected ConfigError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewSentenceChunkContiguity(t *testing.T) {
	a := Chunk{Text: "One. ", StartByte: 0, EndByte: 5, TokenCount: 1}
	b := Chunk{Text: "Two.", StartByte: 5, EndByte: 9, TokenCount: 1}

	ck, err := newSentenceChunk([]Chunk{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ck.Text != "One. Two." {
		t.Errorf("expected concatenated text, got %q", ck.Text)
	}
	if ck.StartByte != 0 || ck.EndByte != 9 {
		t.Errorf("expected span [0,9), got [%d,%d)", ck.StartByte, ck.EndByte)
	}
	if ck.TokenCount != 2 {
		t.Errorf("expected token count 2, got %d", ck.TokenCount)
	}
	if len(ck.Sentences) != 2 {
		t.Errorf("expected 2 sentences, got %d", len(ck.Sentences))
	}

	gap := Chunk{Text: "Two.", StartByte: 6, EndByte: 10, TokenCount: 1}
	if _, err := newSentenceChunk([]Chunk{a, gap}); err == nil {
		t.Error("expected error for non-contiguous sentences")
	}

	if _, err := newSentenceChunk(nil); err == nil {
		t.Error("expected error for empty sentence list")
	}
}

func TestNewChunkValidation(t *testing.T) {
	if _, err := newChunk("abc", 0, 3, 1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := newChunk("abc", 0, 2, 1); err == nil {
		t.Error("expected error for text not matching span width")
	}
	if _, err := newChunk("abc", -1, 2, 1); err == nil {
		t.Error("expected error for negative start")
	}
	if _, err := newChunk("abc", 0, 3, 0); err == nil {
		t.Error("expected error for non-positive token count")
	}
}
