package chunx

import (
	"strings"
	"testing"

	"github.com/preciz/chunx/tokenizer"
)

func TestSplitSentencesDelimiterRetention(t *testing.T) {
	got := splitSentences("One. Two! Three?", DefaultDelimiters(), 0)
	want := []string{"One.", " Two!", " Three?"}
	if len(got) != len(want) {
		t.Fatalf("expected %d fragments, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplitSentencesReconstructsInput(t *testing.T) {
	texts := []string{
		"One. Two! Three?",
		"No delimiters at all",
		"Trailing text after. the last delimiter",
		"Line one\nLine two\nLine three",
		"Doubled!! delimiters?? everywhere..",
	}
	for _, text := range texts {
		frags := splitSentences(text, DefaultDelimiters(), 0)
		if joined := strings.Join(frags, ""); joined != text {
			t.Errorf("fragments %q do not reconstruct %q", joined, text)
		}
	}
}

func TestSplitSentencesShortFragmentMerge(t *testing.T) {
	got := splitSentences("A. B. This is fine.", DefaultDelimiters(), 6)
	want := []string{"A. B.", " This is fine."}
	if len(got) != len(want) {
		t.Fatalf("expected %d fragments, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d: got %q, want %q", i, got[i], want[i])
		}
	}

	// Merging never loses bytes.
	if joined := strings.Join(got, ""); joined != "A. B. This is fine." {
		t.Errorf("merged fragments do not reconstruct input: %q", joined)
	}
}

func TestSplitSentencesCustomDelimiters(t *testing.T) {
	got := splitSentences("alpha;beta;gamma", []string{";"}, 0)
	want := []string{"alpha;", "beta;", "gamma"}
	if len(got) != len(want) {
		t.Fatalf("expected %d fragments, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fragment %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTokenizedFragments(t *testing.T) {
	tok := tokenizer.NewWords()

	tests := []struct {
		name       string
		frags      []string
		wantFrags  []string
		wantCounts []int
	}{
		{
			name:       "all fragments carry tokens",
			frags:      []string{"One.", " Two!"},
			wantFrags:  []string{"One.", " Two!"},
			wantCounts: []int{1, 1},
		},
		{
			name:       "token-less middle fragment folds backward",
			frags:      []string{"Hello world.", "\n", "Goodbye friend."},
			wantFrags:  []string{"Hello world.\n", "Goodbye friend."},
			wantCounts: []int{2, 2},
		},
		{
			name:       "token-less leading fragment folds forward",
			frags:      []string{"\n\n\n", "Hello world."},
			wantFrags:  []string{"\n\n\nHello world."},
			wantCounts: []int{2},
		},
		{
			name:       "token-less trailing fragment folds backward",
			frags:      []string{"Hello world.", " \n "},
			wantFrags:  []string{"Hello world. \n "},
			wantCounts: []int{2},
		},
		{
			name:      "only token-less fragments",
			frags:     []string{"\n", "\n"},
			wantFrags: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frags, counts, err := tokenizedFragments(tok, tt.frags)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(frags) != len(tt.wantFrags) {
				t.Fatalf("expected %d fragments, got %d: %q", len(tt.wantFrags), len(frags), frags)
			}
			for i := range tt.wantFrags {
				if frags[i] != tt.wantFrags[i] {
					t.Errorf("fragment %d: got %q, want %q", i, frags[i], tt.wantFrags[i])
				}
				if counts[i] != tt.wantCounts[i] {
					t.Errorf("fragment %d: got %d tokens, want %d", i, counts[i], tt.wantCounts[i])
				}
				if counts[i] <= 0 {
					t.Errorf("fragment %d: token count must stay positive", i)
				}
			}
			if len(frags) > 0 {
				if joined := strings.Join(frags, ""); joined != strings.Join(tt.frags, "") {
					t.Errorf("folding lost bytes: %q", joined)
				}
			}
		})
	}
}

func TestResolveSpansForwardCursor(t *testing.T) {
	text := "same. same. same."
	sentences := []string{"same.", " same.", " same."}
	spans := resolveSpans(text, sentences)

	want := [][2]int{{0, 5}, {5, 11}, {11, 17}}
	for i, w := range want {
		if spans[i] != w {
			t.Errorf("span %d: got %v, want %v", i, spans[i], w)
		}
		if text[spans[i][0]:spans[i][1]] != sentences[i] {
			t.Errorf("span %d does not slice back to its sentence", i)
		}
	}
}

func TestResolveSpansRepeatedSentenceText(t *testing.T) {
	// The second occurrence must resolve past the first, not onto it.
	text := "abab"
	spans := resolveSpans(text, []string{"ab", "ab"})
	if spans[0] != [2]int{0, 2} || spans[1] != [2]int{2, 4} {
		t.Errorf("got spans %v, want [[0 2] [2 4]]", spans)
	}
}
