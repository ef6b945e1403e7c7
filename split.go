package chunx

import (
	"strings"

	"github.com/preciz/chunx/tokenizer"
)

// sentenceSep is inserted after every delimiter occurrence before splitting.
// The ASCII unit separator does not occur in natural text.
const sentenceSep = "\x1f"

// DefaultDelimiters returns the sentence boundary characters used when no
// delimiters are configured.
func DefaultDelimiters() []string {
	return []string{".", "!", "?", "\n"}
}

// splitSentences splits text after every delimiter occurrence. Delimiter
// characters and inter-sentence whitespace stay with the fragment that
// follows the split, so the fragments concatenate back to text exactly.
// Fragments shorter than minChars bytes are merged onto their predecessor in
// a single left-to-right pass; a short leading fragment seeds the first
// accumulated one. minChars 0 disables merging.
func splitSentences(text string, delimiters []string, minChars int) []string {
	pairs := make([]string, 0, len(delimiters)*2)
	for _, d := range delimiters {
		pairs = append(pairs, d, d+sentenceSep)
	}
	marked := strings.NewReplacer(pairs...).Replace(text)

	var fragments []string
	for _, f := range strings.Split(marked, sentenceSep) {
		if f == "" {
			continue
		}
		if minChars > 0 && len(f) < minChars && len(fragments) > 0 {
			fragments[len(fragments)-1] += f
			continue
		}
		fragments = append(fragments, f)
	}
	return fragments
}

// tokenizedFragments counts tokens per fragment and folds fragments the
// tokenizer assigns no tokens (bare delimiter or whitespace runs) into their
// predecessor, or into the following fragment at the start of the text.
// Every returned fragment has a positive token count and the fragments still
// concatenate to the original text, so a sentence is never built around an
// empty token sequence. A text whose fragments all count zero comes back
// empty.
func tokenizedFragments(tok tokenizer.Tokenizer, frags []string) ([]string, []int, error) {
	merged := make([]string, 0, len(frags))
	counts := make([]int, 0, len(frags))
	lead := ""
	for _, f := range frags {
		n, err := tok.Count(f)
		if err != nil {
			return nil, nil, err
		}
		if n == 0 {
			if len(merged) == 0 {
				lead += f
			} else {
				merged[len(merged)-1] += f
			}
			continue
		}
		merged = append(merged, lead+f)
		counts = append(counts, n)
		lead = ""
	}
	return merged, counts, nil
}

// resolveSpans maps each sentence to its byte span in text. The search cursor
// only moves forward, scanning from the previous match's end, so sentence
// text that repeats verbatim elsewhere in the source resolves to the next
// unconsumed occurrence.
func resolveSpans(text string, sentences []string) [][2]int {
	spans := make([][2]int, len(sentences))
	cursor := 0
	for i, s := range sentences {
		idx := strings.Index(text[cursor:], s)
		if idx < 0 {
			// Splitting never rewrites text, so a miss means the sentences do
			// not belong to this source; pin to the cursor rather than panic.
			idx = 0
		}
		start := cursor + idx
		spans[i] = [2]int{start, start + len(s)}
		cursor = start + len(s)
	}
	return spans
}
