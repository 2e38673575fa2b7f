// Package text splits POS-tagged corpus text into sentences and words.
package text

import (
	"regexp"
	"strings"
)

var (
	blankRun     = regexp.MustCompile(`[ \t]+`)
	sentenceStop = regexp.MustCompile(`[。！？!?；;]\s*|\n+`)
)

// SplitSentences breaks text at sentence-final punctuation and at line
// breaks. The punctuation is consumed; empty pieces are dropped.
func SplitSentences(text string) []string {
	text = blankRun.ReplaceAllString(strings.TrimSpace(text), " ")
	if text == "" {
		return nil
	}
	parts := sentenceStop.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Words returns the tokens of a tagged sentence with their part-of-speech
// suffix removed: "祥子/nr" becomes "祥子". Untagged tokens are kept as is.
func Words(sentence string) []string {
	fields := strings.Fields(sentence)
	for i, f := range fields {
		if w, _, ok := strings.Cut(f, "/"); ok {
			fields[i] = w
		}
	}
	return fields
}
