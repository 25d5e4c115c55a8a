// Package similarity provides cheap lexical similarity scores used for
// de-duplicating generated summaries and ranking catalog documents.
package similarity

import (
	"strings"
	"unicode"
)

// NGramSize is the character n-gram length used by NGram.
const NGramSize = 3

// NGram returns the Jaccard index of the distinct character 3-grams of a and
// b after all whitespace is removed. It returns 0 when either side has fewer
// than three non-space characters.
func NGram(a, b string) float64 {
	ga := ngrams(a, NGramSize)
	gb := ngrams(b, NGramSize)
	return jaccard(ga, gb)
}

// Words returns the Jaccard index of the lowercase whitespace-separated word
// sets of a and b.
func Words(a, b string) float64 {
	return jaccard(wordSet(a), wordSet(b))
}

// StripSpace removes every whitespace character from s.
func StripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func ngrams(s string, n int) map[string]struct{} {
	runes := []rune(StripSpace(s))
	if len(runes) < n {
		return nil
	}
	set := make(map[string]struct{}, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		set[string(runes[i:i+n])] = struct{}{}
	}
	return set
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
