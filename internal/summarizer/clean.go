package summarizer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"mdsum/internal/similarity"
)

// Separator joins chunk summaries. Backends that echo repeated blocks use it too.
const Separator = "\n\n---\n\n"

// footerMarker starts the trailing meta annotation models like to append.
const footerMarker = "(※"

const (
	minKeepRatio      = 0.3
	similarLineMinLen = 20
)

var thinkBlock = regexp.MustCompile(`(?is)<think>.*?</think>`)

// StripThinking removes every <think>...</think> block, case-insensitively,
// and trims the result.
func StripThinking(text string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))
}

// RemoveRepetition keeps only the first separator-delimited block of text and
// cuts it at the first footer line. If that leaves less than 30% of the
// input, the input is returned unchanged.
func RemoveRepetition(text string) string {
	if text == "" {
		return text
	}
	block := text
	if parts := strings.Split(text, Separator); len(parts) > 1 {
		block = parts[0]
	}

	lines := strings.Split(strings.TrimSpace(block), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), footerMarker) {
			break
		}
		kept = append(kept, line)
	}
	result := strings.TrimSpace(strings.Join(kept, "\n"))

	if float64(utf8.RuneCountInString(result)) < float64(utf8.RuneCountInString(text))*minKeepRatio {
		return text
	}
	return result
}

// CleanLines drops repeated lines from a chunk summary. Exact repeats are
// always dropped; lines longer than 20 characters are also dropped when they
// are near-duplicates of an earlier long line. Blank lines are kept.
func CleanLines(summary string, threshold float64) string {
	lines := strings.Split(summary, "\n")
	out := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	var long []string

	for _, line := range lines {
		norm := strings.TrimSpace(line)
		if norm == "" {
			out = append(out, line)
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		isLong := utf8.RuneCountInString(norm) > similarLineMinLen
		if isLong && nearDuplicate(norm, long, threshold) {
			continue
		}
		seen[norm] = struct{}{}
		if isLong {
			long = append(long, norm)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func nearDuplicate(line string, earlier []string, threshold float64) bool {
	for _, e := range earlier {
		if similarity.NGram(line, e) > threshold {
			return true
		}
	}
	return false
}
