package generation

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"mdsum/internal/domain"
)

const (
	tokensPerSentence = 60
	minSentences      = 3
	maxSentences      = 40
)

var (
	tokenPattern    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentencePattern = regexp.MustCompile(`[^.!?。\n]+(?:[.!?。]+|\n|$)`)
)

// Extractive is an in-process backend that answers without a model server.
// It ranks the sentences of req.Input by normalized word frequency and
// returns the best ones in their original order. The endpoint is ignored.
type Extractive struct {
	stopwords map[string]struct{}
}

// NewExtractive creates the extractive backend.
func NewExtractive() *Extractive {
	return &Extractive{stopwords: defaultStopwords()}
}

// Name returns the identifier of this backend.
func (e *Extractive) Name() string { return "extractive" }

// Generate summarizes req.Input, falling back to req.Prompt when Input is empty.
// The sentence budget is derived from MaxTokens.
func (e *Extractive) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text := req.Input
	if strings.TrimSpace(text) == "" {
		text = req.Prompt
	}
	n := req.MaxTokens / tokensPerSentence
	if n < minSentences {
		n = minSentences
	}
	if n > maxSentences {
		n = maxSentences
	}
	return e.Summarize(text, n), nil
}

// Summarize returns at most limit sentences of text.
func (e *Extractive) Summarize(text string, limit int) string {
	if limit <= 0 {
		limit = 5
	}
	var sentences []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}

	freq := map[string]float64{}
	tokenized := make([][]string, len(sentences))
	for i, sent := range sentences {
		tokenized[i] = tokens(sent)
		for _, tok := range tokenized[i] {
			if _, ok := e.stopwords[tok]; ok {
				continue
			}
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i, toks := range tokenized {
		s := 0.0
		for _, tok := range toks {
			s += freq[tok]
		}
		// long sentences would otherwise always win
		if l := float64(len(toks)); l > 0 {
			s /= math.Sqrt(l)
		}
		scores[i] = scored{i, s}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if limit > len(scores) {
		limit = len(scores)
	}

	selected := make([]int, limit)
	for i := 0; i < limit; i++ {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, limit)
	for _, idx := range selected {
		out = append(out, sentences[idx])
	}
	return strings.Join(out, " ")
}

func tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"이", "그", "저", "것", "수", "등", "및", "또는", "그리고", "하지만", "있다", "없다", "한다", "된다",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
