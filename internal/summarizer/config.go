package summarizer

import "mdsum/internal/domain"

// Config holds the tunables of the map-reduce pipeline. The token figures
// are heuristics for Korean-heavy markdown, not tokenizer counts.
type Config struct {
	// AutoChunk enables the chunked path. When false every document is sent single-shot.
	AutoChunk bool

	TokensPerChar     float64
	PromptOverhead    int
	SingleShotCeiling int
	ReduceCeiling     int

	ChunkSize      int
	ChunkOverlap   int
	ChunkMaxTokens int
	// MaxConcurrency bounds in-flight chunk calls. Zero means one goroutine per chunk.
	MaxConcurrency int

	MinReduceChars      int
	DedupPrefix         int
	DedupMinSample      int
	SimilarityThreshold float64

	Sampling domain.Sampling
}

// DefaultConfig returns the reference tuning for an 80k-token context model.
func DefaultConfig() Config {
	return Config{
		AutoChunk:           true,
		TokensPerChar:       1.5,
		PromptOverhead:      2000,
		SingleShotCeiling:   40000,
		ReduceCeiling:       60000,
		ChunkSize:           8000,
		ChunkOverlap:        200,
		ChunkMaxTokens:      3000,
		MinReduceChars:      500,
		DedupPrefix:         1000,
		DedupMinSample:      100,
		SimilarityThreshold: 0.7,
		Sampling: domain.Sampling{
			Temperature:       0.3,
			TopP:              0.9,
			RepetitionPenalty: 1.15,
			Stop:              DefaultStop(),
		},
	}
}

// DefaultStop lists stop sequences that cut off echoed blocks and footers.
func DefaultStop() []string {
	return []string{
		Separator,
		"\n---  \n*※",
		"---  \n*※",
		"(※ 최종",
		"(※ 본 요약",
	}
}

// withDefaults fills zero values from DefaultConfig. AutoChunk and Sampling are kept as given.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TokensPerChar <= 0 {
		c.TokensPerChar = d.TokensPerChar
	}
	if c.PromptOverhead <= 0 {
		c.PromptOverhead = d.PromptOverhead
	}
	if c.SingleShotCeiling <= 0 {
		c.SingleShotCeiling = d.SingleShotCeiling
	}
	if c.ReduceCeiling <= 0 {
		c.ReduceCeiling = d.ReduceCeiling
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = d.ChunkOverlap
	}
	if c.ChunkMaxTokens <= 0 {
		c.ChunkMaxTokens = d.ChunkMaxTokens
	}
	if c.MinReduceChars <= 0 {
		c.MinReduceChars = d.MinReduceChars
	}
	if c.DedupPrefix <= 0 {
		c.DedupPrefix = d.DedupPrefix
	}
	if c.DedupMinSample < 0 {
		c.DedupMinSample = d.DedupMinSample
	}
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = d.SimilarityThreshold
	}
	return c
}
