package domain

import "context"

// Chunk is a bounded-size slice of a document. Index is 1-based.
type Chunk struct {
	Index  int
	Text   string
	Length int
}

// SearchResult represents a catalog document matching a query.
type SearchResult struct {
	DocID   string  `json:"doc_id"`
	Score   float64 `json:"score"`
	Summary string  `json:"summary"`
	Content string  `json:"content"`
}

// Sampling holds the backend sampling configuration. The values are passed
// through to the backend untouched.
type Sampling struct {
	Temperature       float64
	TopP              float64
	RepetitionPenalty float64
	Stop              []string
}

// GenerationRequest is one call to a text generation backend.
type GenerationRequest struct {
	Endpoint  string
	Prompt    string
	// Input is the source text embedded in Prompt. In-process engines read it
	// instead of parsing the prompt.
	Input     string
	MaxTokens int
	Sampling  Sampling
}

// Generator sends a prompt to a text generation backend and returns the
// generated text.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// Chunker splits text into chunks suitable for per-chunk generation.
type Chunker interface {
	Chunk(text string) []Chunk
}

// Summarizer produces one summary for a whole document.
type Summarizer interface {
	SummarizeText(ctx context.Context, content string, maxTokens int) (string, error)
}
