package chunker

import (
	"strings"
	"unicode/utf8"

	"mdsum/internal/domain"
)

// Default sizes, in characters.
const (
	DefaultMaxSize = 8000
	DefaultOverlap = 200
)

// BoundaryChunker splits text into overlapping windows that end on a sentence
// terminator or newline whenever one is available.
type BoundaryChunker struct {
	maxSize int
	overlap int
}

// Option configures a BoundaryChunker.
type Option func(*BoundaryChunker)

// WithMaxSize sets the maximum chunk size in characters. Non-positive values are ignored.
func WithMaxSize(n int) Option {
	return func(c *BoundaryChunker) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithOverlap sets the number of characters shared by adjacent chunks. Negative values are ignored.
func WithOverlap(n int) Option {
	return func(c *BoundaryChunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// NewBoundaryChunker creates a chunker. An overlap that is not smaller than
// the chunk size is clamped to maxSize-1.
func NewBoundaryChunker(opts ...Option) *BoundaryChunker {
	c := &BoundaryChunker{maxSize: DefaultMaxSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(c)
	}
	c.overlap = clampOverlap(c.maxSize, c.overlap)
	return c
}

// MaxSize returns the configured maximum chunk size.
func (c *BoundaryChunker) MaxSize() int { return c.maxSize }

// Overlap returns the effective overlap.
func (c *BoundaryChunker) Overlap() int { return c.overlap }

// Chunk splits text and numbers the pieces starting at 1.
func (c *BoundaryChunker) Chunk(text string) []domain.Chunk {
	pieces := Split(text, c.maxSize, c.overlap)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, p := range pieces {
		chunks = append(chunks, domain.Chunk{
			Index:  i + 1,
			Text:   p,
			Length: utf8.RuneCountInString(p),
		})
	}
	return chunks
}

// Split cuts text into pieces of at most maxSize characters. Each window is
// shortened to end just after the rightmost '.', '!', '?' or newline inside
// it; the next window starts overlap characters before the previous end.
// Pieces are trimmed and empty pieces are dropped. Text that already fits is
// returned unchanged as a single piece.
func Split(text string, maxSize, overlap int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	overlap = clampOverlap(maxSize, overlap)

	runes := []rune(text)
	n := len(runes)
	if n <= maxSize {
		return []string{text}
	}

	var pieces []string
	start := 0
	for start < n {
		end := start + maxSize
		if end < n {
			if b := lastBoundary(runes, start, end); b > start {
				end = b + 1
			}
		} else {
			end = n
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			pieces = append(pieces, piece)
		}
		if end >= n {
			break
		}

		next := end - overlap
		// a boundary close to start would otherwise move the window backwards
		if next <= start {
			next = end
		}
		start = next
	}
	return pieces
}

func lastBoundary(runes []rune, start, end int) int {
	for i := end - 1; i >= start; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			return i
		}
	}
	return -1
}

func clampOverlap(maxSize, overlap int) int {
	if overlap < 0 {
		return 0
	}
	if overlap >= maxSize {
		return maxSize - 1
	}
	return overlap
}
