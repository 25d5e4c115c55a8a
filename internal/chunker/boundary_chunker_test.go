package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_ShortTextIsReturnedWhole(t *testing.T) {
	text := "  a short note.  "
	assert.Equal(t, []string{text}, Split(text, 100, 10))
	assert.Equal(t, []string{""}, Split("", 100, 10))
}

func TestSplit_EndsOnBoundaries(t *testing.T) {
	got := Split("One. Two. Three. Four.", 10, 0)
	assert.Equal(t, []string{"One. Two.", "Three.", "Four."}, got)
}

func TestSplit_NoBoundaryUsesHardWindows(t *testing.T) {
	got := Split(strings.Repeat("x", 25), 10, 3)
	require.Len(t, got, 4)
	lengths := make([]int, len(got))
	for i, p := range got {
		lengths[i] = len(p)
	}
	assert.Equal(t, []int{10, 10, 10, 4}, lengths)
}

func TestSplit_OverlapLargerThanSizeTerminates(t *testing.T) {
	got := Split(strings.Repeat("y", 25), 5, 10)
	require.NotEmpty(t, got)
	for _, p := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 5)
	}
}

func TestSplit_DropsBlankPieces(t *testing.T) {
	got := Split(strings.Repeat(" ", 15)+"abc", 10, 0)
	assert.Equal(t, []string{"abc"}, got)
}

func TestSplit_CountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("가나다라. ", 10)
	got := Split(text, 20, 0)
	require.Greater(t, len(got), 1)
	for _, p := range got {
		assert.True(t, utf8.ValidString(p))
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 20)
	}
}

func TestSplit_KeepsEverySentence(t *testing.T) {
	var sentences []string
	for i := 0; i < 50; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence %d ends here.", i))
	}
	text := strings.Join(sentences, " ")
	chunks := Split(text, 120, 20)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 120)
	}
	for _, s := range sentences {
		found := false
		for _, c := range chunks {
			if strings.Contains(c, s) {
				found = true
				break
			}
		}
		assert.True(t, found, "sentence %q missing from chunks", s)
	}
}

func TestSplit_ChunksOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 5)
	got := Split(text, 20, 5)
	require.Greater(t, len(got), 1)
	for i := 1; i < len(got); i++ {
		prev := got[i-1]
		assert.True(t, strings.HasPrefix(got[i], prev[len(prev)-5:]))
	}
}

func TestNewBoundaryChunker(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewBoundaryChunker()
		assert.Equal(t, DefaultMaxSize, c.MaxSize())
		assert.Equal(t, DefaultOverlap, c.Overlap())
	})

	t.Run("overlap clamped", func(t *testing.T) {
		c := NewBoundaryChunker(WithMaxSize(100), WithOverlap(150))
		assert.Equal(t, 99, c.Overlap())
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		c := NewBoundaryChunker(WithMaxSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultMaxSize, c.MaxSize())
		assert.Equal(t, DefaultOverlap, c.Overlap())
	})
}

func TestBoundaryChunker_Chunk(t *testing.T) {
	c := NewBoundaryChunker(WithMaxSize(10), WithOverlap(0))
	chunks := c.Chunk("One. Two. Three. Four.")
	require.Len(t, chunks, 3)
	for i, ch := range chunks {
		assert.Equal(t, i+1, ch.Index)
		assert.Equal(t, utf8.RuneCountInString(ch.Text), ch.Length)
	}
	assert.Equal(t, "Three.", chunks[1].Text)
}
