package summarizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sentences = map[string]string{
	"revenue": "Revenue grew strongly across every region this quarter. ",
	"hiring":  "Hiring slowed while attrition stayed flat in engineering. ",
	"zebra":   "Zebras migrate north when the dry season ends early. ",
}

func paragraph(topic string) string {
	return strings.Repeat(sentences[topic], 4)
}

func TestDedup_ExactDuplicatesIgnoreWhitespace(t *testing.T) {
	d := NewDeduplicator(DefaultConfig())
	out := d.Dedup([]string{"a b c", "abc", "a\n\tb  c", "xyz"})
	assert.Equal(t, []string{"a b c", "xyz"}, out)
}

func TestDedup_NearDuplicateKeepsOrder(t *testing.T) {
	a := paragraph("revenue")
	b := a + " One extra closing remark."
	c := paragraph("zebra")

	d := NewDeduplicator(DefaultConfig())
	assert.Equal(t, []string{a, c}, d.Dedup([]string{a, b, c}))
}

func TestDedup_ShortSamplesSkipSimilarity(t *testing.T) {
	d := NewDeduplicator(DefaultConfig())
	in := []string{"summary one", "summary one!"}
	assert.Equal(t, in, d.Dedup(in))
}

func TestDedup_Idempotent(t *testing.T) {
	a := paragraph("revenue")
	in := []string{a, paragraph("hiring"), a, a + " tail", paragraph("zebra"), "short", "short"}

	d := NewDeduplicator(DefaultConfig())
	once := d.Dedup(in)
	require.NotEmpty(t, once)
	assert.Equal(t, once, d.Dedup(once))
}

func TestDedup_Empty(t *testing.T) {
	assert.Empty(t, NewDeduplicator(DefaultConfig()).Dedup(nil))
}
