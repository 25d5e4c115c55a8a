package summarizer

import (
	"crypto/sha256"

	"mdsum/internal/similarity"
)

// Deduplicator drops exact and near-duplicate summaries while keeping the
// order of the survivors.
type Deduplicator struct {
	// Prefix is the number of leading characters compared for near-duplicates.
	Prefix int
	// MinSample skips the similarity check when the shared prefix is this short or shorter.
	MinSample int
	Threshold float64
}

// NewDeduplicator builds a Deduplicator from the pipeline config.
func NewDeduplicator(cfg Config) Deduplicator {
	cfg = cfg.withDefaults()
	return Deduplicator{Prefix: cfg.DedupPrefix, MinSample: cfg.DedupMinSample, Threshold: cfg.SimilarityThreshold}
}

// Dedup returns the items that are neither a whitespace-insensitive copy of
// an earlier survivor nor more similar than Threshold to one, compared on
// the first min(Prefix, len) characters of both.
func (d Deduplicator) Dedup(items []string) []string {
	kept := make([]string, 0, len(items))
	keptRunes := make([][]rune, 0, len(items))
	seen := make(map[[sha256.Size]byte]struct{}, len(items))

	for _, item := range items {
		sum := sha256.Sum256([]byte(similarity.StripSpace(item)))
		if _, ok := seen[sum]; ok {
			continue
		}
		runes := []rune(item)
		if d.similarToKept(runes, keptRunes) {
			continue
		}
		seen[sum] = struct{}{}
		kept = append(kept, item)
		keptRunes = append(keptRunes, runes)
	}
	return kept
}

func (d Deduplicator) similarToKept(item []rune, kept [][]rune) bool {
	for _, k := range kept {
		n := min(d.Prefix, len(item), len(k))
		if n <= d.MinSample {
			continue
		}
		if similarity.NGram(string(item[:n]), string(k[:n])) > d.Threshold {
			return true
		}
	}
	return false
}
