// Package catalog keeps a set of markdown documents with their summaries
// and ranks them against free-text queries.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"mdsum/internal/domain"
	"mdsum/internal/mdparse"
	"mdsum/internal/similarity"
)

var (
	// ErrNotFound is returned for an unknown document id.
	ErrNotFound = errors.New("document not found")
	// ErrNotSummarized is returned by Summary before the document was summarized.
	ErrNotSummarized = errors.New("document not summarized")
	// ErrStateMissing is returned by a Store when nothing has been saved yet.
	ErrStateMissing = errors.New("catalog state not found")
	// ErrCorruptState is returned when saved state is internally inconsistent.
	ErrCorruptState = errors.New("catalog state is corrupt")
)

// Record is one document and its summary.
type Record struct {
	ID       string
	Content  string
	FilePath string
	AddedAt  time.Time
	Summary  string
	// Summarized is set once SummarizeAll processed the record, even when it failed.
	Summarized bool
	SummaryErr string
}

// Ranked is a document id with its relevance score.
type Ranked struct {
	ID    string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// Stats summarizes the catalog contents. Lengths are in characters.
type Stats struct {
	TotalDocuments   int      `json:"total_documents"`
	TotalSummaries   int      `json:"total_summaries"`
	AvgContentLength int      `json:"avg_content_length"`
	AvgSummaryLength int      `json:"avg_summary_length"`
	DocIDs           []string `json:"doc_ids"`
}

// Catalog is an ordered collection of records keyed by id. Adding an id
// that already exists replaces the record in place and clears its summary.
type Catalog struct {
	mu      sync.RWMutex
	records []Record
	index   map[string]int

	summarizer domain.Summarizer
	store      Store
	logger     *zap.Logger
	now        func() time.Time
}

// New creates an empty catalog. store may be nil when persistence is not needed.
func New(summarizer domain.Summarizer, store Store, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		index:      make(map[string]int),
		summarizer: summarizer,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// Add stores content under id.
func (c *Catalog) Add(id, content string) {
	c.put(Record{ID: id, Content: content})
}

// AddFile reads a markdown file and stores it under its base name.
func (c *Catalog) AddFile(path string) (string, error) {
	content, err := mdparse.ReadFile(path)
	if err != nil {
		return "", err
	}
	id := filepath.Base(path)
	c.put(Record{ID: id, Content: content, FilePath: path})
	return id, nil
}

// AddBatch adds every readable file. Unreadable files are skipped and
// reported together in the returned error.
func (c *Catalog) AddBatch(paths []string) ([]string, error) {
	var (
		ids  []string
		errs []error
	)
	for _, p := range paths {
		id, err := c.AddFile(p)
		if err != nil {
			c.logger.Warn("skipping unreadable file", zap.String("path", p), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	c.logger.Info("batch added", zap.Int("added", len(ids)), zap.Int("requested", len(paths)))
	return ids, errors.Join(errs...)
}

func (c *Catalog) put(r Record) {
	r.AddedAt = c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[r.ID]; ok {
		c.records[i] = r
		c.logger.Info("document replaced", zap.String("doc_id", r.ID), zap.Int("index", i))
		return
	}
	c.index[r.ID] = len(c.records)
	c.records = append(c.records, r)
	c.logger.Debug("document added", zap.String("doc_id", r.ID), zap.Int("index", len(c.records)-1))
}

// SummarizeAll summarizes every document one after another. A failed
// document gets an empty summary and does not stop the rest. Only context
// cancellation is returned.
func (c *Catalog) SummarizeAll(ctx context.Context, maxTokens int) error {
	if c.summarizer == nil {
		return errors.New("catalog has no summarizer")
	}
	type job struct{ id, content string }

	c.mu.RLock()
	jobs := make([]job, len(c.records))
	for i, r := range c.records {
		jobs[i] = job{r.ID, r.Content}
	}
	c.mu.RUnlock()

	c.logger.Info("summarizing documents", zap.Int("documents", len(jobs)))
	for i, j := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		summary, err := c.summarizer.SummarizeText(ctx, j.content, maxTokens)
		errMsg := ""
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.logger.Error("summary failed", zap.String("doc_id", j.id), zap.Error(err))
			summary, errMsg = "", err.Error()
		} else {
			c.logger.Info("document summarized",
				zap.String("doc_id", j.id),
				zap.Int("n", i+1),
				zap.Int("chars", utf8.RuneCountInString(summary)),
				zap.Duration("elapsed", time.Since(start)))
		}
		c.setSummary(j.id, j.content, summary, errMsg)
	}
	return nil
}

// setSummary stores a summary unless the record was replaced meanwhile.
func (c *Catalog) setSummary(id, content, summary, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok || c.records[i].Content != content {
		return
	}
	c.records[i].Summary = summary
	c.records[i].Summarized = true
	c.records[i].SummaryErr = errMsg
}

// Rank scores every summarized document by word-set Jaccard between query
// and summary and returns the best k, ties in insertion order. k <= 0
// returns all of them. It returns nil when nothing is summarized.
func (c *Catalog) Rank(query string, k int) []Ranked {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rankLocked(query, k)
}

func (c *Catalog) rankLocked(query string, k int) []Ranked {
	var ranked []Ranked
	for _, r := range c.records {
		if !r.Summarized {
			continue
		}
		ranked = append(ranked, Ranked{ID: r.ID, Score: similarity.Words(query, r.Summary)})
	}
	if len(ranked) == 0 {
		return nil
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// Search ranks like Rank and attaches each match's summary and content.
func (c *Catalog) Search(query string, k int) []domain.SearchResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ranked := c.rankLocked(query, k)
	if ranked == nil {
		return nil
	}
	out := make([]domain.SearchResult, 0, len(ranked))
	for _, r := range ranked {
		rec := c.records[c.index[r.ID]]
		out = append(out, domain.SearchResult{DocID: r.ID, Score: r.Score, Summary: rec.Summary, Content: rec.Content})
	}
	return out
}

// Get returns a copy of the record stored under id.
func (c *Catalog) Get(id string) (Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.records[i], nil
}

// Summary returns the summary stored for id.
func (c *Catalog) Summary(id string) (string, error) {
	r, err := c.Get(id)
	if err != nil {
		return "", err
	}
	if !r.Summarized {
		return "", fmt.Errorf("%w: %s", ErrNotSummarized, id)
	}
	return r.Summary, nil
}

// Records returns a copy of all records in insertion order.
func (c *Catalog) Records() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of documents.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Statistics reports counts and mean lengths. Means are zero for an empty catalog.
func (c *Catalog) Statistics() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Stats{TotalDocuments: len(c.records), DocIDs: make([]string, 0, len(c.records))}
	var contentChars, summaryChars int
	for _, r := range c.records {
		st.DocIDs = append(st.DocIDs, r.ID)
		contentChars += utf8.RuneCountInString(r.Content)
		if r.Summarized {
			st.TotalSummaries++
			summaryChars += utf8.RuneCountInString(r.Summary)
		}
	}
	if st.TotalDocuments > 0 {
		st.AvgContentLength = contentChars / st.TotalDocuments
	}
	if st.TotalSummaries > 0 {
		st.AvgSummaryLength = summaryChars / st.TotalSummaries
	}
	return st
}

// Save writes the full catalog to the configured store.
func (c *Catalog) Save(ctx context.Context) error {
	if c.store == nil {
		return errors.New("catalog has no store")
	}
	snap := Snapshot{Records: c.Records(), SavedAt: c.now()}
	if err := c.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	c.logger.Info("catalog saved", zap.Int("documents", len(snap.Records)))
	return nil
}

// Load replaces the in-memory state with the stored one. Stored records that
// share an id collapse onto the first position with the last content. On any
// error, including ErrStateMissing, the catalog is left untouched.
func (c *Catalog) Load(ctx context.Context) error {
	if c.store == nil {
		return errors.New("catalog has no store")
	}
	snap, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	records := make([]Record, 0, len(snap.Records))
	index := make(map[string]int, len(snap.Records))
	for _, r := range snap.Records {
		if i, ok := index[r.ID]; ok {
			records[i] = r
			continue
		}
		index[r.ID] = len(records)
		records = append(records, r)
	}

	c.mu.Lock()
	c.records, c.index = records, index
	c.mu.Unlock()
	c.logger.Info("catalog loaded", zap.Int("documents", len(records)), zap.Time("saved_at", snap.SavedAt))
	return nil
}
