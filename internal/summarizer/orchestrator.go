package summarizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mdsum/internal/chunker"
	"mdsum/internal/domain"
	"mdsum/internal/generation"
)

// EmptySentinel is the summary text for blank input.
const EmptySentinel = "(no content to summarize)"

// ErrDegenerateReduce marks a reduce result that was too short to use.
// It is reported through Summary.ReduceErr and never returned.
var ErrDegenerateReduce = errors.New("reduce output too short")

// Outcome tells which path produced a Summary.
type Outcome string

const (
	OutcomeEmpty           Outcome = "empty"
	OutcomeSingle          Outcome = "single"
	OutcomeChunked         Outcome = "chunked"
	OutcomeReduced         Outcome = "reduced"
	OutcomeReduceSkipped   Outcome = "reduce_skipped"
	OutcomeReduceDiscarded Outcome = "reduce_discarded"
)

// Summary is the result of one Summarize call.
type Summary struct {
	Text    string
	Outcome Outcome
	// Chunks is the number of map-phase chunks, zero on the single-shot path.
	Chunks int
	// Kept is the number of chunk summaries left after deduplication.
	Kept int
	// Failed is the number of chunks replaced by a failure placeholder.
	Failed int
	// ReduceErr is set when a reduce call failed or was discarded.
	ReduceErr error
}

// Orchestrator summarizes documents of any size against a pool of
// equivalent backend endpoints.
type Orchestrator struct {
	gen     domain.Generator
	pool    *generation.Pool
	chunker domain.Chunker
	dedup   Deduplicator
	cfg     Config
	logger  *zap.Logger
}

// New creates an Orchestrator. Zero numeric Config fields take their defaults,
// except ChunkOverlap and DedupMinSample where zero is a valid setting and only
// negative values are replaced. Start from DefaultConfig to keep AutoChunk on.
func New(gen domain.Generator, pool *generation.Pool, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Orchestrator{
		gen:  gen,
		pool: pool,
		chunker: chunker.NewBoundaryChunker(
			chunker.WithMaxSize(cfg.ChunkSize),
			chunker.WithOverlap(cfg.ChunkOverlap),
		),
		dedup:  NewDeduplicator(cfg),
		cfg:    cfg,
		logger: logger,
	}
}

// SummarizeText returns only the summary text.
func (o *Orchestrator) SummarizeText(ctx context.Context, content string, maxTokens int) (string, error) {
	s, err := o.Summarize(ctx, content, maxTokens)
	if err != nil {
		return "", err
	}
	return s.Text, nil
}

// Summarize produces one summary of content. Small inputs are sent in one
// call; large ones are chunked, summarized concurrently, deduplicated and
// merged by a reduce call. Only a failed single-shot call or a cancelled
// context return an error.
func (o *Orchestrator) Summarize(ctx context.Context, content string, maxTokens int) (Summary, error) {
	if strings.TrimSpace(content) == "" {
		return Summary{Text: EmptySentinel, Outcome: OutcomeEmpty}, nil
	}

	estimate := o.cfg.EstimateTokens(content, maxTokens)
	if !o.cfg.AutoChunk || estimate <= o.cfg.SingleShotCeiling {
		text, err := o.call(ctx, buildSingleShotPrompt(content), content, maxTokens)
		if err != nil {
			return Summary{}, fmt.Errorf("single-shot summary: %w", err)
		}
		return Summary{Text: StripThinking(text), Outcome: OutcomeSingle}, nil
	}

	o.logger.Info("input over single-shot ceiling, chunking",
		zap.Int("chars", utf8.RuneCountInString(content)),
		zap.Int("estimated_tokens", estimate))
	return o.summarizeChunked(ctx, content, maxTokens)
}

func (o *Orchestrator) summarizeChunked(ctx context.Context, content string, maxTokens int) (Summary, error) {
	chunks := o.chunker.Chunk(content)
	summaries, failed := o.mapChunks(ctx, chunks)
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	kept := o.dedup.Dedup(summaries)
	joined := strings.Join(kept, Separator)
	o.logger.Info("map phase done",
		zap.Int("chunks", len(chunks)),
		zap.Int("kept", len(kept)),
		zap.Int("failed", failed),
		zap.Int("chars", utf8.RuneCountInString(joined)))

	result := Summary{Text: joined, Outcome: OutcomeChunked, Chunks: len(chunks), Kept: len(kept), Failed: failed}
	if len(kept) <= 1 {
		result.Text = StripThinking(result.Text)
		return result, nil
	}

	if estimate := o.cfg.EstimateTokens(joined, maxTokens); estimate > o.cfg.ReduceCeiling {
		o.logger.Warn("skipping reduce, joined summaries over ceiling", zap.Int("estimated_tokens", estimate))
		result.Outcome = OutcomeReduceSkipped
		result.Text = StripThinking(joined)
		return result, nil
	}

	reduced, err := o.call(ctx, buildReducePrompt(joined), joined, maxTokens)
	if err == nil && utf8.RuneCountInString(reduced) < o.cfg.MinReduceChars {
		err = fmt.Errorf("%w: %d chars", ErrDegenerateReduce, utf8.RuneCountInString(reduced))
	}
	if err != nil {
		o.logger.Warn("reduce discarded, using joined summaries", zap.Error(err))
		result.Outcome = OutcomeReduceDiscarded
		result.ReduceErr = err
		result.Text = StripThinking(joined)
		return result, nil
	}

	result.Outcome = OutcomeReduced
	result.Text = StripThinking(reduced)
	return result, nil
}

type chunkResult struct {
	index int
	text  string
	err   error
}

// mapChunks summarizes every chunk concurrently and returns the summaries in
// chunk order together with the number of failed chunks. A failed chunk is
// replaced by a placeholder; it never cancels its siblings.
func (o *Orchestrator) mapChunks(ctx context.Context, chunks []domain.Chunk) ([]string, int) {
	var (
		mu      sync.Mutex
		results = make([]chunkResult, 0, len(chunks))
		g       errgroup.Group
	)
	if o.cfg.MaxConcurrency > 0 {
		g.SetLimit(o.cfg.MaxConcurrency)
	}

	for _, ch := range chunks {
		endpoint := o.pool.Next()
		g.Go(func() error {
			start := time.Now()
			text, err := o.generate(ctx, endpoint, buildChunkPrompt(ch.Index, len(chunks), ch.Text), ch.Text, o.cfg.ChunkMaxTokens)
			if err != nil {
				o.logger.Warn("chunk summary failed",
					zap.Int("chunk", ch.Index),
					zap.String("endpoint", endpoint),
					zap.Error(err))
				text = fmt.Sprintf("## Part %d\n\n(summary failed: %v)", ch.Index, err)
			} else {
				text = CleanLines(StripThinking(text), o.cfg.SimilarityThreshold)
				o.logger.Debug("chunk summarized",
					zap.Int("chunk", ch.Index),
					zap.String("endpoint", endpoint),
					zap.Int("chars", utf8.RuneCountInString(text)),
					zap.Duration("elapsed", time.Since(start)))
			}
			mu.Lock()
			results = append(results, chunkResult{index: ch.Index, text: text, err: err})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	out := make([]string, len(results))
	failed := 0
	for i, r := range results {
		out[i] = r.text
		if r.err != nil {
			failed++
		}
	}
	return out, failed
}

// call sends one whole-text request to the next endpoint. Thinking blocks are
// removed before echoed repetition so a separator inside a block cannot cut
// the answer off.
func (o *Orchestrator) call(ctx context.Context, prompt, input string, maxTokens int) (string, error) {
	text, err := o.generate(ctx, o.pool.Next(), prompt, input, maxTokens)
	if err != nil {
		return "", err
	}
	return RemoveRepetition(StripThinking(text)), nil
}

func (o *Orchestrator) generate(ctx context.Context, endpoint, prompt, input string, maxTokens int) (string, error) {
	return o.gen.Generate(ctx, domain.GenerationRequest{
		Endpoint:  endpoint,
		Prompt:    prompt,
		Input:     input,
		MaxTokens: maxTokens,
		Sampling:  o.cfg.Sampling,
	})
}
