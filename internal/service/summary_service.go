package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"mdsum/internal/domain"
	"mdsum/internal/mdparse"
	"mdsum/internal/summarizer"
)

var (
	// ErrNoFiles is returned when none of the requested files could be read.
	ErrNoFiles = errors.New("no requested file found")
	// ErrNoSummaries is returned when every file was read but none produced a summary.
	ErrNoSummaries = errors.New("no summary produced")
)

const (
	reportTimeLayout = "2006-01-02 15:04:05"
	fileTimeLayout   = "20060102_150405"
)

// Report is the combined result of one summarization request.
type Report struct {
	Summary string   `json:"summary"`
	Files   []string `json:"files"`
	Missing []string `json:"missing,omitempty"`
	Failed  []string `json:"failed,omitempty"`
	// Outcomes maps each summarized name to how its summary was produced,
	// when the summarizer reports it.
	Outcomes    map[string]string `json:"outcomes,omitempty"`
	Timestamp   string            `json:"timestamp"`
	SummaryFile string            `json:"summary_file,omitempty"`
}

// SummaryService summarizes uploaded files and writes the combined result
// to a timestamped markdown file.
type SummaryService struct {
	summarizer domain.Summarizer
	uploadDir  string
	summaryDir string
	maxTokens  int
	logger     *zap.Logger
	now        func() time.Time
}

// NewSummaryService creates the service. Names passed to SummarizeFiles are
// resolved inside uploadDir; reports are written to summaryDir.
func NewSummaryService(s domain.Summarizer, uploadDir, summaryDir string, maxTokens int, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		summarizer: s,
		uploadDir:  uploadDir,
		summaryDir: summaryDir,
		maxTokens:  maxTokens,
		logger:     logger,
		now:        time.Now,
	}
}

// UploadDir returns the directory names are resolved in.
func (s *SummaryService) UploadDir() string { return s.uploadDir }

// Resolve maps a file name to its path in the upload directory. Names that
// would escape the directory are rejected.
func (s *SummaryService) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.uploadDir, name), nil
}

// SummarizeFiles summarizes each named upload in order and joins the
// results under "## <name>" headings. Missing files are listed in the report.
func (s *SummaryService) SummarizeFiles(ctx context.Context, names []string) (*Report, error) {
	s.logger.Info("summarize request", zap.Strings("files", names))
	sources := make([]source, len(names))
	for i, name := range names {
		path, err := s.Resolve(name)
		if err != nil {
			s.logger.Warn("rejected file name", zap.String("file", name), zap.Error(err))
		}
		sources[i] = source{name: name, path: path}
	}
	return s.summarize(ctx, names, sources)
}

// SummarizePaths is SummarizeFiles for files outside the upload directory.
// Each section is headed by the file's base name.
func (s *SummaryService) SummarizePaths(ctx context.Context, paths []string) (*Report, error) {
	names := make([]string, len(paths))
	sources := make([]source, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
		sources[i] = source{name: names[i], path: p}
	}
	return s.summarize(ctx, names, sources)
}

type source struct{ name, path string }

type item struct{ name, content string }

// outcomeSummarizer is a summarizer that also reports how each summary was made.
type outcomeSummarizer interface {
	Summarize(ctx context.Context, content string, maxTokens int) (summarizer.Summary, error)
}

func (s *SummaryService) summarize(ctx context.Context, names []string, sources []source) (*Report, error) {
	var (
		items   []item
		missing []string
	)
	for _, src := range sources {
		if src.path == "" {
			missing = append(missing, src.name)
			continue
		}
		content, err := mdparse.ReadFile(src.path)
		if err != nil {
			s.logger.Warn("file not readable", zap.String("path", src.path), zap.Error(err))
			missing = append(missing, src.name)
			continue
		}
		items = append(items, item{src.name, mdparse.StripFrontMatter(content)})
	}
	if len(items) == 0 {
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoFiles, strings.Join(missing, ", "))
		}
		return nil, ErrNoFiles
	}
	return s.summarizeItems(ctx, names, items, missing)
}

func (s *SummaryService) summarizeItems(ctx context.Context, names []string, items []item, missing []string) (*Report, error) {
	var (
		blocks   []string
		failed   []string
		outcomes map[string]string
	)
	for _, it := range items {
		summary, outcome, err := s.summarizeOne(ctx, it)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Error("summary failed", zap.String("file", it.name), zap.Error(err))
			failed = append(failed, it.name)
			continue
		}
		if outcome != "" {
			if outcomes == nil {
				outcomes = make(map[string]string)
			}
			outcomes[it.name] = string(outcome)
		}
		if summary == "" || summary == summarizer.EmptySentinel {
			continue
		}
		blocks = append(blocks, "## "+it.name+"\n\n"+summary)
	}
	if len(blocks) == 0 {
		return nil, ErrNoSummaries
	}

	now := s.now()
	report := &Report{
		Summary:   strings.Join(blocks, summarizer.Separator),
		Files:     names,
		Missing:   missing,
		Failed:    failed,
		Outcomes:  outcomes,
		Timestamp: now.Format(reportTimeLayout),
	}
	path, err := s.writeReport(report, now)
	if err != nil {
		return nil, err
	}
	report.SummaryFile = path
	s.logger.Info("summary written", zap.String("path", path), zap.Int("sections", len(blocks)))
	return report, nil
}

func (s *SummaryService) summarizeOne(ctx context.Context, it item) (string, summarizer.Outcome, error) {
	detailed, ok := s.summarizer.(outcomeSummarizer)
	if !ok {
		text, err := s.summarizer.SummarizeText(ctx, it.content, s.maxTokens)
		return text, "", err
	}
	sum, err := detailed.Summarize(ctx, it.content, s.maxTokens)
	if err != nil {
		return "", "", err
	}
	switch sum.Outcome {
	case summarizer.OutcomeReduceSkipped, summarizer.OutcomeReduceDiscarded:
		s.logger.Warn("degraded summary",
			zap.String("file", it.name),
			zap.String("outcome", string(sum.Outcome)),
			zap.Int("chunks", sum.Chunks),
			zap.Int("kept", sum.Kept),
			zap.Int("failed_chunks", sum.Failed),
			zap.NamedError("reduce_error", sum.ReduceErr))
	default:
		s.logger.Debug("file summarized", zap.String("file", it.name), zap.String("outcome", string(sum.Outcome)))
	}
	return sum.Text, sum.Outcome, nil
}

func (s *SummaryService) writeReport(r *Report, now time.Time) (string, error) {
	if err := os.MkdirAll(s.summaryDir, 0o755); err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Summary (%s)\n\n", now.Format(reportTimeLayout))
	b.WriteString("## Files\n")
	for _, f := range r.Files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\n## Summary\n\n")
	b.WriteString(r.Summary)

	path := filepath.Join(s.summaryDir, "summary_"+now.Format(fileTimeLayout)+".md")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}
