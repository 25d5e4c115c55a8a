package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mdsum/internal/catalog"
	"mdsum/internal/domain"
)

// ErrEmptyCatalog is returned by Search when no document has been indexed.
var ErrEmptyCatalog = errors.New("no documents indexed")

// IndexReport describes one Build run.
type IndexReport struct {
	Added []string      `json:"added"`
	Stats catalog.Stats `json:"statistics"`
}

// IndexService builds and queries the persisted summary catalog.
type IndexService struct {
	catalog   *catalog.Catalog
	maxTokens int
	logger    *zap.Logger
}

// NewIndexService wraps c. maxTokens is the output budget for each document summary.
func NewIndexService(c *catalog.Catalog, maxTokens int, logger *zap.Logger) *IndexService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexService{catalog: c, maxTokens: maxTokens, logger: logger}
}

// Catalog returns the underlying catalog.
func (s *IndexService) Catalog() *catalog.Catalog { return s.catalog }

// Open loads the saved catalog. Having nothing saved yet is not an error.
func (s *IndexService) Open(ctx context.Context) error {
	err := s.catalog.Load(ctx)
	if errors.Is(err, catalog.ErrStateMissing) {
		s.logger.Info("no saved catalog, starting empty")
		return nil
	}
	return err
}

// Build adds the files, summarizes every document and saves the catalog.
// Unreadable files are skipped; the returned error then wraps them but the
// report is still valid.
func (s *IndexService) Build(ctx context.Context, paths []string) (*IndexReport, error) {
	added, addErr := s.catalog.AddBatch(paths)
	if len(added) == 0 {
		if addErr != nil {
			return nil, fmt.Errorf("no file added: %w", addErr)
		}
		return nil, errors.New("no file added")
	}
	if err := s.catalog.SummarizeAll(ctx, s.maxTokens); err != nil {
		return nil, err
	}
	if err := s.catalog.Save(ctx); err != nil {
		return nil, err
	}
	report := &IndexReport{Added: added, Stats: s.catalog.Statistics()}
	if addErr != nil {
		return report, fmt.Errorf("some files skipped: %w", addErr)
	}
	return report, nil
}

// Search ranks summarized documents against query.
func (s *IndexService) Search(query string, topK int) ([]domain.SearchResult, error) {
	if s.catalog.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	return s.catalog.Search(query, topK), nil
}

// Statistics reports catalog counts.
func (s *IndexService) Statistics() catalog.Stats {
	return s.catalog.Statistics()
}
