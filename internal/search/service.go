package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"veas/site/internal/content"
)

// ErrIndexUnavailable is returned by ReindexAll when there is no healthy index.
var ErrIndexUnavailable = errors.New("search index unavailable")

// Searcher can execute a full-text search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Result, int, error)
	Healthy() bool
}

// Index is a Searcher that can also be fed records.
type Index interface {
	Searcher
	IndexSections(ctx context.Context, records []SectionRecord) error
}

// ContentSource lists everything that should be searchable.
type ContentSource interface {
	ListServices(ctx context.Context) ([]content.Service, error)
	ListAllSections(ctx context.Context) ([]content.Section, error)
}

// Service is the facade that tries the index first and falls back to PG FTS.
type Service struct {
	index    Index
	fallback Searcher
	logger   *zap.Logger
}

// NewService creates a search service. index may be nil if Meilisearch is not configured.
func NewService(index Index, fallback Searcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{index: index, fallback: fallback, logger: logger.Named("search")}
}

// Search tries the index if healthy, otherwise falls back to PG FTS. Errors
// degrade to an empty result set.
func (s *Service) Search(ctx context.Context, q Query) Response {
	q = q.Normalize()
	if q.Text == "" {
		return Response{Results: []Result{}, Query: q.Text}
	}

	if s.index != nil && s.index.Healthy() {
		results, total, err := s.index.Search(ctx, q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		s.logger.Warn("index search failed, falling back to postgres", zap.Error(err))
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text}
	}
	results, total, err := s.fallback.Search(ctx, q)
	if err != nil {
		s.logger.Error("postgres search failed", zap.String("query", q.Text), zap.Error(err))
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// ReindexAll reads every service and section from source and pushes them to
// the index. It returns the number of records sent.
func (s *Service) ReindexAll(ctx context.Context, source ContentSource) (int, error) {
	if s.index == nil || !s.index.Healthy() {
		return 0, ErrIndexUnavailable
	}
	services, err := source.ListServices(ctx)
	if err != nil {
		return 0, fmt.Errorf("reindex: %w", err)
	}
	sections, err := source.ListAllSections(ctx)
	if err != nil {
		return 0, fmt.Errorf("reindex: %w", err)
	}

	records := BuildRecords(services, sections)
	if err := s.index.IndexSections(ctx, records); err != nil {
		return 0, fmt.Errorf("reindex: %w", err)
	}
	s.logger.Info("reindexed sections", zap.Int("records", len(records)), zap.Int("sections", len(sections)))
	return len(records), nil
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
