package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
	"github.com/lorekeep/insight-core/internal/core/ports/driving"
	"github.com/lorekeep/insight-core/internal/runtime"
)

// Ensure insightService implements InsightService
var _ driving.InsightService = (*insightService)(nil)

// insightService implements semantic queries and insight lifecycle operations
type insightService struct {
	store    driven.InsightStore
	files    driven.FileStore
	services *runtime.Services
	logger   *slog.Logger
}

// NewInsightService creates a new InsightService.
// The embedding service is resolved dynamically via runtime.Services, so
// querying degrades gracefully while no backend is configured.
func NewInsightService(
	store driven.InsightStore,
	files driven.FileStore,
	services *runtime.Services,
	logger *slog.Logger,
) driving.InsightService {
	if logger == nil {
		logger = slog.Default()
	}
	return &insightService{
		store:    store,
		files:    files,
		services: services,
		logger:   logger.With("component", "query"),
	}
}

// Query embeds the text and returns the nearest cached insights
func (s *insightService) Query(ctx context.Context, text string, opts domain.QueryOptions) ([]*domain.ScoredInsight, error) {
	// Apply defaults
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = 0.3
	}

	// Querying is a soft-fail capability without an embedding backend
	embedding := s.services.EmbeddingService()
	if embedding == nil {
		s.logger.Debug("no embedding backend configured, returning empty result")
		return []*domain.ScoredInsight{}, nil
	}

	vector, err := embedding.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	sourcePaths, err := s.expandScope(ctx, opts.Scope)
	if err != nil {
		return nil, err
	}

	results, err := s.store.SimilaritySearch(ctx, vector, domain.SimilaritySearchOptions{
		Limit:         opts.Limit,
		MinSimilarity: opts.MinSimilarity,
		SourcePaths:   sourcePaths,
		Kinds:         opts.Kinds,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return results, nil
}

// List returns every stored insight
func (s *insightService) List(ctx context.Context) ([]*domain.Insight, error) {
	return s.store.GetAll(ctx)
}

// DeleteByID removes a single insight
func (s *insightService) DeleteByID(ctx context.Context, id string) error {
	return s.store.DeleteByID(ctx, id)
}

// DeleteBySourcePrefix removes all insights under a source path prefix
func (s *insightService) DeleteBySourcePrefix(ctx context.Context, prefix string) error {
	return s.store.DeleteByPath(ctx, prefix)
}

// Clear removes every stored insight
func (s *insightService) Clear(ctx context.Context) error {
	return s.store.ClearAll(ctx)
}

// expandScope builds the source path allow-list: explicit files unioned with
// the direct files of each scoped folder. Nil scope means search all.
func (s *insightService) expandScope(ctx context.Context, scope *domain.QueryScope) ([]string, error) {
	if scope == nil {
		return nil, nil
	}

	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, f := range scope.Files {
		add(f)
	}
	for _, folder := range scope.Folders {
		listing, err := s.files.ListDirectChildren(ctx, folder)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, folder)
		}
		for _, f := range listing.Files {
			add(f)
		}
	}
	return paths, nil
}
