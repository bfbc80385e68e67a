package driven

import (
	"context"

	"github.com/lorekeep/insight-core/internal/core/domain"
)

// InsightStore handles insight persistence and similarity search.
// The store is append-only from the core's perspective: insights are written
// once and removed only by the explicit delete operations.
type InsightStore interface {
	// Store appends an insight record
	Store(ctx context.Context, insight *domain.Insight) error

	// GetBySourcePath retrieves all insights recorded for a source path
	GetBySourcePath(ctx context.Context, sourcePath string) ([]*domain.Insight, error)

	// GetAll retrieves every stored insight
	GetAll(ctx context.Context) ([]*domain.Insight, error)

	// DeleteByPath deletes all insights whose source path starts with the prefix
	DeleteByPath(ctx context.Context, pathPrefix string) error

	// DeleteByPaths deletes insights for multiple path prefixes
	DeleteByPaths(ctx context.Context, pathPrefixes []string) error

	// DeleteByID deletes a single insight
	DeleteByID(ctx context.Context, id string) error

	// ClearAll removes every stored insight
	ClearAll(ctx context.Context) error

	// SimilaritySearch returns insights scored against the query embedding,
	// sorted by descending similarity
	SimilaritySearch(ctx context.Context, embedding []float32, opts domain.SimilaritySearchOptions) ([]*domain.ScoredInsight, error)

	// Ping checks if the store backend is healthy
	Ping(ctx context.Context) error

	// Close cleans up resources
	Close() error
}
