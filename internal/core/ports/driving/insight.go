package driving

import (
	"context"

	"github.com/lorekeep/insight-core/internal/core/domain"
)

// InsightService exposes semantic queries and insight lifecycle operations
type InsightService interface {
	// Query embeds the text and returns the nearest cached insights.
	// Returns an empty list, not an error, when no embedding backend is
	// configured.
	Query(ctx context.Context, text string, opts domain.QueryOptions) ([]*domain.ScoredInsight, error)

	// List returns every stored insight
	List(ctx context.Context) ([]*domain.Insight, error)

	// DeleteByID removes a single insight
	DeleteByID(ctx context.Context, id string) error

	// DeleteBySourcePrefix removes all insights under a source path prefix
	DeleteBySourcePrefix(ctx context.Context, prefix string) error

	// Clear removes every stored insight
	Clear(ctx context.Context) error
}
