package services

import (
	"context"
	"log/slog"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

// CacheGateway wraps the insight store as a best-effort cache.
// Lookups degrade to a miss on any store failure and writes travel through
// the persist queue, so caching is never a correctness dependency of the
// transformation path.
type CacheGateway struct {
	store  driven.InsightStore
	queue  driven.PersistQueue
	logger *slog.Logger
}

// NewCacheGateway creates a cache gateway
func NewCacheGateway(store driven.InsightStore, queue driven.PersistQueue, logger *slog.Logger) *CacheGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheGateway{
		store:  store,
		queue:  queue,
		logger: logger.With("component", "cache"),
	}
}

// Lookup returns the cached insight for (sourcePath, modTime, kind), or nil
// on a miss. Store unavailability is logged and reported as a miss.
func (g *CacheGateway) Lookup(ctx context.Context, sourcePath string, modTime int64, kind domain.TransformKind) *domain.Insight {
	if g.store == nil {
		return nil
	}

	insights, err := g.store.GetBySourcePath(ctx, sourcePath)
	if err != nil {
		g.logger.Warn("cache lookup failed, treating as miss",
			"source_path", sourcePath,
			"kind", kind,
			"error", err,
		)
		return nil
	}

	for _, insight := range insights {
		if insight.Kind == kind && insight.SourceModTime == modTime {
			return insight
		}
	}
	return nil
}

// StoreAsync enqueues an insight for background persistence.
// Fire-and-forget: failures are logged and swallowed, and the caller's
// result never depends on the write completing.
func (g *CacheGateway) StoreAsync(ctx context.Context, insight *domain.Insight) {
	if g.queue == nil {
		return
	}

	task := domain.NewPersistTask(insight)
	if err := g.queue.Enqueue(ctx, task); err != nil {
		g.logger.Warn("failed to enqueue insight for persistence",
			"source_path", insight.SourcePath,
			"kind", insight.Kind,
			"error", err,
		)
	}
}
