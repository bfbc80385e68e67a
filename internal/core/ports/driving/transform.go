package driving

import (
	"context"

	"github.com/lorekeep/insight-core/internal/core/domain"
)

// TransformService is the single entry point for transformations
type TransformService interface {
	// Transform runs one transformation against a source reference.
	// Resolution, validation and model errors are returned as typed domain
	// errors; cache and persistence failures never surface here.
	Transform(ctx context.Context, ref domain.SourceRef, kind domain.TransformKind, opts domain.TransformOptions) (*domain.TransformResult, error)

	// TransformBatch runs all kinds concurrently against one source and
	// returns a complete map even when individual kinds fail.
	TransformBatch(ctx context.Context, ref domain.SourceRef, kinds []domain.TransformKind, opts domain.TransformOptions) map[domain.TransformKind]*domain.BatchEntry

	// ListKinds returns the available transformation kinds for discovery
	ListKinds() []domain.KindInfo
}
