package driven

import (
	"github.com/lorekeep/insight-core/internal/core/domain"
)

// AIServiceFactory creates AI services from settings.
// Returns nil (no error) when settings are absent or incomplete, so callers
// can run with a capability disabled.
type AIServiceFactory interface {
	// CreateCompletionService builds a completion service, or nil if unconfigured
	CreateCompletionService(settings *domain.CompletionSettings) (CompletionService, error)

	// CreateEmbeddingService builds an embedding service, or nil if unconfigured
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)
}
