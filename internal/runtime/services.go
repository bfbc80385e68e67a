package runtime

import (
	"context"
	"sync"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

// Services holds references to dynamically configurable AI services.
// The completion and embedding services can be swapped at runtime via
// Reconfigure without rebuilding the engine that holds this registry.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic services (can be nil, updated at runtime)
	completionService driven.CompletionService
	embeddingService  driven.EmbeddingService
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// CompletionService returns the current completion service (may be nil)
func (s *Services) CompletionService() driven.CompletionService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completionService
}

// EmbeddingService returns the current embedding service (may be nil)
func (s *Services) EmbeddingService() driven.EmbeddingService {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.embeddingService
}

// SetCompletionService updates the completion service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetCompletionService(svc driven.CompletionService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completionService != nil {
		_ = s.completionService.Close()
	}

	s.completionService = svc
	s.config.SetCompletionAvailable(svc != nil)
}

// SetEmbeddingService updates the embedding service.
// Closes the old service if present. Updates config flags.
func (s *Services) SetEmbeddingService(svc driven.EmbeddingService) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
	}

	s.embeddingService = svc
	s.config.SetEmbeddingAvailable(svc != nil)
}

// Reconfigure rebuilds only the affected services from new settings.
// A nil factory result disables the corresponding capability.
func (s *Services) Reconfigure(factory driven.AIServiceFactory, settings *domain.AISettings) error {
	if settings == nil {
		return nil
	}

	completion, err := factory.CreateCompletionService(&settings.Completion)
	if err != nil {
		return err
	}
	embedding, err := factory.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		if completion != nil {
			_ = completion.Close()
		}
		return err
	}

	s.SetCompletionService(completion)
	s.SetEmbeddingService(embedding)
	return nil
}

// HealthCheck pings the configured services
func (s *Services) HealthCheck(ctx context.Context) error {
	s.mu.RLock()
	completion := s.completionService
	embedding := s.embeddingService
	s.mu.RUnlock()

	if completion != nil {
		if err := completion.Ping(ctx); err != nil {
			return err
		}
	}
	if embedding != nil {
		if err := embedding.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completionService != nil {
		_ = s.completionService.Close()
		s.completionService = nil
	}
	if s.embeddingService != nil {
		_ = s.embeddingService.Close()
		s.embeddingService = nil
	}
	s.config.SetCompletionAvailable(false)
	s.config.SetEmbeddingAvailable(false)
	return nil
}
