package domain

import "sync"

// RuntimeConfig tracks which services are available at runtime.
// This is determined at startup and can be updated dynamically when AI
// services are reconfigured. Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	QueueBackend string // "redis" or "channel"

	// Dynamic capability flags (updated when AI services change)
	completionAvailable bool
	embeddingAvailable  bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(queueBackend string) *RuntimeConfig {
	return &RuntimeConfig{
		QueueBackend: queueBackend,
	}
}

// CompletionAvailable returns whether a completion service is available
func (c *RuntimeConfig) CompletionAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.completionAvailable
}

// EmbeddingAvailable returns whether an embedding service is available
func (c *RuntimeConfig) EmbeddingAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.embeddingAvailable
}

// SetCompletionAvailable updates the completion availability flag
func (c *RuntimeConfig) SetCompletionAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completionAvailable = available
}

// SetEmbeddingAvailable updates the embedding availability flag
func (c *RuntimeConfig) SetEmbeddingAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.embeddingAvailable = available
}

// CanTransform returns true if transformations can run at all
func (c *RuntimeConfig) CanTransform() bool {
	return c.CompletionAvailable()
}

// CanDoSemanticQuery returns true if similarity queries are possible.
// Without an embedding backend, querying soft-fails to empty results.
func (c *RuntimeConfig) CanDoSemanticQuery() bool {
	return c.EmbeddingAvailable()
}
