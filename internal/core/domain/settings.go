package domain

import "time"

// AIProvider identifies the AI/embedding provider
type AIProvider string

const (
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderOllama    AIProvider = "ollama"
)

// AISettings holds AI service configuration (completion and embedding).
// This can be updated at runtime via Reconfigure.
type AISettings struct {
	Completion CompletionSettings `json:"completion"`
	Embedding  EmbeddingSettings  `json:"embedding"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// CompletionSettings configures the text completion service
type CompletionSettings struct {
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	APIKey   string     `json:"-"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty"`
}

// IsConfigured returns true if enough is set to construct a service
func (s *CompletionSettings) IsConfigured() bool {
	if s.Provider == "" {
		return false
	}
	if s.Provider == AIProviderOllama {
		return true // local, no key required
	}
	return s.APIKey != ""
}

// EmbeddingSettings configures the embedding service
type EmbeddingSettings struct {
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	APIKey   string     `json:"-"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty"`
}

// IsConfigured returns true if enough is set to construct a service
func (s *EmbeddingSettings) IsConfigured() bool {
	if s.Provider == "" {
		return false
	}
	if s.Provider == AIProviderOllama {
		return true
	}
	return s.APIKey != ""
}
