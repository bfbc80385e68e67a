package runtime

import (
	"testing"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven/mocks"
)

func TestServices_SetCompletionService(t *testing.T) {
	config := domain.NewRuntimeConfig("channel")
	services := NewServices(config)

	if services.CompletionService() != nil {
		t.Error("expected nil completion service initially")
	}
	if config.CompletionAvailable() {
		t.Error("expected completion unavailable initially")
	}

	services.SetCompletionService(mocks.NewMockCompletionService("ok"))

	if services.CompletionService() == nil {
		t.Error("expected completion service after set")
	}
	if !config.CompletionAvailable() {
		t.Error("expected capability flag to follow the service")
	}

	services.SetCompletionService(nil)
	if config.CompletionAvailable() {
		t.Error("expected capability flag cleared with nil service")
	}
}

func TestServices_SetEmbeddingService(t *testing.T) {
	config := domain.NewRuntimeConfig("channel")
	services := NewServices(config)

	services.SetEmbeddingService(mocks.NewMockEmbeddingService())

	if services.EmbeddingService() == nil {
		t.Error("expected embedding service after set")
	}
	if !config.EmbeddingAvailable() {
		t.Error("expected capability flag to follow the service")
	}
}

func TestServices_Close(t *testing.T) {
	config := domain.NewRuntimeConfig("channel")
	services := NewServices(config)
	services.SetCompletionService(mocks.NewMockCompletionService("ok"))
	services.SetEmbeddingService(mocks.NewMockEmbeddingService())

	if err := services.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if services.CompletionService() != nil || services.EmbeddingService() != nil {
		t.Error("expected services cleared after close")
	}
	if config.CompletionAvailable() || config.EmbeddingAvailable() {
		t.Error("expected capability flags cleared after close")
	}
}
