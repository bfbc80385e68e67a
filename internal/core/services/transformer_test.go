package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/lorekeep/insight-core/internal/adapters/driven/queue/channel"
	"github.com/lorekeep/insight-core/internal/content"
	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven/mocks"
	"github.com/lorekeep/insight-core/internal/limiter"
	"github.com/lorekeep/insight-core/internal/runtime"
	"github.com/lorekeep/insight-core/internal/transforms"
)

// longText fills a file comfortably past the minimum content length
func longText(topic string) string {
	return strings.Repeat("This is a sentence about "+topic+". ", 12)
}

type engineFixture struct {
	engine     *Engine
	files      *mocks.MockFileStore
	store      *mocks.MockInsightStore
	queue      *channel.Queue
	completion *mocks.MockCompletionService
	services   *runtime.Services
}

func setupEngine(t *testing.T) *engineFixture {
	t.Helper()

	files := mocks.NewMockFileStore()
	store := mocks.NewMockInsightStore()
	queue := channel.NewQueue(64)
	completion := mocks.NewMockCompletionService("generated summary")

	services := runtime.NewServices(&domain.RuntimeConfig{})
	services.SetCompletionService(completion)

	logger := slog.New(slog.DiscardHandler)
	engine := NewEngine(EngineConfig{
		Registry:  transforms.NewRegistry(),
		Processor: content.NewProcessor(mocks.NewMockTokenizer()),
		Files:     files,
		Cache:     NewCacheGateway(store, queue, logger),
		Services:  services,
		Limiter:   limiter.New(2),
		Logger:    logger,
	})

	return &engineFixture{
		engine:     engine,
		files:      files,
		store:      store,
		queue:      queue,
		completion: completion,
		services:   services,
	}
}

func TestEngine_TransformDocument(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/a.md", longText("gardening"), 1000)

	result, err := f.engine.Transform(context.Background(), domain.DocumentRef("notes/a.md"),
		domain.KindSimpleSummary, domain.TransformOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Text != "generated summary" {
		t.Errorf("unexpected result text %q", result.Text)
	}
	if result.CacheHit {
		t.Error("expected a fresh run, not a cache hit")
	}
	if result.OriginalTokens == 0 || result.ProcessedTokens == 0 {
		t.Error("expected token metadata on result")
	}
	if f.completion.CallCount() != 1 {
		t.Errorf("expected 1 model call, got %d", f.completion.CallCount())
	}
}

func TestEngine_TransformNotFound(t *testing.T) {
	f := setupEngine(t)

	_, err := f.engine.Transform(context.Background(), domain.DocumentRef("missing.md"),
		domain.KindSimpleSummary, domain.TransformOptions{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestEngine_TransformUnsupportedKind(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/a.md", longText("gardening"), 1000)

	_, err := f.engine.Transform(context.Background(), domain.DocumentRef("notes/a.md"),
		"mind-reading", domain.TransformOptions{})
	if !errors.Is(err, domain.ErrUnsupportedKind) {
		t.Errorf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestEngine_TransformShortContent(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/stub.md", "too short", 1000)

	_, err := f.engine.Transform(context.Background(), domain.DocumentRef("notes/stub.md"),
		domain.KindSimpleSummary, domain.TransformOptions{})
	if !errors.Is(err, domain.ErrContentTooShort) {
		t.Errorf("expected ErrContentTooShort, got %v", err)
	}
	if f.completion.CallCount() != 0 {
		t.Errorf("expected no model calls, got %d", f.completion.CallCount())
	}
}

func TestEngine_CacheHitSkipsModel(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/a.md", longText("gardening"), 1000)

	cached := domain.NewInsight(domain.KindSimpleSummary, domain.SourceTypeDocument,
		"notes/a.md", 1000, "cached summary")
	if err := f.store.Store(context.Background(), cached); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := f.engine.Transform(context.Background(), domain.DocumentRef("notes/a.md"),
		domain.KindSimpleSummary, domain.TransformOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.CacheHit {
		t.Error("expected a cache hit")
	}
	if result.Text != "cached summary" {
		t.Errorf("expected cached text, got %q", result.Text)
	}
	if f.completion.CallCount() != 0 {
		t.Errorf("expected no model calls on cache hit, got %d", f.completion.CallCount())
	}
}

func TestEngine_ModifiedFileMissesCache(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/a.md", longText("gardening"), 1000)

	cached := domain.NewInsight(domain.KindSimpleSummary, domain.SourceTypeDocument,
		"notes/a.md", 1000, "cached summary")
	_ = f.store.Store(context.Background(), cached)

	// Source changed since the insight was generated
	f.files.SetModTime("notes/a.md", 2000)

	result, err := f.engine.Transform(context.Background(), domain.DocumentRef("notes/a.md"),
		domain.KindSimpleSummary, domain.TransformOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.CacheHit {
		t.Error("expected a miss after modification")
	}
	if f.completion.CallCount() != 1 {
		t.Errorf("expected 1 model call, got %d", f.completion.CallCount())
	}
}

func TestEngine_ModelFailureKeepsMetadata(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/a.md", longText("gardening"), 1000)
	f.completion.FailNext = true

	result, err := f.engine.Transform(context.Background(), domain.DocumentRef("notes/a.md"),
		domain.KindSimpleSummary, domain.TransformOptions{})
	if !errors.Is(err, domain.ErrModelCallFailed) {
		t.Fatalf("expected ErrModelCallFailed, got %v", err)
	}

	// Diagnostics survive the failure
	if result == nil {
		t.Fatal("expected a partial result alongside the error")
	}
	if result.OriginalTokens == 0 {
		t.Error("expected token metadata on partial result")
	}
	if result.Text != "" {
		t.Errorf("expected no text on failure, got %q", result.Text)
	}
}

func TestEngine_NoCompletionService(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/a.md", longText("gardening"), 1000)
	f.services.SetCompletionService(nil)

	_, err := f.engine.Transform(context.Background(), domain.DocumentRef("notes/a.md"),
		domain.KindSimpleSummary, domain.TransformOptions{})
	if !errors.Is(err, domain.ErrModelCallFailed) {
		t.Errorf("expected ErrModelCallFailed, got %v", err)
	}
}

func TestEngine_PersistEnqueues(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/a.md", longText("gardening"), 1000)

	_, err := f.engine.Transform(context.Background(), domain.DocumentRef("notes/a.md"),
		domain.KindSimpleSummary, domain.TransformOptions{Persist: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := f.queue.Len(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 queued persist task, got %d", n)
	}
}

func TestEngine_NoPersistByDefault(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/a.md", longText("gardening"), 1000)

	_, err := f.engine.Transform(context.Background(), domain.DocumentRef("notes/a.md"),
		domain.KindSimpleSummary, domain.TransformOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, _ := f.queue.Len(context.Background())
	if n != 0 {
		t.Errorf("expected empty queue, got %d tasks", n)
	}
}

func TestEngine_TransformBatch(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/a.md", longText("gardening"), 1000)

	kinds := []domain.TransformKind{
		domain.KindSimpleSummary,
		domain.KindKeyInsights,
		"mind-reading", // unsupported, must fail in isolation
	}

	entries := f.engine.TransformBatch(context.Background(), domain.DocumentRef("notes/a.md"),
		kinds, domain.TransformOptions{})

	if len(entries) != 3 {
		t.Fatalf("expected a complete map of 3 entries, got %d", len(entries))
	}
	if !entries[domain.KindSimpleSummary].Success {
		t.Errorf("expected simple summary to succeed: %s", entries[domain.KindSimpleSummary].Error)
	}
	if !entries[domain.KindKeyInsights].Success {
		t.Errorf("expected key insights to succeed: %s", entries[domain.KindKeyInsights].Error)
	}
	failed := entries["mind-reading"]
	if failed.Success || failed.Error == "" {
		t.Error("expected unsupported kind to fail with an error message")
	}
}

func TestEngine_ListKinds(t *testing.T) {
	f := setupEngine(t)

	kinds := f.engine.ListKinds()
	if len(kinds) == 0 {
		t.Fatal("expected discoverable kinds")
	}
	for _, info := range kinds {
		if info.Kind == domain.KindFolderCombine {
			t.Error("internal combine kind must not be listed")
		}
	}
}

func TestEngine_BudgetOverrideTruncates(t *testing.T) {
	f := setupEngine(t)
	f.files.AddFile("notes/big.md", longText("a large document"), 1000)

	result, err := f.engine.Transform(context.Background(), domain.DocumentRef("notes/big.md"),
		domain.KindSimpleSummary, domain.TransformOptions{MaxContentTokens: 40})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Truncated {
		t.Error("expected truncation under the tiny budget")
	}
	if result.ProcessedTokens > 40 {
		t.Errorf("processed tokens %d exceed the budget", result.ProcessedTokens)
	}
}
