package worker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/lorekeep/insight-core/internal/adapters/driven/queue/channel"
	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven/mocks"
	"github.com/lorekeep/insight-core/internal/runtime"
)

type workerFixture struct {
	worker   *Worker
	queue    *channel.Queue
	store    *mocks.MockInsightStore
	embedder *mocks.MockEmbeddingService
}

func setupWorker(t *testing.T, withEmbedder bool) *workerFixture {
	t.Helper()

	queue := channel.NewQueue(16)
	store := mocks.NewMockInsightStore()

	services := runtime.NewServices(&domain.RuntimeConfig{})
	var embedder *mocks.MockEmbeddingService
	if withEmbedder {
		embedder = mocks.NewMockEmbeddingService()
		services.SetEmbeddingService(embedder)
	}

	w := New(Config{
		Queue:          queue,
		Store:          store,
		Services:       services,
		Logger:         slog.New(slog.DiscardHandler),
		Concurrency:    2,
		DequeueTimeout: 1,
	})

	return &workerFixture{worker: w, queue: queue, store: store, embedder: embedder}
}

func enqueueInsight(t *testing.T, f *workerFixture, text string) *domain.Insight {
	t.Helper()
	insight := domain.NewInsight(domain.KindSimpleSummary, domain.SourceTypeDocument,
		"notes/a.md", 1000, text)
	if err := f.queue.Enqueue(context.Background(), domain.NewPersistTask(insight)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return insight
}

func drain(t *testing.T, f *workerFixture) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.queue.Drain(ctx); err != nil {
		t.Fatalf("queue did not drain: %v", err)
	}
}

func TestWorker_PersistsWithEmbedding(t *testing.T) {
	f := setupWorker(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.worker.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.worker.Stop()

	enqueueInsight(t, f, "a concise summary")
	drain(t, f)

	stored, err := f.store.GetBySourcePath(ctx, "notes/a.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(stored))
	}
	if len(stored[0].Embedding) == 0 {
		t.Error("expected insight to be embedded before storage")
	}
	if f.embedder.CallCount() != 1 {
		t.Errorf("expected 1 embedding call, got %d", f.embedder.CallCount())
	}
}

func TestWorker_PersistsWithoutEmbedder(t *testing.T) {
	f := setupWorker(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = f.worker.Start(ctx)
	defer f.worker.Stop()

	enqueueInsight(t, f, "no embedder configured")
	drain(t, f)

	stored, _ := f.store.GetBySourcePath(ctx, "notes/a.md")
	if len(stored) != 1 {
		t.Fatalf("expected 1 insight, got %d", len(stored))
	}
	if len(stored[0].Embedding) != 0 {
		t.Error("expected no embedding without an embedder")
	}
}

func TestWorker_EmbeddingFailureStillPersists(t *testing.T) {
	f := setupWorker(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = f.worker.Start(ctx)
	defer f.worker.Stop()

	f.embedder.SetFailNext()
	enqueueInsight(t, f, "embedding will fail")
	drain(t, f)

	stored, _ := f.store.GetBySourcePath(ctx, "notes/a.md")
	if len(stored) != 1 {
		t.Fatalf("expected insight stored despite embedding failure, got %d", len(stored))
	}
	if len(stored[0].Embedding) != 0 {
		t.Error("expected no embedding after failure")
	}
}

func TestWorker_StorageFailureDropsTask(t *testing.T) {
	f := setupWorker(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = f.worker.Start(ctx)
	defer f.worker.Stop()

	f.store.FailNext = true
	enqueueInsight(t, f, "storage will fail")

	// The task must still be acked so Drain completes
	drain(t, f)

	if f.store.StoreCount() != 0 {
		t.Errorf("expected no stored insights, got %d", f.store.StoreCount())
	}
}

func TestWorker_StartIsIdempotent(t *testing.T) {
	f := setupWorker(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_ = f.worker.Start(ctx)
	if err := f.worker.Start(ctx); err != nil {
		t.Errorf("second start should be a no-op, got %v", err)
	}
	f.worker.Stop()

	health := f.worker.Health(context.Background())
	if health.Running {
		t.Error("expected worker not running after stop")
	}
}
