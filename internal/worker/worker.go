// Package worker drains the persistence queue in the background.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
	"github.com/lorekeep/insight-core/internal/runtime"
)

// Worker consumes persist tasks off the queue, embeds the insight text when
// an embedding service is available, and writes the insight to the store.
// Persistence is fire-and-forget from the caller's side: a failed task is
// logged and dropped, never retried and never surfaced to the transform
// that enqueued it.
type Worker struct {
	queue    driven.PersistQueue
	store    driven.InsightStore
	services *runtime.Services
	logger   *slog.Logger

	concurrency    int
	dequeueTimeout int // seconds

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config holds configuration for the worker.
type Config struct {
	Queue          driven.PersistQueue
	Store          driven.InsightStore
	Services       *runtime.Services
	Logger         *slog.Logger
	Concurrency    int // Number of concurrent task processors
	DequeueTimeout int // Seconds to wait for a task before checking again
}

// New creates a persistence worker.
func New(cfg Config) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	dequeueTimeout := cfg.DequeueTimeout
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5
	}

	return &Worker{
		queue:          cfg.Queue,
		store:          cfg.Store,
		services:       cfg.Services,
		logger:         logger.With("component", "persist_worker"),
		concurrency:    concurrency,
		dequeueTimeout: dequeueTimeout,
	}
}

// Start begins the worker loop.
// It runs until Stop is called or the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("worker starting",
		"concurrency", w.concurrency,
		"dequeue_timeout", w.dequeueTimeout,
	)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			w.processLoop(ctx, workerID)
		}(i)
	}

	go func() {
		wg.Wait()
		close(w.doneCh)
	}()

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("worker stopped")
}

// Wait blocks until the worker stops.
func (w *Worker) Wait() {
	<-w.doneCh
}

// processLoop is the main processing loop for a worker goroutine.
func (w *Worker) processLoop(ctx context.Context, workerID int) {
	logger := w.logger.With("worker_id", workerID)
	logger.Debug("worker goroutine started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker context cancelled")
			return
		case <-w.stopCh:
			logger.Debug("worker stop signal received")
			return
		default:
		}

		task, err := w.queue.DequeueWithTimeout(ctx, w.dequeueTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			logger.Error("failed to dequeue task", "error", err)
			time.Sleep(time.Second) // Back off on error
			continue
		}

		if task == nil {
			// No task available, continue
			continue
		}

		w.processTask(ctx, task, logger)
	}
}

// processTask persists a single insight. The task is acked regardless of
// outcome so a bad record cannot wedge the queue.
func (w *Worker) processTask(ctx context.Context, task *domain.PersistTask, logger *slog.Logger) {
	insight := task.Insight
	if insight == nil {
		logger.Warn("dropping task with no insight", "task_id", task.ID)
		w.ack(ctx, task.ID, logger)
		return
	}

	logger = logger.With("task_id", task.ID, "source_path", insight.SourcePath, "kind", insight.Kind)
	startTime := time.Now()

	if embedder := w.services.EmbeddingService(); embedder != nil && len(insight.Embedding) == 0 {
		vec, err := embedder.EmbedQuery(ctx, insight.Text)
		if err != nil {
			// Stored without an embedding; invisible to semantic queries
			// but still served from the cache.
			logger.Warn("failed to embed insight", "error", err)
		} else {
			insight.Embedding = vec
		}
	}

	if err := w.store.Store(ctx, insight); err != nil {
		logger.Error("failed to store insight", "duration", time.Since(startTime), "error", err)
		w.ack(ctx, task.ID, logger)
		return
	}

	logger.Debug("insight persisted", "duration", time.Since(startTime))
	w.ack(ctx, task.ID, logger)
}

func (w *Worker) ack(ctx context.Context, taskID string, logger *slog.Logger) {
	if err := w.queue.Ack(ctx, taskID); err != nil {
		logger.Error("failed to ack task", "error", err)
	}
}

// Health reports the runtime state of the worker and its queue.
type Health struct {
	Running     bool   `json:"running"`
	QueueHealth bool   `json:"queue_health"`
	Error       string `json:"error,omitempty"`
}

// Health returns the health status of the worker.
func (w *Worker) Health(ctx context.Context) Health {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()

	health := Health{
		Running: running,
	}

	if err := w.queue.Ping(ctx); err != nil {
		health.QueueHealth = false
		health.Error = err.Error()
	} else {
		health.QueueHealth = true
	}

	return health
}
