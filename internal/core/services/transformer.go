package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lorekeep/insight-core/internal/content"
	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
	"github.com/lorekeep/insight-core/internal/core/ports/driving"
	"github.com/lorekeep/insight-core/internal/limiter"
	"github.com/lorekeep/insight-core/internal/runtime"
	"github.com/lorekeep/insight-core/internal/transforms"
)

// Ensure Engine implements TransformService
var _ driving.TransformService = (*Engine)(nil)

// Engine is the single entry point for transformations.
// It orchestrates resolve → cache check → content acquisition → validation →
// truncation → model invocation → post-processing → background persistence.
// Folder and collection sources delegate acquisition to the aggregator,
// which re-enters the engine for per-file work under the shared limiter.
type Engine struct {
	registry   *transforms.Registry
	processor  *content.Processor
	files      driven.FileStore
	cache      *CacheGateway
	services   *runtime.Services
	aggregator *Aggregator
	logger     *slog.Logger
}

// EngineConfig holds dependencies for the Engine
type EngineConfig struct {
	Registry  *transforms.Registry
	Processor *content.Processor
	Files     driven.FileStore
	Cache     *CacheGateway
	Services  *runtime.Services
	Limiter   *limiter.Limiter
	Logger    *slog.Logger
}

// NewEngine creates a transformation engine.
// Collaborators are fixed at construction; AI services are resolved through
// the runtime registry so they can be reconfigured without rebuilding the
// engine.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	lim := cfg.Limiter
	if lim == nil {
		lim = limiter.New(limiter.DefaultMaxConcurrency)
	}

	e := &Engine{
		registry:  cfg.Registry,
		processor: cfg.Processor,
		files:     cfg.Files,
		cache:     cfg.Cache,
		services:  cfg.Services,
		logger:    logger.With("component", "engine"),
	}
	e.aggregator = NewAggregator(e, cfg.Files, lim, logger)
	return e
}

// Aggregator exposes the engine's tree aggregator
func (e *Engine) Aggregator() *Aggregator {
	return e.aggregator
}

// ListKinds returns the available transformation kinds for discovery
func (e *Engine) ListKinds() []domain.KindInfo {
	return e.registry.ListAvailable()
}

// Transform runs one transformation against a source reference.
// On model failure the returned result still carries truncation and token
// metadata for diagnostics; callers must check the error first.
func (e *Engine) Transform(ctx context.Context, ref domain.SourceRef, kind domain.TransformKind, opts domain.TransformOptions) (*domain.TransformResult, error) {
	start := time.Now()

	// Resolve
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	def, err := e.registry.Get(kind)
	if err != nil {
		return nil, err
	}

	// Identity. Documents key on their modification time; aggregates are
	// stamped "now" each call and so never hit the cache across runs.
	modTime, err := e.resolveIdentity(ctx, ref)
	if err != nil {
		return nil, err
	}

	// Cache check
	if cached := e.cache.Lookup(ctx, ref.Locator, modTime, kind); cached != nil {
		e.logger.Debug("cache hit",
			"source", ref.Locator,
			"kind", kind,
		)
		return &domain.TransformResult{
			Kind:     kind,
			Text:     cached.Text,
			CacheHit: true,
			Took:     time.Since(start),
		}, nil
	}

	// Content acquisition
	raw, err := e.acquireContent(ctx, ref)
	if err != nil {
		return nil, err
	}

	// Validate
	if err := e.processor.Validate(raw); err != nil {
		return nil, err
	}

	// Truncate
	budget := def.MaxContentTokens
	if opts.MaxContentTokens > 0 {
		budget = opts.MaxContentTokens
	}
	processed := e.processor.Process(raw, budget)

	result := &domain.TransformResult{
		Kind:            kind,
		Truncated:       processed.Truncated,
		OriginalTokens:  processed.OriginalTokens,
		ProcessedTokens: processed.ProcessedTokens,
	}

	// Invoke
	output, err := e.invoke(ctx, opts.Model, def, processed.Text)
	if err != nil {
		result.Took = time.Since(start)
		return result, err
	}

	// Post-process
	result.Text = postProcess(kind, output)
	result.Took = time.Since(start)

	// Persist, off the critical path
	if opts.Persist {
		insight := domain.NewInsight(kind, ref.SourceType(), ref.Locator, modTime, result.Text)
		e.cache.StoreAsync(ctx, insight)
	}

	return result, nil
}

// TransformBatch runs all kinds concurrently against one source.
// Fan-out is unbounded here; only tree aggregation shares the limiter.
// The returned map is complete even when individual kinds fail.
func (e *Engine) TransformBatch(ctx context.Context, ref domain.SourceRef, kinds []domain.TransformKind, opts domain.TransformOptions) map[domain.TransformKind]*domain.BatchEntry {
	var mu sync.Mutex
	var wg sync.WaitGroup
	entries := make(map[domain.TransformKind]*domain.BatchEntry, len(kinds))

	for _, kind := range kinds {
		wg.Add(1)
		go func(kind domain.TransformKind) {
			defer wg.Done()

			result, err := e.Transform(ctx, ref, kind, opts)
			entry := &domain.BatchEntry{Kind: kind, Result: result}
			if err != nil {
				entry.Success = false
				entry.Error = err.Error()
			} else {
				entry.Success = true
			}

			mu.Lock()
			entries[kind] = entry
			mu.Unlock()
		}(kind)
	}

	wg.Wait()
	return entries
}

// resolveIdentity determines the cache identity stamp for a source
func (e *Engine) resolveIdentity(ctx context.Context, ref domain.SourceRef) (int64, error) {
	switch ref.Kind {
	case domain.SourceKindDocument:
		exists, err := e.files.Exists(ctx, ref.Locator)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, ref.Locator)
		}
		if !exists {
			return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, ref.Locator)
		}
		modTime, err := e.files.ModTime(ctx, ref.Locator)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, ref.Locator)
		}
		return modTime, nil

	case domain.SourceKindFolder, domain.SourceKindCollection:
		return time.Now().UnixMilli(), nil

	default:
		return 0, fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, ref.Kind)
	}
}

// acquireContent fetches the text to transform for each source kind
func (e *Engine) acquireContent(ctx context.Context, ref domain.SourceRef) (string, error) {
	switch ref.Kind {
	case domain.SourceKindDocument:
		text, err := e.files.Read(ctx, ref.Locator)
		if err != nil {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, ref.Locator)
		}
		return text, nil

	case domain.SourceKindFolder:
		return e.aggregator.ComposeFolder(ctx, ref.Locator)

	case domain.SourceKindCollection:
		return e.aggregator.ComposeCollection(ctx, ref.Spec)

	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedSource, ref.Kind)
	}
}

// invoke builds the two-message request and accumulates the streamed
// completion. All failures surface as ErrModelCallFailed.
func (e *Engine) invoke(ctx context.Context, model string, def domain.Definition, input string) (string, error) {
	completion := e.services.CompletionService()
	if completion == nil {
		return "", fmt.Errorf("%w: no completion service configured", domain.ErrModelCallFailed)
	}

	messages := []driven.Message{
		{Role: driven.RoleSystem, Content: def.PromptTemplate},
		{Role: driven.RoleUser, Content: input},
	}

	stream, err := completion.StreamComplete(ctx, model, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrModelCallFailed, err)
	}

	output, err := driven.Accumulate(stream)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrModelCallFailed, err)
	}
	return output, nil
}
