package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
	"github.com/lorekeep/insight-core/internal/limiter"
)

// ChildSummary is one child's contribution to a folder summary.
// Empty entries are omissions (an empty subfolder), failed entries become
// explicit placeholder sections rather than failing the whole folder.
type ChildSummary struct {
	Name   string
	Text   string
	Empty  bool
	Failed bool
	Reason string
}

// Aggregator summarizes folder trees bottom-up.
// Direct files are summarized through the engine's cached per-file path,
// direct subfolders through recursion; model-facing work for all siblings is
// bounded by the shared limiter. Composition of gathered child summaries is
// a pure function, kept separate from the walking and scheduling.
type Aggregator struct {
	engine  *Engine
	files   driven.FileStore
	limiter *limiter.Limiter
	logger  *slog.Logger
}

// NewAggregator creates a tree aggregator bound to an engine
func NewAggregator(engine *Engine, files driven.FileStore, lim *limiter.Limiter, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		engine:  engine,
		files:   files,
		limiter: lim,
		logger:  logger.With("component", "aggregator"),
	}
}

// SummarizeTree recursively summarizes a folder bottom-up and returns the
// combined summary. Empty folders yield ErrNoContent, which parents treat as
// an omission. The combine result is persisted as a folder-typed insight
// stamped with the current time; no stable folder identity is tracked, so
// repeated runs recompute.
func (a *Aggregator) SummarizeTree(ctx context.Context, folderPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAborted, err)
	}

	children, err := a.collectChildren(ctx, folderPath)
	if err != nil {
		return "", err
	}

	composed := ComposeSections(children)
	if composed == "" {
		return "", domain.ErrNoContent
	}

	return a.combine(ctx, folderPath, composed)
}

// ComposeFolder is the flat one-level acquisition mode used by the engine
// for folder sources: child summaries are gathered the same way, but the
// concatenation is returned for the caller's own transformation instead of
// going through the combine template.
func (a *Aggregator) ComposeFolder(ctx context.Context, folderPath string) (string, error) {
	children, err := a.collectChildren(ctx, folderPath)
	if err != nil {
		return "", err
	}
	return ComposeSections(children), nil
}

// ComposeCollection resolves a named collection's folder and tag members and
// concatenates their summaries under labeled sections
func (a *Aggregator) ComposeCollection(ctx context.Context, spec *domain.CollectionSpec) (string, error) {
	members, err := a.resolveMembers(ctx, spec)
	if err != nil {
		return "", err
	}
	if len(members) == 0 {
		return "", nil
	}

	children := make([]ChildSummary, len(members))
	var wg sync.WaitGroup
	for i, path := range members {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			children[i] = a.summarizeFile(ctx, path)
		}(i, path)
	}
	wg.Wait()

	return ComposeSections(children), nil
}

// collectChildren gathers summaries for a folder's direct children: files
// through the cached per-file transformation, subfolders through recursion.
// Returns after every scheduled child resolved (parent-after-children).
func (a *Aggregator) collectChildren(ctx context.Context, folderPath string) ([]ChildSummary, error) {
	listing, err := a.files.ListDirectChildren(ctx, folderPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, folderPath)
	}

	// Files first, then subfolders
	children := make([]ChildSummary, len(listing.Files)+len(listing.Subfolders))
	var wg sync.WaitGroup

	for i, path := range listing.Files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			children[i] = a.summarizeFile(ctx, path)
		}(i, path)
	}

	for i, path := range listing.Subfolders {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			children[i] = a.summarizeSubfolder(ctx, path)
		}(len(listing.Files)+i, path)
	}

	wg.Wait()
	return children, nil
}

// summarizeFile runs the lightweight cached per-file transformation under
// the shared limiter
func (a *Aggregator) summarizeFile(ctx context.Context, path string) ChildSummary {
	summary := ChildSummary{Name: baseName(path)}

	err := a.limiter.Do(ctx, func(ctx context.Context) error {
		result, err := a.engine.Transform(ctx, domain.DocumentRef(path),
			domain.KindConciseDenseSummary, domain.TransformOptions{Persist: true})
		if err != nil {
			return err
		}
		summary.Text = result.Text
		return nil
	})
	if err != nil {
		a.fillFailure(&summary, path, err)
	}
	return summary
}

// summarizeSubfolder recurses into a subfolder. Cancellation is observed at
// the task boundary; the recursion itself holds no limiter slot (its leaf
// work does), so deep trees cannot exhaust the limiter against themselves.
func (a *Aggregator) summarizeSubfolder(ctx context.Context, path string) ChildSummary {
	summary := ChildSummary{Name: baseName(path)}

	text, err := a.SummarizeTree(ctx, path)
	if err != nil {
		if errors.Is(err, domain.ErrNoContent) {
			summary.Empty = true
			return summary
		}
		a.fillFailure(&summary, path, err)
		return summary
	}
	summary.Text = text
	return summary
}

// combine runs the second-order combine transformation over the composed
// child sections, bounded by the limiter, and persists the result
func (a *Aggregator) combine(ctx context.Context, folderPath, composed string) (string, error) {
	def, err := a.engine.registry.Get(domain.KindFolderCombine)
	if err != nil {
		return "", err
	}

	var output string
	err = a.limiter.Do(ctx, func(ctx context.Context) error {
		processed := a.engine.processor.Process(composed, def.MaxContentTokens)
		raw, err := a.engine.invoke(ctx, "", def, processed.Text)
		if err != nil {
			return err
		}
		output = postProcess(domain.KindHierarchicalSummary, raw)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrAborted, ctxErr)
		}
		return "", err
	}

	insight := domain.NewInsight(domain.KindHierarchicalSummary, domain.SourceTypeFolder,
		folderPath, time.Now().UnixMilli(), output)
	a.engine.cache.StoreAsync(ctx, insight)

	return output, nil
}

// resolveMembers expands a collection spec into the set of member files
func (a *Aggregator) resolveMembers(ctx context.Context, spec *domain.CollectionSpec) ([]string, error) {
	seen := make(map[string]bool)

	for _, folder := range spec.Folders {
		files, err := a.files.ListFilesUnderPrefix(ctx, folder)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, folder)
		}
		for _, f := range files {
			seen[f] = true
		}
	}

	if len(spec.Tags) > 0 {
		all, err := a.files.ListFilesUnderPrefix(ctx, "")
		if err != nil {
			return nil, err
		}
		wanted := make(map[string]bool, len(spec.Tags))
		for _, t := range spec.Tags {
			wanted[t] = true
		}
		for _, f := range all {
			if seen[f] {
				continue
			}
			tags, err := a.files.TagsForFile(ctx, f)
			if err != nil {
				continue
			}
			for _, t := range tags {
				if wanted[t] {
					seen[f] = true
					break
				}
			}
		}
	}

	members := make([]string, 0, len(seen))
	for f := range seen {
		members = append(members, f)
	}
	sort.Strings(members)
	return members, nil
}

// fillFailure records a child failure as placeholder material
func (a *Aggregator) fillFailure(summary *ChildSummary, path string, err error) {
	if ctxErr := contextCause(err); ctxErr != nil {
		err = fmt.Errorf("%w: %v", domain.ErrAborted, ctxErr)
	}
	summary.Failed = true
	summary.Reason = err.Error()
	a.logger.Warn("child summary failed",
		"path", path,
		"error", err,
	)
}

// contextCause returns the underlying context error, if any
func contextCause(err error) error {
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	return nil
}

// ComposeSections concatenates child summaries into labeled markdown
// sections: files first, then subfolders, each under its own name. Empty
// children are omitted; failed children become explicit placeholders.
// Pure function, unit-testable without a filesystem.
func ComposeSections(children []ChildSummary) string {
	var sections []string
	for _, child := range children {
		switch {
		case child.Empty:
			continue
		case child.Failed:
			sections = append(sections,
				"## "+child.Name+"\n\n_summary failed: "+child.Reason+"_")
		case strings.TrimSpace(child.Text) == "":
			continue
		default:
			sections = append(sections, "## "+child.Name+"\n\n"+child.Text)
		}
	}
	return strings.Join(sections, "\n\n")
}

func baseName(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
