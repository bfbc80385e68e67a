package mocks

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/lorekeep/insight-core/internal/core/domain"
)

// MockInsightStore is an in-memory implementation of InsightStore for testing
type MockInsightStore struct {
	mu       sync.RWMutex
	insights []*domain.Insight

	// FailNext makes the next store operation fail with ErrStorageUnavailable
	FailNext bool

	stores  int
	lookups int
}

// NewMockInsightStore creates an empty MockInsightStore
func NewMockInsightStore() *MockInsightStore {
	return &MockInsightStore{}
}

func (m *MockInsightStore) Store(ctx context.Context, insight *domain.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return domain.ErrStorageUnavailable
	}
	m.stores++
	clone := *insight
	m.insights = append(m.insights, &clone)
	return nil
}

func (m *MockInsightStore) GetBySourcePath(ctx context.Context, sourcePath string) ([]*domain.Insight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return nil, domain.ErrStorageUnavailable
	}
	m.lookups++
	var out []*domain.Insight
	for _, in := range m.insights {
		if in.SourcePath == sourcePath {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *MockInsightStore) GetAll(ctx context.Context) ([]*domain.Insight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Insight, len(m.insights))
	copy(out, m.insights)
	return out, nil
}

func (m *MockInsightStore) DeleteByPath(ctx context.Context, pathPrefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.Insight
	for _, in := range m.insights {
		if !strings.HasPrefix(in.SourcePath, pathPrefix) {
			kept = append(kept, in)
		}
	}
	m.insights = kept
	return nil
}

func (m *MockInsightStore) DeleteByPaths(ctx context.Context, pathPrefixes []string) error {
	for _, prefix := range pathPrefixes {
		if err := m.DeleteByPath(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockInsightStore) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, in := range m.insights {
		if in.ID == id {
			m.insights = append(m.insights[:i], m.insights[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockInsightStore) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insights = nil
	return nil
}

func (m *MockInsightStore) SimilaritySearch(ctx context.Context, embedding []float32, opts domain.SimilaritySearchOptions) ([]*domain.ScoredInsight, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	allowed := make(map[string]bool, len(opts.SourcePaths))
	for _, p := range opts.SourcePaths {
		allowed[p] = true
	}
	kinds := make(map[domain.TransformKind]bool, len(opts.Kinds))
	for _, k := range opts.Kinds {
		kinds[k] = true
	}

	var scored []*domain.ScoredInsight
	for _, in := range m.insights {
		if len(in.Embedding) == 0 {
			continue
		}
		if len(allowed) > 0 && !allowed[in.SourcePath] {
			continue
		}
		if len(kinds) > 0 && !kinds[in.Kind] {
			continue
		}
		sim := Cosine(embedding, in.Embedding)
		if sim < opts.MinSimilarity {
			continue
		}
		scored = append(scored, &domain.ScoredInsight{Insight: in, Similarity: sim})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if opts.Limit > 0 && len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}
	return scored, nil
}

func (m *MockInsightStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MockInsightStore) Close() error {
	return nil
}

// StoreCount returns how many insights were stored
func (m *MockInsightStore) StoreCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stores
}

// Cosine computes cosine similarity between two vectors
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
