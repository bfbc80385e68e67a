package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lorekeep/insight-core/internal/core/domain"
)

// Mock services for testing

type mockTransformService struct {
	transformFn func(ctx context.Context, ref domain.SourceRef, kind domain.TransformKind, opts domain.TransformOptions) (*domain.TransformResult, error)
	batchFn     func(ctx context.Context, ref domain.SourceRef, kinds []domain.TransformKind, opts domain.TransformOptions) map[domain.TransformKind]*domain.BatchEntry
	listKindsFn func() []domain.KindInfo
}

func (m *mockTransformService) Transform(ctx context.Context, ref domain.SourceRef, kind domain.TransformKind, opts domain.TransformOptions) (*domain.TransformResult, error) {
	if m.transformFn != nil {
		return m.transformFn(ctx, ref, kind, opts)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTransformService) TransformBatch(ctx context.Context, ref domain.SourceRef, kinds []domain.TransformKind, opts domain.TransformOptions) map[domain.TransformKind]*domain.BatchEntry {
	if m.batchFn != nil {
		return m.batchFn(ctx, ref, kinds, opts)
	}
	return map[domain.TransformKind]*domain.BatchEntry{}
}

func (m *mockTransformService) ListKinds() []domain.KindInfo {
	if m.listKindsFn != nil {
		return m.listKindsFn()
	}
	return nil
}

type mockInsightService struct {
	queryFn        func(ctx context.Context, text string, opts domain.QueryOptions) ([]*domain.ScoredInsight, error)
	listFn         func(ctx context.Context) ([]*domain.Insight, error)
	deleteByIDFn   func(ctx context.Context, id string) error
	deletePrefixFn func(ctx context.Context, prefix string) error
	clearFn        func(ctx context.Context) error
}

func (m *mockInsightService) Query(ctx context.Context, text string, opts domain.QueryOptions) ([]*domain.ScoredInsight, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, text, opts)
	}
	return nil, nil
}

func (m *mockInsightService) List(ctx context.Context) ([]*domain.Insight, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockInsightService) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockInsightService) DeleteBySourcePrefix(ctx context.Context, prefix string) error {
	if m.deletePrefixFn != nil {
		return m.deletePrefixFn(ctx, prefix)
	}
	return nil
}

func (m *mockInsightService) Clear(ctx context.Context) error {
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return nil
}

type okPinger struct{ err error }

func (p okPinger) Ping(ctx context.Context) error { return p.err }

func newTestServer(transform *mockTransformService, insight *mockInsightService) *Server {
	return NewServer(DefaultConfig(), transform, insight, nil, nil, okPinger{}, nil)
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&mockTransformService{}, &mockInsightService{})

	rec := doRequest(s, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandleReady_StoreDown(t *testing.T) {
	s := NewServer(DefaultConfig(), &mockTransformService{}, &mockInsightService{},
		nil, nil, okPinger{err: errors.New("down")}, nil)

	rec := doRequest(s, "GET", "/ready", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestHandleTransform(t *testing.T) {
	transform := &mockTransformService{
		transformFn: func(ctx context.Context, ref domain.SourceRef, kind domain.TransformKind, opts domain.TransformOptions) (*domain.TransformResult, error) {
			if ref.Kind != domain.SourceKindDocument || ref.Locator != "notes/a.md" {
				t.Errorf("unexpected ref %+v", ref)
			}
			return &domain.TransformResult{
				Kind: kind,
				Text: "summary text",
				Took: 42 * time.Millisecond,
			}, nil
		},
	}
	s := newTestServer(transform, &mockInsightService{})

	rec := doRequest(s, "POST", "/api/v1/transform", map[string]any{
		"source": map[string]any{"kind": "document", "path": "notes/a.md"},
		"kind":   "simple-summary",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result domain.TransformResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Text != "summary text" {
		t.Errorf("unexpected result text %q", result.Text)
	}
}

func TestHandleTransform_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"empty content", domain.ErrEmptyContent, http.StatusBadRequest},
		{"unsupported kind", domain.ErrUnsupportedKind, http.StatusBadRequest},
		{"model call failed", domain.ErrModelCallFailed, http.StatusBadGateway},
		{"no completion service", domain.ErrServiceUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transform := &mockTransformService{
				transformFn: func(ctx context.Context, ref domain.SourceRef, kind domain.TransformKind, opts domain.TransformOptions) (*domain.TransformResult, error) {
					return nil, tt.err
				},
			}
			s := newTestServer(transform, &mockInsightService{})

			rec := doRequest(s, "POST", "/api/v1/transform", map[string]any{
				"source": map[string]any{"kind": "document", "path": "notes/a.md"},
				"kind":   "simple-summary",
			})
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestHandleTransform_PartialResultOnModelFailure(t *testing.T) {
	transform := &mockTransformService{
		transformFn: func(ctx context.Context, ref domain.SourceRef, kind domain.TransformKind, opts domain.TransformOptions) (*domain.TransformResult, error) {
			return &domain.TransformResult{
				Kind:            kind,
				Truncated:       true,
				OriginalTokens:  900,
				ProcessedTokens: 400,
			}, domain.ErrModelCallFailed
		},
	}
	s := newTestServer(transform, &mockInsightService{})

	rec := doRequest(s, "POST", "/api/v1/transform", map[string]any{
		"source": map[string]any{"kind": "document", "path": "notes/a.md"},
		"kind":   "simple-summary",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	var body struct {
		Error   string                  `json:"error"`
		Partial *domain.TransformResult `json:"partial"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error == "" {
		t.Error("expected an error message in the body")
	}
	if body.Partial == nil {
		t.Fatal("expected the partial result in the error body")
	}
	if !body.Partial.Truncated || body.Partial.OriginalTokens != 900 || body.Partial.ProcessedTokens != 400 {
		t.Errorf("expected truncation diagnostics, got %+v", body.Partial)
	}
}

func TestHandleTransform_BadSource(t *testing.T) {
	s := newTestServer(&mockTransformService{}, &mockInsightService{})

	rec := doRequest(s, "POST", "/api/v1/transform", map[string]any{
		"source": map[string]any{"kind": "telepathy", "path": "x"},
		"kind":   "simple-summary",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleTransformBatch(t *testing.T) {
	transform := &mockTransformService{
		batchFn: func(ctx context.Context, ref domain.SourceRef, kinds []domain.TransformKind, opts domain.TransformOptions) map[domain.TransformKind]*domain.BatchEntry {
			entries := make(map[domain.TransformKind]*domain.BatchEntry)
			for _, kind := range kinds {
				entries[kind] = &domain.BatchEntry{Kind: kind, Success: true}
			}
			return entries
		},
	}
	s := newTestServer(transform, &mockInsightService{})

	rec := doRequest(s, "POST", "/api/v1/transform/batch", map[string]any{
		"source": map[string]any{"kind": "document", "path": "notes/a.md"},
		"kinds":  []string{"concise-summary", "key-insights"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var entries map[domain.TransformKind]*domain.BatchEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestHandleTransformBatch_RequiresKinds(t *testing.T) {
	s := newTestServer(&mockTransformService{}, &mockInsightService{})

	rec := doRequest(s, "POST", "/api/v1/transform/batch", map[string]any{
		"source": map[string]any{"kind": "document", "path": "notes/a.md"},
		"kinds":  []string{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleQuery(t *testing.T) {
	insight := &mockInsightService{
		queryFn: func(ctx context.Context, text string, opts domain.QueryOptions) ([]*domain.ScoredInsight, error) {
			if text != "meeting notes" {
				t.Errorf("unexpected query text %q", text)
			}
			return []*domain.ScoredInsight{
				{Insight: &domain.Insight{ID: "i1", Text: "a note"}, Similarity: 0.9},
			}, nil
		},
	}
	s := newTestServer(&mockTransformService{}, insight)

	rec := doRequest(s, "POST", "/api/v1/query", map[string]any{
		"text": "meeting notes",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var results []*domain.ScoredInsight
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(results) != 1 || results[0].Insight.ID != "i1" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestHandleQuery_EmptyNotNull(t *testing.T) {
	s := newTestServer(&mockTransformService{}, &mockInsightService{})

	rec := doRequest(s, "POST", "/api/v1/query", map[string]any{"text": "anything"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestHandleQuery_RequiresText(t *testing.T) {
	s := newTestServer(&mockTransformService{}, &mockInsightService{})

	rec := doRequest(s, "POST", "/api/v1/query", map[string]any{"text": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleDeleteInsight(t *testing.T) {
	var gotID string
	insight := &mockInsightService{
		deleteByIDFn: func(ctx context.Context, id string) error {
			gotID = id
			return nil
		},
	}
	s := newTestServer(&mockTransformService{}, insight)

	rec := doRequest(s, "DELETE", "/api/v1/insights/abc-123", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotID != "abc-123" {
		t.Errorf("expected id abc-123, got %q", gotID)
	}
}

func TestHandleDeleteInsightsByPrefix(t *testing.T) {
	var gotPrefix string
	insight := &mockInsightService{
		deletePrefixFn: func(ctx context.Context, prefix string) error {
			gotPrefix = prefix
			return nil
		},
	}
	s := newTestServer(&mockTransformService{}, insight)

	rec := doRequest(s, "DELETE", "/api/v1/insights?prefix=projects/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotPrefix != "projects/" {
		t.Errorf("expected prefix projects/, got %q", gotPrefix)
	}

	rec = doRequest(s, "DELETE", "/api/v1/insights", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without prefix, got %d", rec.Code)
	}
}

func TestHandleClearInsights(t *testing.T) {
	cleared := false
	insight := &mockInsightService{
		clearFn: func(ctx context.Context) error {
			cleared = true
			return nil
		},
	}
	s := newTestServer(&mockTransformService{}, insight)

	rec := doRequest(s, "POST", "/api/v1/insights/clear", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !cleared {
		t.Error("expected clear to be called")
	}
}

func TestHandleListKinds(t *testing.T) {
	transform := &mockTransformService{
		listKindsFn: func() []domain.KindInfo {
			return []domain.KindInfo{{Kind: domain.KindSimpleSummary}}
		},
	}
	s := newTestServer(transform, &mockInsightService{})

	rec := doRequest(s, "GET", "/api/v1/kinds", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var kinds []domain.KindInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &kinds); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(kinds) != 1 {
		t.Errorf("expected 1 kind, got %d", len(kinds))
	}
}
