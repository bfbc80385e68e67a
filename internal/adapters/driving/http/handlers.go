package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lorekeep/insight-core/internal/core/domain"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// sourcePayload is the wire form of a source reference
type sourcePayload struct {
	Kind       string                 `json:"kind"`
	Path       string                 `json:"path,omitempty"`
	Collection *domain.CollectionSpec `json:"collection,omitempty"`
}

// toRef converts the payload to a domain source reference
func (p sourcePayload) toRef() (domain.SourceRef, error) {
	switch domain.SourceKind(p.Kind) {
	case domain.SourceKindDocument:
		return domain.DocumentRef(p.Path), nil
	case domain.SourceKindFolder:
		return domain.FolderRef(p.Path), nil
	case domain.SourceKindCollection:
		if p.Collection == nil {
			return domain.SourceRef{}, domain.ErrUnsupportedSource
		}
		return domain.CollectionRef(*p.Collection), nil
	default:
		return domain.SourceRef{}, domain.ErrUnsupportedSource
	}
}

// transformRequest is the body of POST /transform
type transformRequest struct {
	Source  sourcePayload           `json:"source"`
	Kind    domain.TransformKind    `json:"kind"`
	Options domain.TransformOptions `json:"options"`
}

// batchRequest is the body of POST /transform/batch
type batchRequest struct {
	Source  sourcePayload           `json:"source"`
	Kinds   []domain.TransformKind  `json:"kinds"`
	Options domain.TransformOptions `json:"options"`
}

// queryRequest is the body of POST /query
type queryRequest struct {
	Text    string              `json:"text"`
	Options domain.QueryOptions `json:"options"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "insight store unavailable")
			return
		}
	}
	if s.queue != nil {
		if err := s.queue.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "persist queue unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Transformation endpoints

func (s *Server) handleListKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.transformService.ListKinds())
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ref, err := req.Source.toRef()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source reference")
		return
	}

	result, err := s.transformService.Transform(r.Context(), ref, req.Kind, req.Options)
	if err != nil {
		// The engine returns a partial result alongside model failures; its
		// truncation and token counts are the caller's only diagnostics
		if result != nil {
			writeJSON(w, domainErrorStatus(err), struct {
				Error   string                  `json:"error"`
				Partial *domain.TransformResult `json:"partial"`
			}{Error: err.Error(), Partial: result})
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTransformBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Kinds) == 0 {
		writeError(w, http.StatusBadRequest, "at least one kind is required")
		return
	}

	ref, err := req.Source.toRef()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid source reference")
		return
	}

	entries := s.transformService.TransformBatch(r.Context(), ref, req.Kinds, req.Options)
	writeJSON(w, http.StatusOK, entries)
}

// Insight endpoints

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "query text is required")
		return
	}

	results, err := s.insightService.Query(r.Context(), req.Text, req.Options)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if results == nil {
		results = []*domain.ScoredInsight{}
	}

	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := s.insightService.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if insights == nil {
		insights = []*domain.Insight{}
	}

	writeJSON(w, http.StatusOK, insights)
}

func (s *Server) handleDeleteInsight(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.insightService.DeleteByID(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleDeleteInsightsByPrefix(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		writeError(w, http.StatusBadRequest, "prefix query parameter is required")
		return
	}

	if err := s.insightService.DeleteBySourcePrefix(r.Context(), prefix); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleClearInsights(w http.ResponseWriter, r *http.Request) {
	if err := s.insightService.Clear(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Runtime AI configuration endpoints

// runtimeStatusResponse reports current capability flags
type runtimeStatusResponse struct {
	QueueBackend        string `json:"queue_backend"`
	CompletionAvailable bool   `json:"completion_available"`
	EmbeddingAvailable  bool   `json:"embedding_available"`
	CompletionModel     string `json:"completion_model,omitempty"`
	EmbeddingModel      string `json:"embedding_model,omitempty"`
}

func (s *Server) handleRuntimeStatus(w http.ResponseWriter, r *http.Request) {
	cfg := s.services.Config()
	resp := runtimeStatusResponse{
		QueueBackend:        cfg.QueueBackend,
		CompletionAvailable: cfg.CompletionAvailable(),
		EmbeddingAvailable:  cfg.EmbeddingAvailable(),
	}
	if svc := s.services.CompletionService(); svc != nil {
		resp.CompletionModel = svc.Model()
	}
	if svc := s.services.EmbeddingService(); svc != nil {
		resp.EmbeddingModel = svc.Model()
	}

	writeJSON(w, http.StatusOK, resp)
}

// aiSettingsPayload is the wire form of AI settings. API keys travel in
// requests only; they are never echoed back.
type aiSettingsPayload struct {
	Completion struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
		APIKey   string `json:"api_key"`
		BaseURL  string `json:"base_url"`
	} `json:"completion"`
	Embedding struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
		APIKey   string `json:"api_key"`
		BaseURL  string `json:"base_url"`
	} `json:"embedding"`
}

func (s *Server) handleReconfigureAI(w http.ResponseWriter, r *http.Request) {
	var req aiSettingsPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings := &domain.AISettings{
		Completion: domain.CompletionSettings{
			Provider: domain.AIProvider(req.Completion.Provider),
			Model:    req.Completion.Model,
			APIKey:   req.Completion.APIKey,
			BaseURL:  req.Completion.BaseURL,
		},
		Embedding: domain.EmbeddingSettings{
			Provider: domain.AIProvider(req.Embedding.Provider),
			Model:    req.Embedding.Model,
			APIKey:   req.Embedding.APIKey,
			BaseURL:  req.Embedding.BaseURL,
		},
		UpdatedAt: time.Now(),
	}

	if err := s.services.Reconfigure(s.aiFactory, settings); err != nil {
		if errors.Is(err, domain.ErrInvalidProvider) {
			writeError(w, http.StatusBadRequest, "invalid provider")
			return
		}
		writeError(w, http.StatusInternalServerError, "reconfiguration failed")
		return
	}

	s.handleRuntimeStatus(w, r)
}

// Helper functions

// domainErrorStatus maps typed domain errors onto HTTP status codes
func domainErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, domain.ErrContentTooShort),
		errors.Is(err, domain.ErrUnsupportedKind),
		errors.Is(err, domain.ErrUnsupportedSource),
		errors.Is(err, domain.ErrNoContent):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrServiceUnavailable),
		errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrModelCallFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, domainErrorStatus(err), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
