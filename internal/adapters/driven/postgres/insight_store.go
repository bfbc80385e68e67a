package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/lib/pq"

	"github.com/lorekeep/insight-core/internal/core/domain"
	"github.com/lorekeep/insight-core/internal/core/ports/driven"
)

// Ensure InsightStore implements the port
var _ driven.InsightStore = (*InsightStore)(nil)

// InsightStore persists insights in PostgreSQL. Embeddings are stored as
// JSONB and similarity is scored in process; at personal-notes scale the
// candidate set is small enough that a vector index buys nothing.
type InsightStore struct {
	db *DB
}

// NewInsightStore creates a PostgreSQL-backed insight store
func NewInsightStore(db *DB) *InsightStore {
	return &InsightStore{db: db}
}

const insightColumns = "id, kind, source_type, source_path, source_mod_time, content, embedding, created_at"

// Store appends an insight record
func (s *InsightStore) Store(ctx context.Context, insight *domain.Insight) error {
	var embedding []byte
	if len(insight.Embedding) > 0 {
		data, err := json.Marshal(insight.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding: %w", err)
		}
		embedding = data
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO insights (id, kind, source_type, source_path, source_mod_time, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		insight.ID, string(insight.Kind), string(insight.SourceType), insight.SourcePath,
		insight.SourceModTime, insight.Text, embedding, insight.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to store insight: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// GetBySourcePath retrieves all insights recorded for a source path
func (s *InsightStore) GetBySourcePath(ctx context.Context, sourcePath string) ([]*domain.Insight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+insightColumns+`
		FROM insights
		WHERE source_path = $1
		ORDER BY created_at DESC`,
		sourcePath,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query insights: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	return scanInsights(rows)
}

// GetAll retrieves every stored insight
func (s *InsightStore) GetAll(ctx context.Context) ([]*domain.Insight, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+insightColumns+`
		FROM insights
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query insights: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	return scanInsights(rows)
}

// DeleteByPath deletes all insights whose source path starts with the prefix
func (s *InsightStore) DeleteByPath(ctx context.Context, pathPrefix string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM insights
		WHERE source_path = $1 OR source_path LIKE $2`,
		pathPrefix, escapeLike(pathPrefix)+"%",
	)
	if err != nil {
		return fmt.Errorf("%w: failed to delete insights: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// DeleteByPaths deletes insights for multiple path prefixes
func (s *InsightStore) DeleteByPaths(ctx context.Context, pathPrefixes []string) error {
	for _, prefix := range pathPrefixes {
		if err := s.DeleteByPath(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}

// DeleteByID deletes a single insight
func (s *InsightStore) DeleteByID(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM insights WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: failed to delete insight: %v", domain.ErrStorageUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("%w: insight %s", domain.ErrNotFound, id)
	}
	return nil
}

// ClearAll removes every stored insight
func (s *InsightStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM insights`); err != nil {
		return fmt.Errorf("%w: failed to clear insights: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// SimilaritySearch returns insights scored against the query embedding,
// sorted by descending similarity. Path and kind filters are pushed into
// SQL; cosine scoring runs over the filtered candidates.
func (s *InsightStore) SimilaritySearch(ctx context.Context, embedding []float32, opts domain.SimilaritySearchOptions) ([]*domain.ScoredInsight, error) {
	query := `SELECT ` + insightColumns + ` FROM insights WHERE embedding IS NOT NULL`
	args := []any{}

	if len(opts.SourcePaths) > 0 {
		args = append(args, pq.Array(opts.SourcePaths))
		query += fmt.Sprintf(" AND source_path = ANY($%d)", len(args))
	}
	if len(opts.Kinds) > 0 {
		kinds := make([]string, len(opts.Kinds))
		for i, k := range opts.Kinds {
			kinds[i] = string(k)
		}
		args = append(args, pq.Array(kinds))
		query += fmt.Sprintf(" AND kind = ANY($%d)", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query insights: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	candidates, err := scanInsights(rows)
	if err != nil {
		return nil, err
	}

	scored := make([]*domain.ScoredInsight, 0, len(candidates))
	for _, insight := range candidates {
		sim := cosine(embedding, insight.Embedding)
		if sim < opts.MinSimilarity {
			continue
		}
		scored = append(scored, &domain.ScoredInsight{Insight: insight, Similarity: sim})
	}

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if opts.Limit > 0 && len(scored) > opts.Limit {
		scored = scored[:opts.Limit]
	}
	return scored, nil
}

// Ping checks if the store backend is healthy
func (s *InsightStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// Close cleans up resources. The underlying pool is shared, so closing the
// store is a no-op; the pool is closed by its owner.
func (s *InsightStore) Close() error {
	return nil
}

func scanInsights(rows *sql.Rows) ([]*domain.Insight, error) {
	var insights []*domain.Insight
	for rows.Next() {
		var (
			insight    domain.Insight
			kind       string
			sourceType string
			embedding  []byte
		)
		if err := rows.Scan(&insight.ID, &kind, &sourceType, &insight.SourcePath,
			&insight.SourceModTime, &insight.Text, &embedding, &insight.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan insight: %w", err)
		}
		insight.Kind = domain.TransformKind(kind)
		insight.SourceType = domain.SourceType(sourceType)
		if len(embedding) > 0 {
			if err := json.Unmarshal(embedding, &insight.Embedding); err != nil {
				return nil, fmt.Errorf("failed to decode embedding: %w", err)
			}
		}
		insights = append(insights, &insight)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read insights: %v", domain.ErrStorageUnavailable, err)
	}
	return insights, nil
}

// cosine computes cosine similarity between two vectors. Mismatched or empty
// vectors score zero.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// escapeLike escapes LIKE wildcards in a literal prefix
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
