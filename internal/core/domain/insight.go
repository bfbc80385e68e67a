package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceType classifies what an insight was derived from
type SourceType string

const (
	SourceTypeDocument SourceType = "document"
	SourceTypeFolder   SourceType = "folder"
)

// Insight is a cached LLM-derived artifact attached to a source and
// transformation kind. Insights are append-only: a transformation against a
// newer modification stamp produces a new entry, it never rewrites an old one.
type Insight struct {
	ID         string        `json:"id"`
	Kind       TransformKind `json:"kind"`
	SourceType SourceType    `json:"source_type"`
	SourcePath string        `json:"source_path"`

	// SourceModTime is the modification stamp (unix milliseconds) of the
	// source at the time the insight was generated. Together with
	// (SourcePath, Kind) it forms the cache identity.
	SourceModTime int64 `json:"source_mod_time"`

	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewInsight creates an insight with a fresh ID and creation timestamp.
func NewInsight(kind TransformKind, sourceType SourceType, sourcePath string, modTime int64, text string) *Insight {
	return &Insight{
		ID:            uuid.NewString(),
		Kind:          kind,
		SourceType:    sourceType,
		SourcePath:    sourcePath,
		SourceModTime: modTime,
		Text:          text,
		CreatedAt:     time.Now(),
	}
}

// ScoredInsight is an insight paired with its similarity to a query
type ScoredInsight struct {
	Insight    *Insight `json:"insight"`
	Similarity float64  `json:"similarity"`
}
