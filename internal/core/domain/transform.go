package domain

import "time"

// TransformKind is the closed enumeration of artifact types
type TransformKind string

const (
	KindSimpleSummary       TransformKind = "simple-summary"
	KindDenseSummary        TransformKind = "dense-summary"
	KindHierarchicalSummary TransformKind = "hierarchical-summary"
	KindKeyInsights         TransformKind = "key-insights"
	KindReflections         TransformKind = "reflections"
	KindTableOfContents     TransformKind = "table-of-contents"
	KindPaperAnalysis       TransformKind = "paper-analysis"
	KindConciseDenseSummary TransformKind = "concise-dense-summary"

	// KindFolderCombine is the second-order transformation that composes
	// child summaries into a parent folder summary. It is used internally
	// by tree aggregation, never selected directly by callers.
	KindFolderCombine TransformKind = "folder-combine"
)

// Definition maps a transformation kind to its prompt template and token
// budget. Definitions are immutable and loaded once at startup.
type Definition struct {
	Kind             TransformKind `json:"kind"`
	PromptTemplate   string        `json:"-"`
	Description      string        `json:"description"`
	MaxContentTokens int           `json:"max_content_tokens"`
}

// KindInfo is the discovery view of a definition (for tool-selection surfaces)
type KindInfo struct {
	Kind        TransformKind `json:"kind"`
	Description string        `json:"description"`
}

// ProcessedContent is the transient output of token-budget processing.
// Consumed once per invocation, never persisted.
type ProcessedContent struct {
	Text            string `json:"text"`
	Truncated       bool   `json:"truncated"`
	OriginalTokens  int    `json:"original_tokens"`
	ProcessedTokens int    `json:"processed_tokens"`
}

// TransformOptions tunes a single transformation run
type TransformOptions struct {
	// Model overrides the completion service's default model when non-empty
	Model string `json:"model,omitempty"`

	// MaxContentTokens overrides the definition's token budget when > 0
	MaxContentTokens int `json:"max_content_tokens,omitempty"`

	// Persist enqueues the result for background storage.
	// Best-effort: the returned result never depends on store completion.
	Persist bool `json:"persist"`
}

// TransformResult is the outcome of a successful transformation run
type TransformResult struct {
	Kind            TransformKind `json:"kind"`
	Text            string        `json:"text"`
	Truncated       bool          `json:"truncated"`
	OriginalTokens  int           `json:"original_tokens"`
	ProcessedTokens int           `json:"processed_tokens"`
	CacheHit        bool          `json:"cache_hit"`
	Took            time.Duration `json:"took"`
}

// BatchEntry is one kind's outcome within a batch run. Failures are isolated
// per kind; a batch always returns a complete map.
type BatchEntry struct {
	Kind    TransformKind    `json:"kind"`
	Success bool             `json:"success"`
	Result  *TransformResult `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}
