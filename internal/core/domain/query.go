package domain

// QueryScope restricts a semantic query to explicit files and/or the files
// contained in the given folders. A nil scope means "search all".
type QueryScope struct {
	Files   []string `json:"files,omitempty"`
	Folders []string `json:"folders,omitempty"`
}

// QueryOptions configures a semantic similarity query
type QueryOptions struct {
	Scope         *QueryScope     `json:"scope,omitempty"`
	Limit         int             `json:"limit"`
	MinSimilarity float64         `json:"min_similarity"`
	Kinds         []TransformKind `json:"kinds,omitempty"`
}

// DefaultQueryOptions returns sensible defaults
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		Limit:         20,
		MinSimilarity: 0.3,
	}
}

// SimilaritySearchOptions is passed through to the insight store's
// similarity search. SourcePaths is the expanded allow-list; empty means all.
type SimilaritySearchOptions struct {
	Limit         int             `json:"limit"`
	MinSimilarity float64         `json:"min_similarity"`
	SourcePaths   []string        `json:"source_paths,omitempty"`
	Kinds         []TransformKind `json:"kinds,omitempty"`
}
