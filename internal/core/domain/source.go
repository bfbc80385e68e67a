package domain

// SourceKind is the closed set of source reference kinds. Resolution matches
// exhaustively on it; anything else fails with ErrUnsupportedSource.
type SourceKind string

const (
	SourceKindDocument   SourceKind = "document"
	SourceKindFolder     SourceKind = "folder"
	SourceKindCollection SourceKind = "collection"
)

// CollectionSpec describes a named virtual collection: a bundle of folders
// and tag filters with no backing file of its own.
type CollectionSpec struct {
	Name    string   `json:"name"`
	Folders []string `json:"folders,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// CollectionLocatorPrefix prefixes the synthetic locator of a named collection
const CollectionLocatorPrefix = "collection://"

// SourceRef identifies what is being transformed: a document path, a folder
// path, or a named collection.
type SourceRef struct {
	Kind    SourceKind      `json:"kind"`
	Locator string          `json:"locator"`
	Spec    *CollectionSpec `json:"spec,omitempty"`
}

// DocumentRef creates a source reference for a single document path
func DocumentRef(path string) SourceRef {
	return SourceRef{Kind: SourceKindDocument, Locator: path}
}

// FolderRef creates a source reference for a folder path
func FolderRef(path string) SourceRef {
	return SourceRef{Kind: SourceKindFolder, Locator: path}
}

// CollectionRef creates a source reference for a named collection.
// The locator is synthetic: "collection://<name>".
func CollectionRef(spec CollectionSpec) SourceRef {
	return SourceRef{
		Kind:    SourceKindCollection,
		Locator: CollectionLocatorPrefix + spec.Name,
		Spec:    &spec,
	}
}

// Validate checks structural validity of the reference
func (r SourceRef) Validate() error {
	switch r.Kind {
	case SourceKindDocument, SourceKindFolder:
		if r.Locator == "" {
			return ErrNotFound
		}
		return nil
	case SourceKindCollection:
		if r.Spec == nil || r.Spec.Name == "" {
			return ErrUnsupportedSource
		}
		return nil
	default:
		return ErrUnsupportedSource
	}
}

// SourceType maps the reference kind to the insight source type.
// Collections persist as folder-typed insights.
func (r SourceRef) SourceType() SourceType {
	if r.Kind == SourceKindDocument {
		return SourceTypeDocument
	}
	return SourceTypeFolder
}
