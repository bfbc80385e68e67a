package transforms

import (
	"fmt"
	"sort"

	"github.com/lorekeep/insight-core/internal/core/domain"
)

// Registry is the immutable table of transformation definitions.
// Populated once at construction; pure lookup afterwards, no runtime mutation.
type Registry struct {
	defs map[domain.TransformKind]domain.Definition
}

// NewRegistry creates a registry loaded with the built-in definition table
func NewRegistry() *Registry {
	defs := make(map[domain.TransformKind]domain.Definition, len(builtinDefinitions))
	for _, def := range builtinDefinitions {
		defs[def.Kind] = def
	}
	return &Registry{defs: defs}
}

// Get retrieves the definition for a kind.
// Fails with ErrUnsupportedKind for anything outside the table.
func (r *Registry) Get(kind domain.TransformKind) (domain.Definition, error) {
	def, ok := r.defs[kind]
	if !ok {
		return domain.Definition{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedKind, kind)
	}
	return def, nil
}

// ListAvailable returns the caller-selectable kinds with their descriptions,
// sorted by kind. The folder combine template is internal to tree
// aggregation and is not listed.
func (r *Registry) ListAvailable() []domain.KindInfo {
	infos := make([]domain.KindInfo, 0, len(r.defs))
	for kind, def := range r.defs {
		if kind == domain.KindFolderCombine {
			continue
		}
		infos = append(infos, domain.KindInfo{Kind: kind, Description: def.Description})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Kind < infos[j].Kind
	})
	return infos
}
