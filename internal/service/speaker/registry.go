package speaker

import (
	"fmt"
	"strings"

	"convi-text-pipeline/internal/models"
)

// Registry maps speaker labels to ids for a single pipeline run.
// Labels are case-sensitive as first seen. A Registry must not be shared
// between runs and is not safe for concurrent use.
type Registry struct {
	ids      map[string]string
	counters map[models.Role]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ids:      make(map[string]string),
		counters: make(map[models.Role]int),
	}
}

// Allocate returns the id for label, assigning "{ROLE}_{n}" on first sight,
// where n counts ids already allocated for that role.
func (r *Registry) Allocate(label string, role models.Role) string {
	if id, ok := r.ids[label]; ok {
		return id
	}
	n := r.counters[role]
	id := fmt.Sprintf("%s_%d", strings.ToUpper(role.String()), n)
	r.counters[role] = n + 1
	r.ids[label] = id
	return id
}

// Lookup returns the id already allocated for label.
func (r *Registry) Lookup(label string) (string, bool) {
	id, ok := r.ids[label]
	return id, ok
}

// Count returns the number of distinct labels allocated.
func (r *Registry) Count() int {
	return len(r.ids)
}
