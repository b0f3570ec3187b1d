// Package entity collapses named entities repeated across turns.
package entity

import (
	"strings"

	"convi-text-pipeline/internal/models"
)

type key struct {
	text  string
	label string
}

// Dedupe keeps the first entity for each (lower-cased text, label) pair,
// preserving input order. Later duplicates are dropped, not merged.
func Dedupe(entities []models.NamedEntity) []models.NamedEntity {
	seen := make(map[key]struct{}, len(entities))
	out := make([]models.NamedEntity, 0, len(entities))
	for _, e := range entities {
		k := key{text: strings.ToLower(e.Text), label: e.Label}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}
