// Package speaker resolves speaker roles and allocates run-scoped speaker ids.
package speaker

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"convi-text-pipeline/internal/models"
)

// defaultAliases maps normalised labels to roles.
var defaultAliases = map[string]models.Role{
	"agent":          models.RoleAgent,
	"representative": models.RoleAgent,
	"rep":            models.RoleAgent,
	"banker":         models.RoleAgent,
	"officer":        models.RoleAgent,
	"executive":      models.RoleAgent,
	"support":        models.RoleAgent,
	"customer":       models.RoleCustomer,
	"client":         models.RoleCustomer,
	"caller":         models.RoleCustomer,
	"user":           models.RoleCustomer,
}

// Resolver maps raw speaker labels to roles. The alias table is fixed at
// construction, so Resolve is safe for concurrent use.
type Resolver struct {
	aliases map[string]models.Role
}

// DefaultResolver uses the built-in alias table.
var DefaultResolver = NewResolver(nil)

// NewResolver creates a resolver from the built-in table plus extra aliases.
// Extra keys are normalised the same way labels are.
func NewResolver(extra map[string]models.Role) *Resolver {
	aliases := make(map[string]models.Role, len(defaultAliases)+len(extra))
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	for k, v := range extra {
		aliases[normalize(k)] = v
	}
	return &Resolver{aliases: aliases}
}

// Resolve returns the role for label, or RoleUnknown when the label is not an alias.
func (r *Resolver) Resolve(label string) models.Role {
	if role, ok := r.aliases[normalize(label)]; ok {
		return role
	}
	return models.RoleUnknown
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// aliasFile is the YAML layout of a role aliases file:
//
//	agent: [relationship manager, teller]
//	customer: [account holder]
type aliasFile struct {
	Agent    []string `yaml:"agent"`
	Customer []string `yaml:"customer"`
}

// LoadAliases reads additional aliases from a YAML file.
func LoadAliases(path string) (map[string]models.Role, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read role aliases: %w", err)
	}
	return ParseAliases(data)
}

// ParseAliases decodes a YAML alias document.
func ParseAliases(data []byte) (map[string]models.Role, error) {
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode role aliases: %w", err)
	}
	out := make(map[string]models.Role, len(f.Agent)+len(f.Customer))
	for _, a := range f.Agent {
		out[normalize(a)] = models.RoleAgent
	}
	for _, c := range f.Customer {
		if _, dup := out[normalize(c)]; dup {
			return nil, fmt.Errorf("alias %q listed for both agent and customer", c)
		}
		out[normalize(c)] = models.RoleCustomer
	}
	return out, nil
}
