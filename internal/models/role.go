package models

import (
	"encoding/json"
	"fmt"
)

// Role is the canonical speaker category derived from a label.
type Role int

const (
	// RoleUnknown is assigned to any label missing from the alias table.
	RoleUnknown Role = iota
	RoleAgent
	RoleCustomer
)

// Roles lists every role in declaration order.
var Roles = []Role{RoleUnknown, RoleAgent, RoleCustomer}

// String returns the lower-case wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleAgent:
		return "agent"
	case RoleCustomer:
		return "customer"
	case RoleUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole maps a wire name back to a Role. Unrecognised names yield RoleUnknown.
func ParseRole(s string) Role {
	switch s {
	case "agent":
		return RoleAgent
	case "customer":
		return RoleCustomer
	default:
		return RoleUnknown
	}
}

// MarshalJSON encodes the role as its wire name.
func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a wire name.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*r = ParseRole(s)
	return nil
}

