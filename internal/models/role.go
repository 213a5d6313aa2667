package models

import "fmt"

// Role identifies one side of the shared workflow.
type Role string

const (
	RoleLister  Role = "lister"
	RoleShopper Role = "shopper"
)

var validRoles = []Role{RoleLister, RoleShopper}

// IsValid checks whether the role is one of the two participants.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Other returns the counterpart role.
func (r Role) Other() Role {
	if r == RoleLister {
		return RoleShopper
	}
	return RoleLister
}

// ParseRole converts raw strings into Role.
func ParseRole(value string) (Role, error) {
	r := Role(value)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role %q", value)
	}
	return r, nil
}
