package authz

import "strings"

// Requirement is an ordered, immutable list of acceptable role names for a
// protected resource. An empty requirement always allows.
type Requirement struct {
	roles []string
}

// NewRequirement creates a requirement from the given role names. The slice
// is copied so later mutation by the caller cannot change the requirement.
func NewRequirement(roles ...string) Requirement {
	copied := make([]string, len(roles))
	copy(copied, roles)
	return Requirement{roles: copied}
}

// Roles returns a copy of the required role names in order.
func (r Requirement) Roles() []string {
	copied := make([]string, len(r.roles))
	copy(copied, r.roles)
	return copied
}

// Equal reports whether two requirements carry the same roles in the same
// order.
func (r Requirement) Equal(other Requirement) bool {
	if len(r.roles) != len(other.roles) {
		return false
	}
	for i, role := range r.roles {
		if role != other.roles[i] {
			return false
		}
	}
	return true
}

// Evaluate decides allow/deny for a principal against a requirement.
//
// An empty requirement allows unconditionally. Otherwise the principal is
// allowed iff at least one required role matches one of its roles
// case-insensitively. Role names are compared for exact equality only; there
// are no partial-match or hierarchy semantics.
func Evaluate(requirement Requirement, principal *Principal) bool {
	if len(requirement.roles) == 0 {
		return true
	}
	if principal == nil {
		return false
	}

	held := make(map[string]struct{})
	for _, role := range principal.Roles() {
		held[strings.ToLower(role)] = struct{}{}
	}

	for _, required := range requirement.roles {
		if _, ok := held[strings.ToLower(required)]; ok {
			return true
		}
	}
	return false
}
