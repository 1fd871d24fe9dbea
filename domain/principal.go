package domain

// Principal is the acting user resolved from the request credentials. The
// zero value is the anonymous visitor.
type Principal struct {
	UserID string
	Roles  []string
}

// Anonymous reports whether the principal is an unauthenticated visitor.
func (p Principal) Anonymous() bool { return p.UserID == "" }

// HasRole reports whether the principal carries the given role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Authorizer decides whether a principal may update an item.
type Authorizer interface {
	CanUpdate(p Principal, it *Item) bool
}

// RoleAuthorizer grants updates to the item's author and to any principal
// holding one of the configured roles.
type RoleAuthorizer struct {
	UpdateRoles []string
}

// NewRoleAuthorizer creates an authorizer with the default editorial roles.
func NewRoleAuthorizer(roles ...string) RoleAuthorizer {
	if len(roles) == 0 {
		roles = []string{"editor", "administrator"}
	}
	return RoleAuthorizer{UpdateRoles: roles}
}

func (a RoleAuthorizer) CanUpdate(p Principal, it *Item) bool {
	if p.Anonymous() || it == nil {
		return false
	}
	if it.AuthorID != "" && it.AuthorID == p.UserID {
		return true
	}
	for _, role := range a.UpdateRoles {
		if p.HasRole(role) {
			return true
		}
	}
	return false
}
