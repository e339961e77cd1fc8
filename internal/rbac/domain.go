package rbac

import (
	"slices"
	"strings"

	"github.com/showroom-admin/backoffice/internal/shared"
)

// Principal describes the authenticated actor and the roles it holds.
type Principal struct {
	ID        int64    `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Active    bool     `json:"active"`
	Roles     []string `json:"roles"`
}

// DisplayName returns the best human label for the principal.
func (p *Principal) DisplayName() string {
	if p == nil {
		return ""
	}
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name != "" {
		return name
	}
	return p.Email
}

// IsSuperUser reports whether the principal holds the superuser role.
func (p *Principal) IsSuperUser() bool {
	return p != nil && slices.Contains(p.Roles, shared.RoleSuperuser)
}

// HasRole reports whether the principal may act as role. Superusers pass
// every check; inactive principals pass none.
func (p *Principal) HasRole(role string) bool {
	if p == nil || !p.Active {
		return false
	}
	if p.IsSuperUser() {
		return true
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return true
	}
	return slices.Contains(p.Roles, role)
}
