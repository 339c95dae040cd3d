// Package guard decides whether a protected view may be shown for the
// current session.
//
// Decide is a pure function of a session snapshot and the roles a view
// requires. It never errors: denial is expressed as a redirect decision that
// the router carries out.
package guard

import (
	"fmt"

	"github.com/dmitrijs2005/homefinder/internal/client/models"
	"github.com/dmitrijs2005/homefinder/internal/client/session"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	AgentPath     = "/agent"
	AdminPath     = "/admin"
)

type Kind int

const (
	// ShowLoading: the session is still being restored.
	ShowLoading Kind = iota
	Render
	RedirectToLogin
	// RedirectToRoleHome sends the user to the landing view of their role.
	RedirectToRoleHome
)

func (k Kind) String() string {
	switch k {
	case ShowLoading:
		return "ShowLoading"
	case Render:
		return "Render"
	case RedirectToLogin:
		return "RedirectToLogin"
	case RedirectToRoleHome:
		return "RedirectToRoleHome"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Decision is the outcome of Decide. Path is set for the redirect kinds.
type Decision struct {
	Kind Kind
	Path string
}

func (d Decision) String() string {
	if d.Path == "" {
		return d.Kind.String()
	}
	return d.Kind.String() + "(" + d.Path + ")"
}

// RoleSet is the set of roles allowed to see a view. An empty set admits any
// authenticated user.
type RoleSet map[models.Role]struct{}

func Roles(roles ...models.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(r models.Role) bool {
	_, ok := s[r]
	return ok
}

// HomeFor returns the landing path for role. Unknown roles land on the
// generic dashboard.
func HomeFor(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return AdminPath
	case models.RoleAgent:
		return AgentPath
	default:
		return DashboardPath
	}
}

// Decide evaluates, in order: restore still pending, not signed in, role not
// in required. There is no role hierarchy; an admin is turned away from an
// agent-only view like anyone else.
func Decide(s session.Snapshot, required RoleSet) Decision {
	if s.Loading {
		return Decision{Kind: ShowLoading}
	}
	if !s.IsAuthenticated || s.User == nil {
		return Decision{Kind: RedirectToLogin, Path: LoginPath}
	}
	if len(required) > 0 && !required.Has(s.User.Role) {
		return Decision{Kind: RedirectToRoleHome, Path: HomeFor(s.User.Role)}
	}
	return Decision{Kind: Render}
}
