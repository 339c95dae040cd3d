package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dmitrijs2005/homefinder/internal/client/guard"
	"github.com/dmitrijs2005/homefinder/internal/client/models"
	"github.com/dmitrijs2005/homefinder/internal/client/router"
	"github.com/dmitrijs2005/homefinder/internal/client/session"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6366F1")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4F46E5"))

	hintStyle = lipgloss.NewStyle().
			Faint(true)
)

// registerRoutes installs the view table: public pages, views for any
// signed-in user, and the role areas.
func (a *App) registerRoutes(r *router.Router) {
	r.Handle("/", router.Public(homeView))
	r.Handle("/login", router.Public(loginView))
	r.Handle("/signup", router.Public(a.signupView))
	r.Handle("/properties/*", router.Public(propertiesView))

	r.Handle(guard.DashboardPath, router.ProtectedRoute(nil, dashboardView))
	r.Handle("/profile", router.ProtectedRoute(nil, profileView))
	r.Handle(guard.AgentPath+"/*", router.ProtectedRoute(guard.Roles(models.RoleAgent), agentView))
	r.Handle(guard.AdminPath+"/*", router.ProtectedRoute(guard.Roles(models.RoleAdmin), adminView))
}

func box(w io.Writer, title string, lines ...string) error {
	body := titleStyle.Render(title)
	if len(lines) > 0 {
		body += "\n\n" + strings.Join(lines, "\n")
	}
	_, err := fmt.Fprintln(w, boxStyle.Render(body))
	return err
}

func hint(s string) string {
	return hintStyle.Render(s)
}

func homeView(_ context.Context, w io.Writer, snap session.Snapshot) error {
	lines := []string{"Find, compare and visit homes for sale and rent."}
	if snap.User != nil {
		lines = append(lines, hint("open "+guard.HomeFor(snap.Role())+" to go to your dashboard"))
	} else {
		lines = append(lines, hint("open /properties to browse, 'login' or 'signup' to get started"))
	}
	return box(w, "HomeFinder", lines...)
}

func loginView(_ context.Context, w io.Writer, snap session.Snapshot) error {
	if snap.User != nil {
		return box(w, "Log in", "Already logged in as "+displayName(snap), hint("type 'logout' to switch accounts"))
	}
	if snap.Loading {
		return box(w, "Log in", "Restoring your previous session...")
	}
	return box(w, "Log in", "You need to log in to see this page.", hint("type 'login', or 'signup' to create an account"))
}

func (a *App) signupView(_ context.Context, w io.Writer, snap session.Snapshot) error {
	if snap.User != nil {
		return box(w, "Sign up", "Already logged in as "+displayName(snap))
	}
	if email := a.authService.PendingEmail(); email != "" {
		return box(w, "Sign up", "Awaiting verification of "+email, hint("type 'verify' to enter the code, 'resend' for a new one"))
	}
	return box(w, "Sign up", "Create a user or agent account.", hint("type 'signup'"))
}

func propertiesView(_ context.Context, w io.Writer, snap session.Snapshot) error {
	lines := []string{"Public listings: houses, apartments and land."}
	if snap.User == nil {
		lines = append(lines, hint("log in to save favourites, send inquiries and book visits"))
	}
	return box(w, "Properties", lines...)
}

func dashboardView(_ context.Context, w io.Writer, snap session.Snapshot) error {
	return box(w, "Dashboard",
		"Welcome, "+displayName(snap),
		"Wishlist, inquiries and scheduled visits",
		hint("profile: view your account"),
	)
}

func profileView(_ context.Context, w io.Writer, snap session.Snapshot) error {
	u := snap.User
	lines := []string{
		"Name:     " + u.Name,
		"Email:    " + u.Email,
		"Role:     " + string(u.Role),
		"Phone:    " + orDash(u.Phone),
	}
	if u.Role == models.RoleAgent {
		lines = append(lines, "Agency:   "+orDash(u.Agency))
	}
	if u.Avatar != "" {
		lines = append(lines, "Avatar:   "+u.Avatar)
	}
	verified := "no"
	if u.Verified {
		verified = "yes"
	}
	lines = append(lines, "Verified: "+verified, hint("profile edit: change your details"))
	return box(w, "Profile", lines...)
}

func agentView(_ context.Context, w io.Writer, snap session.Snapshot) error {
	lines := []string{"Welcome, " + displayName(snap)}
	if snap.User.Agency != "" {
		lines = append(lines, "Agency: "+snap.User.Agency)
	}
	lines = append(lines, "Your listings, incoming inquiries and visit requests")
	return box(w, "Agent dashboard", lines...)
}

func adminView(_ context.Context, w io.Writer, snap session.Snapshot) error {
	return box(w, "Admin dashboard",
		"Signed in as "+displayName(snap),
		"Users, listings and reports",
	)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
