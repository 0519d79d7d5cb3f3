// Package guard decides, for each navigation, whether a route renders,
// waits for the session, or redirects to a login page.
package guard

import (
	"strings"

	"github.com/jattu8602/presentsirweb-sub001/internal/models"
)

const (
	LoginRoute      = "/login"
	AdminLoginRoute = "/admin/login"
	DashboardRoute  = "/dashboard"
	AdminRoute      = "/admin"
	PendingRoute    = "/pending"
)

// Route is a gated page. An empty Role admits any signed-in identity.
type Route struct {
	Path string
	Role models.Role
}

type State struct {
	Loading  bool
	Identity *models.Identity
}

type Kind int

const (
	Checking Kind = iota
	Redirect
	Render
)

func (k Kind) String() string {
	switch k {
	case Checking:
		return "checking"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	}
	return "unknown"
}

type Decision struct {
	Kind   Kind
	Target string
}

// Evaluate is recomputed on every navigation; nothing is cached. Signed-out
// and wrong-role visitors get the same redirect.
func Evaluate(s State, r Route) Decision {
	if s.Loading {
		return Decision{Kind: Checking}
	}
	if s.Identity == nil || (r.Role != "" && s.Identity.Role != r.Role) {
		return Decision{Kind: Redirect, Target: LoginRouteFor(r.Role)}
	}
	return Decision{Kind: Render, Target: r.Path}
}

// LoginRouteFor returns the login page for a route requiring role.
func LoginRouteFor(role models.Role) string {
	if role == models.RoleAdmin {
		return AdminLoginRoute
	}
	return LoginRoute
}

// LandingRoute is where a freshly signed-in identity is sent.
func LandingRoute(role models.Role) string {
	if role == models.RoleAdmin {
		return AdminRoute
	}
	return DashboardRoute
}

// Table maps paths to routes. Lookup matches the longest registered prefix,
// so "/admin/schools/7" is gated like "/admin/schools".
type Table struct {
	routes []Route
}

func NewTable(routes ...Route) *Table {
	return &Table{routes: routes}
}

// DefaultTable lists the application's gated pages.
func DefaultTable() *Table {
	return NewTable(
		Route{Path: DashboardRoute},
		Route{Path: "/dashboard/attendance"},
		Route{Path: "/dashboard/timetable"},
		Route{Path: "/dashboard/fees"},
		Route{Path: "/dashboard/marks"},
		Route{Path: AdminRoute, Role: models.RoleAdmin},
		Route{Path: "/admin/schools", Role: models.RoleAdmin},
	)
}

func (t *Table) Lookup(path string) (Route, bool) {
	var (
		best  Route
		found bool
	)
	for _, r := range t.routes {
		if path != r.Path && !strings.HasPrefix(path, r.Path+"/") {
			continue
		}
		if !found || len(r.Path) > len(best.Path) {
			best, found = r, true
		}
	}
	return best, found
}

// Navigate evaluates path against the table. Paths that are not gated,
// including the login pages, always render.
func (t *Table) Navigate(s State, path string) Decision {
	if path == LoginRoute || path == AdminLoginRoute {
		return Decision{Kind: Render, Target: path}
	}
	r, ok := t.Lookup(path)
	if !ok {
		return Decision{Kind: Render, Target: path}
	}
	d := Evaluate(s, r)
	if d.Kind == Render {
		d.Target = path
	}
	return d
}
