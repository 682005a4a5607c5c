package session

import (
	"strings"

	"github.com/hongminglow/projectdesk/internal/models"
)

// Landing paths.
const (
	PathLogin        = "/auth/login"
	PathOnboarding   = "/onboarding"
	PathOwnerHome    = "/app/dashboard"
	PathEmployeeHome = "/work/my-tasks"
	PathNoProject    = "/work/no-project"
	PathAdminHome    = "/admin"
)

// areas maps a path prefix to the only role allowed under it.
var areas = []struct {
	prefix string
	role   models.Role
}{
	{"/app", models.RoleOwner},
	{"/work", models.RoleEmployee},
	{"/admin", models.RoleSuperAdmin},
}

func within(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// RequiredRole returns the role a path is restricted to, if any.
func RequiredRole(path string) (models.Role, bool) {
	for _, a := range areas {
		if within(path, a.prefix) {
			return a.role, true
		}
	}
	return "", false
}

// Authorize reports whether role may open path. Paths outside the role
// areas are unrestricted.
func Authorize(role models.Role, path string) bool {
	required, restricted := RequiredRole(path)
	return !restricted || role == required
}

// ResolveHome returns where a user with role lands after sign-in.
// Unknown roles are sent to the login page.
func ResolveHome(role models.Role, hasProject, hasMembership bool) string {
	switch role {
	case models.RoleOwner:
		if hasProject {
			return PathOwnerHome
		}
		return PathOnboarding
	case models.RoleEmployee:
		if hasMembership {
			return PathEmployeeHome
		}
		return PathNoProject
	case models.RoleSuperAdmin:
		return PathAdminHome
	}
	return PathLogin
}

// Action is what a navigation should do after a Decide.
type Action int

const (
	Allow Action = iota
	Wait
	Redirect
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

// Decision is the outcome of evaluating a route. Path is set for Redirect.
type Decision struct {
	Action Action
	Path   string
}

// RedirectTo builds a redirect decision.
func RedirectTo(path string) Decision {
	return Decision{Action: Redirect, Path: path}
}

func (d Decision) String() string {
	if d.Action == Redirect {
		return "redirect " + d.Path
	}
	return d.Action.String()
}

// guarded reports whether path needs an authenticated session.
func guarded(path string) bool {
	_, restricted := RequiredRole(path)
	return restricted || within(path, PathOnboarding)
}

// Decide evaluates path against state without side effects. Nothing under
// a guarded path is allowed while the session is unresolved.
func Decide(state State, path string) Decision {
	if !guarded(path) {
		return Decision{Action: Allow}
	}
	if !state.Resolved {
		return Decision{Action: Wait}
	}
	s := state.Session
	if s == nil {
		return RedirectTo(PathLogin)
	}
	role := s.User.Role
	home := s.Home()
	if !Authorize(role, path) {
		return RedirectTo(home)
	}
	switch role {
	case models.RoleOwner:
		if s.Project == nil && !within(path, PathOnboarding) {
			return RedirectTo(PathOnboarding)
		}
	case models.RoleEmployee:
		if s.Membership == nil && !within(path, PathNoProject) {
			return RedirectTo(PathNoProject)
		}
	}
	if within(path, PathOnboarding) && role != models.RoleOwner {
		return RedirectTo(home)
	}
	return Decision{Action: Allow}
}
