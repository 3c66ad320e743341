// Package session decides route access from the current session and keeps
// the client-side view of who is signed in.
package session

import "github.com/JayMiller08/sci-sa-gala/internal/domain"

// Decision is the outcome of evaluating a route guard.
type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToHome:
		return "redirect_to_home"
	default:
		return "unknown"
	}
}

const (
	LoginPath     = "/login"
	AdminHomePath = "/admin"
	ExecHomePath  = "/dashboard"
)

// Authorize evaluates a route guard. requireAuth=false marks an
// anonymous-only route such as the login page. requireRole is ignored when
// it is domain.RoleNone.
func Authorize(sess *domain.Session, requireAuth bool, requireRole domain.Role) Decision {
	if requireAuth && sess == nil {
		return RedirectToLogin
	}
	if !requireAuth && sess != nil {
		return RedirectToHome
	}
	if requireRole != domain.RoleNone && sess != nil && sess.Role != requireRole {
		return RedirectToHome
	}
	return Allow
}

// HomeFor returns the landing path for a role.
func HomeFor(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return AdminHomePath
	case domain.RoleExec, domain.RoleNone:
		return ExecHomePath
	default:
		return ExecHomePath
	}
}

// RedirectTarget is the path a non-Allow decision points at.
func RedirectTarget(d Decision, sess *domain.Session) string {
	switch d {
	case RedirectToLogin:
		return LoginPath
	case RedirectToHome:
		if sess == nil {
			return ExecHomePath
		}
		return HomeFor(sess.Role)
	default:
		return ""
	}
}
