// Package gate decides, for every page request, whether to let it through or
// redirect it based on the caller's session and role.
package gate

import (
	"net/url"
	"strings"

	"github.com/wolfeidau/staffdesk/internal/models"
	"github.com/wolfeidau/staffdesk/internal/session"
)

const (
	LoginPath           = "/login"
	RegisterPath        = "/register"
	AdminPath           = "/admin"
	EmployeeProfilePath = "/employee/profile"
)

// publicPaths are reachable without a session. Signed-in users are sent away
// from them.
var publicPaths = map[string]bool{
	LoginPath:    true,
	RegisterPath: true,
}

// Outcome names the rule that produced a decision.
type Outcome string

const (
	Allow              Outcome = "allow"
	RedirectToLogin    Outcome = "redirect_login"
	RedirectFromPublic Outcome = "redirect_public"
	RedirectFromAdmin  Outcome = "redirect_admin"
)

// Decision is the result of evaluating a request path.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Redirect reports whether the request must be answered with a redirect.
func (d Decision) Redirect() bool {
	return d.Outcome != Allow
}

// IsPublic reports whether path may be visited without a session.
func IsPublic(path string) bool {
	return publicPaths[path]
}

// IsAdminPath reports whether path falls in the admin area. The match is a
// plain prefix, so /administrator is treated as an admin path too.
func IsAdminPath(path string) bool {
	return strings.HasPrefix(path, AdminPath)
}

// HomeFor returns the landing page for a role: /admin for administrators,
// /employee/profile for everyone else.
func HomeFor(role string) string {
	if role == models.RoleAdmin {
		return AdminPath
	}
	return EmployeeProfilePath
}

// LoginRedirect builds the login URL that returns the user to path afterwards.
// Slashes are kept readable: /login?redirect=/admin/users.
func LoginRedirect(path string) string {
	return LoginPath + "?redirect=" + strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}

// Decide evaluates the rules in order; the first match wins.
//
//  1. no session, path not public: redirect to login
//  2. session, path public: redirect to the role home
//  3. session, not admin, path under /admin: redirect to the role home
//  4. allow
//
// Employees are not confined to their profile; any non-admin path is allowed.
func Decide(path string, s session.Session, ok bool) Decision {
	if !ok {
		if IsPublic(path) {
			return Decision{Outcome: Allow}
		}
		return Decision{Outcome: RedirectToLogin, Location: LoginRedirect(path)}
	}

	if IsPublic(path) {
		return Decision{Outcome: RedirectFromPublic, Location: HomeFor(s.Role)}
	}

	if !s.IsAdmin() && IsAdminPath(path) {
		return Decision{Outcome: RedirectFromAdmin, Location: HomeFor(s.Role)}
	}

	return Decision{Outcome: Allow}
}

// SafeRedirect returns target if it is a local path that Decide would allow
// for s, otherwise the role home. Used after login to honor ?redirect=.
func SafeRedirect(target string, s session.Session) string {
	home := HomeFor(s.Role)
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return home
	}

	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return home
	}

	if Decide(u.Path, s, true).Redirect() {
		return home
	}

	return u.RequestURI()
}
