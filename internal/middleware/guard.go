package middleware

import (
	"net/http"
	"strings"

	"github.com/ieraasyl/StreamLink/internal/services"
	"github.com/ieraasyl/StreamLink/pkg/utils"
)

// Page paths the guard knows about.
const (
	LoginPath     = "/login"
	RegisterPath  = "/register"
	DashboardPath = "/dashboard"
)

// GuardDecision is the outcome of Guard. An empty Redirect means the request
// may proceed.
type GuardDecision struct {
	Redirect string
}

// Allowed reports whether the request may proceed.
func (d GuardDecision) Allowed() bool {
	return d.Redirect == ""
}

// Guard decides page access from the presence of a session cookie alone.
// The dashboard subtree requires a session; the login and register subtrees
// are only for visitors without one. Everything else is allowed.
func Guard(hasSession bool, path string) GuardDecision {
	switch {
	case !hasSession && inSubtree(path, DashboardPath):
		return GuardDecision{Redirect: LoginPath}
	case hasSession && (inSubtree(path, LoginPath) || inSubtree(path, RegisterPath)):
		return GuardDecision{Redirect: DashboardPath}
	default:
		return GuardDecision{}
	}
}

// inSubtree matches root itself and anything below it, but not lookalikes
// such as /dashboards.
func inSubtree(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+"/")
}

// RouteGuard applies Guard to GET and HEAD requests. It does not verify the
// cookie; handlers that need the session validate it themselves, so a
// forged cookie gets past the guard but not past the handler.
func RouteGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			hasSession := utils.CookieValue(r, services.SessionCookieName) != ""
			if decision := Guard(hasSession, r.URL.Path); !decision.Allowed() {
				http.Redirect(w, r, decision.Redirect, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
