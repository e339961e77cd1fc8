package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/showroom-admin/backoffice/internal/shared"
)

// LoginPath is where unauthenticated visitors are sent.
const LoginPath = "/login"

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	// Forbidden renders the permission-denied response. Defaults to a plain 403.
	Forbidden http.Handler
}

// LoadPrincipal resolves the session user into a Principal stored in the
// request context. Unknown or inactive users are logged out.
func (m Middleware) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		userID, ok := sess.UserID()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		p, err := m.Service.Principal(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				m.logError("rbac load principal", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			sess.ClearUser()
			next.ServeHTTP(w, r)
			return
		}
		if !p.Active {
			sess.ClearUser()
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
	})
}

// RequireAuthenticated redirects anonymous visitors to the login page.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return m.RequireRole("")(next)
}

// RequireRole ensures the current principal holds role (or superuser).
// Anonymous visitors are redirected to login with the original target
// preserved; authenticated principals lacking the role get 403.
func (m Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil || !p.Active {
				RedirectToLogin(w, r)
				return
			}
			if !p.HasRole(role) {
				if m.Logger != nil {
					m.Logger.Info("rbac denied", slog.Int64("user_id", p.ID), slog.String("role", role), slog.String("path", r.URL.Path))
				}
				m.forbid(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RedirectToLogin sends the visitor to the login page preserving the target.
func RedirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (m Middleware) forbid(w http.ResponseWriter, r *http.Request) {
	if m.Forbidden != nil {
		m.Forbidden.ServeHTTP(w, r)
		return
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func (m Middleware) logError(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Any("error", err))
	}
}
