package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/infolibrary/infolibrary/internal/shared"
)

const (
	// LoginPath receives requests that carry no authenticated administrator.
	LoginPath = "/auth/login"
	// DeniedPath receives requests the authorizer rejected.
	DeniedPath = "/"
)

// Authorizing is the decision surface the middleware depends on.
type Authorizing interface {
	Authorize(ctx context.Context, administratorID int64, allowedRoles []string, requiredPermission string) (Decision, error)
}

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Authorizer Authorizing
	Logger     *slog.Logger
	// Fail renders the failure page when the authorizer errors. A nil Fail
	// answers with a plain 500.
	Fail func(w http.ResponseWriter, r *http.Request, err error)
}

// Require admits the request when the authenticated administrator is an Owner
// or holds, through one of allowedRoles, the permission titled permission.
// The decision is stored in the request context. Denied requests are
// redirected with the same message a missing record produces.
func (m Middleware) Require(allowedRoles []string, permission string) func(http.Handler) http.Handler {
	roles := append([]string(nil), allowedRoles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			decision, err := m.Authorizer.Authorize(r.Context(), principal.ID, roles, permission)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac authorize", slog.String("permission", permission), slog.Int64("administrator_id", principal.ID), slog.Any("error", err))
				}
				m.fail(w, r, err)
				return
			}
			if !decision.Allowed {
				if sess := shared.SessionFromContext(r.Context()); sess != nil {
					sess.AddFlash(shared.FlashMessage{Kind: shared.FlashError, Message: shared.UserSafeMessage(shared.ErrUnauthorized)})
				}
				http.Redirect(w, r, DeniedPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithDecision(r.Context(), decision)))
		})
	}
}

// RequireAuthenticated admits any signed-in administrator.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.PrincipalFromContext(r.Context()); !ok {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) fail(w http.ResponseWriter, r *http.Request, err error) {
	if m.Fail != nil {
		m.Fail(w, r, err)
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
