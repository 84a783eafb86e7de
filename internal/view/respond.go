package view

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
)

// Responder carries the render and redirect helpers every page handler uses.
type Responder struct {
	Logger    *slog.Logger
	Templates *Engine
	CSRF      *shared.CSRFManager
}

// Render writes a page with the session flash, CSRF token and current
// administrator filled in.
func (p Responder) Render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	ctx := r.Context()
	sess := shared.SessionFromContext(ctx)
	var csrfToken string
	var flash *shared.FlashMessage
	if sess != nil {
		csrfToken, _ = p.CSRF.EnsureToken(ctx, sess)
		flash = sess.PopFlash()
	}
	viewData := TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		IsOwner:     rbac.DecisionFromContext(ctx).IsOwner,
		Data:        data,
	}
	if principal, ok := shared.PrincipalFromContext(ctx); ok {
		viewData.Principal = &principal
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.Templates.Render(w, name, viewData); err != nil {
		p.logger().Error("render template", slog.String("template", name), slog.Any("error", err))
	}
}

// RedirectWithFlash queues a flash message and redirects with 303.
func (p Responder) RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// Fail reports err to the administrator. Missing records redirect to fallback
// with the same message a denied authorization produces; anything else is
// logged and rendered as a server error.
func (p Responder) Fail(w http.ResponseWriter, r *http.Request, fallback string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrUnauthorized),
		errors.Is(err, shared.ErrValidation), errors.Is(err, shared.ErrConstraintViolation):
		p.RedirectWithFlash(w, r, fallback, shared.FlashError, shared.UserSafeMessage(err))
	default:
		p.logger().Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		p.Render(w, r, "pages/error.html", "Error", map[string]any{"Message": shared.UserSafeMessage(err)}, http.StatusInternalServerError)
	}
}

// FieldErrors extracts per-field validation messages from err.
func FieldErrors(err error) shared.FieldErrors {
	var fields shared.FieldErrors
	if errors.As(err, &fields) {
		return fields
	}
	if errors.Is(err, shared.ErrConstraintViolation) {
		return shared.FieldErrors{"general": shared.UserSafeMessage(err)}
	}
	return nil
}

func (p Responder) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// PathID parses the {id} route parameter. Malformed ids are reported as
// shared.ErrNotFound.
func PathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, shared.ErrNotFound
	}
	return id, nil
}
