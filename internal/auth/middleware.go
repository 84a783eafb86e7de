package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/infolibrary/infolibrary/internal/shared"
)

// Authenticator resolves the authentication cookie into a shared.Principal.
type Authenticator struct {
	tokens  *TokenIssuer
	service *Service
	logger  *slog.Logger
	secure  bool
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(tokens *TokenIssuer, service *Service, logger *slog.Logger, secure bool) *Authenticator {
	return &Authenticator{tokens: tokens, service: service, logger: logger, secure: secure}
}

// Middleware attaches the principal of a valid token to the request context.
// Invalid tokens, or tokens naming a deleted administrator, are cleared and
// the request continues anonymously.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		principal, err := a.tokens.Parse(cookie.Value)
		if err != nil {
			clearCookie(w, a.secure)
			next.ServeHTTP(w, r)
			return
		}
		admin, err := a.service.Lookup(r.Context(), principal.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				clearCookie(w, a.secure)
			} else if a.logger != nil {
				a.logger.Warn("resolve principal", slog.Int64("administrator_id", principal.ID), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		principal.Email = admin.Email
		principal.UserName = admin.UserName
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

func clearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
