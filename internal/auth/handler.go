package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/infolibrary/infolibrary/internal/administrators"
	"github.com/infolibrary/infolibrary/internal/shared"
	"github.com/infolibrary/infolibrary/internal/view"
)

const (
	loginPath     = "/auth/login"
	emailCodePath = "/auth/login/2fa/email"
	codePath      = "/auth/login/2fa/code"
	afterLogin    = "/admin"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	tokens    *TokenIssuer
	pages     view.Responder
	sessions  *shared.SessionManager
	validator *validator.Validate
	secure    bool
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, tokens *TokenIssuer, pages view.Responder, sessions *shared.SessionManager, secure bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		tokens:    tokens,
		pages:     pages,
		sessions:  sessions,
		validator: shared.NewValidator(),
		secure:    secure,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/login/2fa/email", h.showEmailForm)
	r.Post("/login/2fa/email", h.handleEmail)
	r.Get("/login/2fa/code", h.showCodeForm)
	r.Post("/login/2fa/code", h.handleCode)
	r.Post("/logout", h.handleLogout)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/auth/login.html", "Sign in", loginForm{}, nil, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	if err := shared.ValidateStruct(h.validator, form); err != nil {
		form.Password = ""
		h.render(w, r, "pages/auth/login.html", "Sign in", form, view.FieldErrors(err), http.StatusBadRequest)
		return
	}
	admin, err := h.service.Login(r.Context(), form.Email, form.Password)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("login", slog.Any("error", err))
		}
		form.Password = ""
		h.render(w, r, "pages/auth/login.html", "Sign in", form, shared.FieldErrors{"general": shared.UserSafeMessage(shared.ErrInvalidCredentials)}, http.StatusBadRequest)
		return
	}
	h.signIn(w, r, admin)
}

func (h *Handler) showEmailForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/auth/email.html", "Sign in with a code", emailForm{}, nil, http.StatusOK)
}

func (h *Handler) handleEmail(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := emailForm{Email: strings.TrimSpace(r.PostFormValue("email"))}
	if err := shared.ValidateStruct(h.validator, form); err != nil {
		h.render(w, r, "pages/auth/email.html", "Sign in with a code", form, view.FieldErrors(err), http.StatusBadRequest)
		return
	}
	if err := h.service.RequestCode(r.Context(), form.Email); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.pages.Fail(w, r, emailCodePath, err)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.Set(pendingEmailKey, form.Email)
	}
	h.pages.RedirectWithFlash(w, r, codePath, shared.FlashInfo, "A sign-in code has been sent to "+form.Email+".")
}

func (h *Handler) showCodeForm(w http.ResponseWriter, r *http.Request) {
	if pendingEmail(r) == "" {
		http.Redirect(w, r, emailCodePath, http.StatusSeeOther)
		return
	}
	h.render(w, r, "pages/auth/code.html", "Enter your code", codeForm{}, nil, http.StatusOK)
}

func (h *Handler) handleCode(w http.ResponseWriter, r *http.Request) {
	email := pendingEmail(r)
	if email == "" {
		http.Redirect(w, r, emailCodePath, http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := codeForm{Code: strings.TrimSpace(r.PostFormValue("code"))}
	if err := shared.ValidateStruct(h.validator, form); err != nil {
		h.render(w, r, "pages/auth/code.html", "Enter your code", codeForm{}, view.FieldErrors(err), http.StatusBadRequest)
		return
	}
	admin, err := h.service.LoginWithCode(r.Context(), email, form.Code)
	if err != nil {
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			h.pages.Fail(w, r, emailCodePath, err)
			return
		}
		h.render(w, r, "pages/auth/code.html", "Enter your code", codeForm{}, shared.FieldErrors{"code": "The code is invalid or has expired."}, http.StatusBadRequest)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.Delete(pendingEmailKey)
	}
	h.signIn(w, r, admin)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, h.secure)
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessions.Destroy(sess)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// signIn sets the authentication cookie and rotates the CSRF token.
func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, admin administrators.Administrator) {
	token, expires, err := h.tokens.Issue(admin)
	if err != nil {
		h.pages.Fail(w, r, loginPath, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if _, err := h.pages.CSRF.Rotate(r.Context(), sess); err != nil {
			h.logger.Warn("rotate csrf token", slog.Any("error", err))
		}
	}
	h.logger.Info("administrator signed in", slog.Int64("administrator_id", admin.ID))
	h.pages.RedirectWithFlash(w, r, afterLogin, shared.FlashSuccess, "Welcome back, "+admin.FullName()+".")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, form any, errs shared.FieldErrors, status int) {
	if errs == nil {
		errs = shared.FieldErrors{}
	}
	h.pages.Render(w, r, name, title, map[string]any{
		"Form":   form,
		"Errors": errs,
	}, status)
}

func pendingEmail(r *http.Request) string {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		return sess.Get(pendingEmailKey)
	}
	return ""
}
