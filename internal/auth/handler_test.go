package auth_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/infolibrary/infolibrary/internal/administrators"
	"github.com/infolibrary/infolibrary/internal/auth"
	"github.com/infolibrary/infolibrary/internal/shared"
	"github.com/infolibrary/infolibrary/internal/view"
	_ "github.com/infolibrary/infolibrary/testing"
)

type stubDirectory struct {
	admins map[string]administrators.Administrator
}

func newStubDirectory(t *testing.T) *stubDirectory {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	return &stubDirectory{admins: map[string]administrators.Administrator{
		"user@test.local": {ID: 1, Email: "user@test.local", UserName: "user", FirstName: "Test", PasswordHash: string(hashed)},
	}}
}

func (s *stubDirectory) Authenticate(ctx context.Context, email, password string) (administrators.Administrator, error) {
	admin, ok := s.admins[email]
	if !ok || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return administrators.Administrator{}, shared.ErrInvalidCredentials
	}
	return admin, nil
}

func (s *stubDirectory) FindByEmail(ctx context.Context, email string) (administrators.Administrator, error) {
	admin, ok := s.admins[email]
	if !ok {
		return administrators.Administrator{}, shared.ErrNotFound
	}
	return admin, nil
}

func (s *stubDirectory) Get(ctx context.Context, id int64) (administrators.Administrator, error) {
	for _, admin := range s.admins {
		if admin.ID == id {
			return admin, nil
		}
	}
	return administrators.Administrator{}, shared.ErrNotFound
}

type captureSender struct {
	sent map[string]string
}

func (c *captureSender) SendLoginCode(ctx context.Context, email, code string) error {
	c.sent[email] = code
	return nil
}

type harness struct {
	router     http.Handler
	sessions   *shared.SessionManager
	tokens     *auth.TokenIssuer
	sender     *captureSender
	directory  *stubDirectory
	sessionID  string
	authCookie *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	templates, err := view.NewEngine()
	require.NoError(t, err)

	directory := newStubDirectory(t)
	sender := &captureSender{sent: map[string]string{}}
	tokens := auth.NewTokenIssuer("jwtsecret", time.Hour)
	service := auth.NewService(directory, auth.NewCodeStore(redisClient, time.Minute), sender, nil)
	pages := view.Responder{Templates: templates, CSRF: shared.NewCSRFManager("csrfsecret")}
	handler := auth.NewHandler(nil, service, tokens, pages, sessionManager, false)

	r := chi.NewRouter()
	r.Route("/auth", handler.MountRoutes)
	return &harness{router: r, sessions: sessionManager, tokens: tokens, sender: sender, directory: directory}
}

func (h *harness) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if h.sessionID != "" {
		req.AddCookie(&http.Cookie{Name: h.sessions.CookieName(), Value: h.sessionID})
	}
	if h.authCookie != nil {
		req.AddCookie(h.authCookie)
	}
	sess, err := h.sessions.Load(req.Context(), req)
	require.NoError(t, err)
	ctx := shared.ContextWithSession(req.Context(), sess)
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.NoError(t, h.sessions.Commit(ctx, rec, req, sess))
	h.sessionID = sess.ID
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			h.authCookie = c
		}
	}
	return rec
}

func TestLoginPage(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodGet, "/auth/login", nil)

	assert.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "<form")
}

func TestLoginInvalidCredentials(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPost, "/auth/login", url.Values{"email": {"user@test.local"}, "password": {"wrongpass"}})

	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Invalid email or password.")
	assert.Nil(t, h.authCookie)
}

func TestLoginSetsAuthenticationCookie(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPost, "/auth/login", url.Values{"email": {"user@test.local"}, "password": {"correctpass"}})

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/admin", res.Header().Get("Location"))
	require.NotNil(t, h.authCookie)
	assert.True(t, h.authCookie.HttpOnly)
	principal, err := h.tokens.Parse(h.authCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(1), principal.ID)
}

func TestLoginWithEmailCode(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPost, "/auth/login/2fa/email", url.Values{"email": {"user@test.local"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login/2fa/code", res.Header().Get("Location"))
	code := h.sender.sent["user@test.local"]
	require.Len(t, code, 5)

	res = h.do(t, http.MethodGet, "/auth/login/2fa/code", nil)
	assert.Equal(t, http.StatusOK, res.Code)

	wrong := "00000"
	res = h.do(t, http.MethodPost, "/auth/login/2fa/code", url.Values{"code": {wrong}})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Nil(t, h.authCookie)

	res = h.do(t, http.MethodPost, "/auth/login/2fa/code", url.Values{"code": {code}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/admin", res.Header().Get("Location"))
	require.NotNil(t, h.authCookie)

	res = h.do(t, http.MethodPost, "/auth/login/2fa/code", url.Values{"code": {code}})
	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/auth/login/2fa/email", res.Header().Get("Location"), "the pending address is cleared after sign-in")
}

func TestUnknownEmailRedirectsHome(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPost, "/auth/login/2fa/email", url.Values{"email": {"stranger@test.local"}})

	assert.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
	assert.Empty(t, h.sender.sent)
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/auth/login", url.Values{"email": {"user@test.local"}, "password": {"correctpass"}})
	require.NotNil(t, h.authCookie)

	res := h.do(t, http.MethodPost, "/auth/logout", url.Values{})

	assert.Equal(t, http.StatusSeeOther, res.Code)
	require.NotNil(t, h.authCookie)
	assert.Empty(t, h.authCookie.Value)
	assert.Negative(t, h.authCookie.MaxAge)
}

func TestAuthenticatorResolvesPrincipal(t *testing.T) {
	h := newHarness(t)
	service := auth.NewService(h.directory, nil, nil, nil)
	authenticator := auth.NewAuthenticator(h.tokens, service, nil, false)

	var seen shared.Principal
	var signedIn bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, signedIn = shared.PrincipalFromContext(r.Context())
	})

	token, _, err := h.tokens.Issue(h.directory.admins["user@test.local"])
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	authenticator.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, signedIn)
	assert.Equal(t, "user", seen.UserName)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: "not-a-token"})
	rec := httptest.NewRecorder()
	authenticator.Middleware(next).ServeHTTP(rec, req)
	assert.False(t, signedIn)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), auth.CookieName+"=;")

	delete(h.directory.admins, "user@test.local")
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	authenticator.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, signedIn)
}
