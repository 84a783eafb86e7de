package view

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
)

type failingAuthorizer struct{}

func (failingAuthorizer) Authorize(ctx context.Context, administratorID int64, allowedRoles []string, requiredPermission string) (rbac.Decision, error) {
	return rbac.Decision{}, fmt.Errorf("%w: role lookup", shared.ErrUpstream)
}

func TestGuardStoreErrorRendersErrorPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	pages := Responder{Templates: engine}
	guard := rbac.Middleware{
		Authorizer: failingAuthorizer{},
		Fail: func(w http.ResponseWriter, r *http.Request, err error) {
			pages.Fail(w, r, rbac.DeniedPath, err)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/books", nil)
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), shared.Principal{ID: 7}))
	rec := httptest.NewRecorder()
	guard.Require(shared.StaffRoles(), shared.PermReadBook)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
	assert.Contains(t, rec.Body.String(), shared.UserSafeMessage(shared.ErrUpstream))
	assert.NotContains(t, rec.Body.String(), "role lookup")
}

func TestFailRedirectsMissingRecords(t *testing.T) {
	pages := Responder{}
	req := httptest.NewRequest(http.MethodGet, "/admin/books/9/edit", nil)
	rec := httptest.NewRecorder()

	pages.Fail(rec, req, "/admin/books", shared.ErrNotFound)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/books", rec.Header().Get("Location"))
}
