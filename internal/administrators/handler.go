package administrators

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
	"github.com/infolibrary/infolibrary/internal/view"
)

const (
	basePath    = "/admin/administrators"
	profilePath = "/admin/profile"
	// rolesField is the multi-valued form field carrying role ids.
	rolesField = "roles"
)

// RoleCatalog lists the roles an administrator form may offer.
type RoleCatalog interface {
	Assignable(ctx context.Context) ([]rbac.Role, error)
}

// Handler manages administrator and profile endpoints.
type Handler struct {
	service *Service
	roles   RoleCatalog
	pages   view.Responder
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(service *Service, roles RoleCatalog, pages view.Responder, rbac rbac.Middleware) *Handler {
	return &Handler{service: service, roles: roles, pages: pages, rbac: rbac}
}

// MountRoutes registers administrator management routes. All are reserved to owners.
func (h *Handler) MountRoutes(r chi.Router) {
	owner := []string{rbac.OwnerRoleTitle}
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermReadAdministrator))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermCreateAdministrator))
		r.Get("/new", h.showCreate)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermUpdateAdministrator))
		r.Get("/{id}/edit", h.showEdit)
		r.Post("/{id}/edit", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermDeleteAdministrator))
		r.Post("/{id}/delete", h.delete)
	})
}

// MountProfileRoutes registers the signed-in administrator's own pages.
func (h *Handler) MountProfileRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(shared.StaffRoles(), shared.PermReadProfile))
		r.Get("/", h.showProfile)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated)
		r.Get("/edit", h.showProfileEdit)
		r.Post("/edit", h.updateProfile)
		r.Get("/password/edit", h.showPasswordEdit)
		r.Post("/password/edit", h.changePassword)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	list, err := h.service.Search(r.Context(), search)
	if err != nil {
		h.pages.Fail(w, r, "/admin", err)
		return
	}
	h.pages.Render(w, r, "pages/admin/administrators/index.html", "Administrators", map[string]any{
		"Administrators": list,
		"Search":         search,
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	detail, err := h.service.Profile(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.Render(w, r, "pages/admin/administrators/show.html", detail.Administrator.UserName, map[string]any{
		"Detail": detail,
	}, http.StatusOK)
}

func (h *Handler) showCreate(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, basePath, UpdateInput{}, nil, nil, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, desired, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	_, err := h.service.Create(r.Context(), CreateInput{
		Email:                in.Email,
		UserName:             in.UserName,
		FirstName:            in.FirstName,
		LastName:             in.LastName,
		Password:             in.Password,
		PasswordConfirmation: in.PasswordConfirmation,
	}, desired)
	if err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderForm(w, r, basePath, in, desired.IDs(), fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Administrator created")
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	admin, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	grants, err := h.service.Roles(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	in := UpdateInput{Email: admin.Email, UserName: admin.UserName, FirstName: admin.FirstName, LastName: admin.LastName}
	h.renderForm(w, r, editPath(id), in, rbac.GrantedIDs(grants), nil, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	in, desired, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Update(r.Context(), id, in, desired); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderForm(w, r, editPath(id), in, desired.IDs(), fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Administrator updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	if principal, ok := shared.PrincipalFromContext(r.Context()); ok && principal.ID == id {
		h.pages.RedirectWithFlash(w, r, basePath, shared.FlashError, "You cannot delete your own account.")
		return
	}
	if _, err := h.service.Delete(r.Context(), id); err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Administrator deleted")
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	detail, err := h.service.Profile(r.Context(), principal.ID)
	if err != nil {
		h.pages.Fail(w, r, "/", err)
		return
	}
	h.pages.Render(w, r, "pages/admin/profile/show.html", "Profile", map[string]any{
		"Detail": detail,
	}, http.StatusOK)
}

func (h *Handler) showProfileEdit(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	admin, err := h.service.Get(r.Context(), principal.ID)
	if err != nil {
		h.pages.Fail(w, r, "/", err)
		return
	}
	in := UpdateInput{Email: admin.Email, UserName: admin.UserName, FirstName: admin.FirstName, LastName: admin.LastName}
	h.renderProfileForm(w, r, in, nil, http.StatusOK)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	in, _, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.UpdateProfile(r.Context(), principal.ID, in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderProfileForm(w, r, in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, profilePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, profilePath, shared.FlashSuccess, "Profile updated")
}

func (h *Handler) showPasswordEdit(w http.ResponseWriter, r *http.Request) {
	h.renderPasswordForm(w, r, nil, http.StatusOK)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	principal, _ := shared.PrincipalFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := PasswordChange{
		OldPassword:          r.PostFormValue("oldPassword"),
		Password:             r.PostFormValue("password"),
		PasswordConfirmation: r.PostFormValue("passwordConfirmation"),
	}
	if err := h.service.ChangePassword(r.Context(), principal.ID, in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderPasswordForm(w, r, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, profilePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, profilePath, shared.FlashSuccess, "Password changed")
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (UpdateInput, rbac.Desired, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return UpdateInput{}, rbac.Desired{}, false
	}
	desired, err := rbac.DesiredFromForm(r.PostForm[rolesField])
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return UpdateInput{}, rbac.Desired{}, false
	}
	return UpdateInput{
		Email:                r.PostFormValue("email"),
		UserName:             r.PostFormValue("userName"),
		FirstName:            r.PostFormValue("firstName"),
		LastName:             r.PostFormValue("lastName"),
		Password:             r.PostFormValue("password"),
		PasswordConfirmation: r.PostFormValue("passwordConfirmation"),
	}, desired, true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, action string, in UpdateInput, roleIDs []int64, errs shared.FieldErrors, status int) {
	if errs == nil {
		errs = shared.FieldErrors{}
	}
	roles, err := h.roles.Assignable(r.Context())
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	selected := make(map[int64]bool, len(roleIDs))
	for _, id := range roleIDs {
		selected[id] = true
	}
	in.Password, in.PasswordConfirmation = "", ""
	h.pages.Render(w, r, "pages/admin/administrators/form.html", "Administrator", map[string]any{
		"Form":      in,
		"Errors":    errs,
		"Action":    action,
		"IsEdit":    action != basePath,
		"Roles":     roles,
		"Selected":  selected,
		"FieldName": rolesField,
	}, status)
}

func (h *Handler) renderProfileForm(w http.ResponseWriter, r *http.Request, in UpdateInput, errs shared.FieldErrors, status int) {
	if errs == nil {
		errs = shared.FieldErrors{}
	}
	h.pages.Render(w, r, "pages/admin/profile/form.html", "Edit profile", map[string]any{
		"Form":   in,
		"Errors": errs,
	}, status)
}

func (h *Handler) renderPasswordForm(w http.ResponseWriter, r *http.Request, errs shared.FieldErrors, status int) {
	if errs == nil {
		errs = shared.FieldErrors{}
	}
	h.pages.Render(w, r, "pages/admin/profile/password.html", "Change password", map[string]any{
		"Errors": errs,
	}, status)
}

func editPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10) + "/edit"
}
