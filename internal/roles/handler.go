package roles

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
	"github.com/infolibrary/infolibrary/internal/view"
)

const (
	basePath = "/admin/roles"
	// permissionsField is the multi-valued form field carrying permission ids.
	permissionsField = "permissions"
)

// Handler manages role endpoints. All routes are reserved to owners.
type Handler struct {
	service *Service
	pages   view.Responder
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(service *Service, pages view.Responder, rbac rbac.Middleware) *Handler {
	return &Handler{service: service, pages: pages, rbac: rbac}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	owner := []string{rbac.OwnerRoleTitle}
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermReadRole))
		r.Get("/", h.listRoles)
		r.Get("/{id}", h.showRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermCreateRole))
		r.Get("/new", h.showCreateRoleForm)
		r.Post("/", h.createRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermUpdateRole))
		r.Get("/{id}/edit", h.showEditRoleForm)
		r.Post("/{id}/edit", h.updateRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermDeleteRole))
		r.Post("/{id}/delete", h.deleteRole)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	roles, err := h.service.Search(r.Context(), search)
	if err != nil {
		h.pages.Fail(w, r, "/admin", err)
		return
	}
	h.pages.Render(w, r, "pages/admin/roles/index.html", "Roles", map[string]any{
		"Roles":  roles,
		"Search": search,
	}, http.StatusOK)
}

func (h *Handler) showRole(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.Render(w, r, "pages/admin/roles/show.html", detail.Role.Title, map[string]any{
		"Role":   detail.Role,
		"Matrix": detail.Matrix,
	}, http.StatusOK)
}

func (h *Handler) showCreateRoleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, basePath, Input{}, nil, nil, http.StatusOK)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	in, desired, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Create(r.Context(), in, desired); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderForm(w, r, basePath, in, desired.IDs(), fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Role created")
}

func (h *Handler) showEditRoleForm(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.renderDetailForm(w, r, editPath(id), Input{Title: detail.Role.Title, Description: detail.Role.Description}, detail, nil, http.StatusOK)
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
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
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Role updated")
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	if _, err := h.service.Delete(r.Context(), id); err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Role deleted")
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (Input, rbac.Desired, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Input{}, rbac.Desired{}, false
	}
	desired, err := rbac.DesiredFromForm(r.PostForm[permissionsField])
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Input{}, rbac.Desired{}, false
	}
	return Input{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
	}, desired, true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, action string, in Input, permissionIDs []int64, errs shared.FieldErrors, status int) {
	detail, err := h.service.DetailFor(r.Context(), permissionIDs)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.renderDetailForm(w, r, action, in, detail, errs, status)
}

func (h *Handler) renderDetailForm(w http.ResponseWriter, r *http.Request, action string, in Input, detail Detail, errs shared.FieldErrors, status int) {
	if errs == nil {
		errs = shared.FieldErrors{}
	}
	h.pages.Render(w, r, "pages/admin/roles/form.html", "Role", map[string]any{
		"Form":      in,
		"Errors":    errs,
		"Action":    action,
		"IsEdit":    action != basePath,
		"Matrix":    detail.Matrix,
		"FieldName": permissionsField,
	}, status)
}

func editPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10) + "/edit"
}
