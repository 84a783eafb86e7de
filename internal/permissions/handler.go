package permissions

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
	"github.com/infolibrary/infolibrary/internal/view"
)

const basePath = "/admin/permissions"

// EntityCatalog lists the entities a permission can be attached to.
type EntityCatalog interface {
	List(ctx context.Context) ([]rbac.Entity, error)
	ListExcept(ctx context.Context, title string) ([]rbac.Entity, error)
}

// Handler manages permission endpoints. All routes are reserved to owners.
type Handler struct {
	service  *Service
	entities EntityCatalog
	pages    view.Responder
	rbac     rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(service *Service, entities EntityCatalog, pages view.Responder, rbac rbac.Middleware) *Handler {
	return &Handler{service: service, entities: entities, pages: pages, rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	owner := []string{rbac.OwnerRoleTitle}
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermReadPermission))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermCreatePermission))
		r.Get("/new", h.showCreate)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermUpdatePermission))
		r.Get("/{id}/edit", h.showEdit)
		r.Post("/{id}/edit", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermDeletePermission))
		r.Post("/{id}/delete", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	list, err := h.service.Search(r.Context(), search)
	if err != nil {
		h.pages.Fail(w, r, "/admin", err)
		return
	}
	h.pages.Render(w, r, "pages/admin/permissions/index.html", "Permissions", map[string]any{
		"Permissions": list,
		"Search":      search,
	}, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.Render(w, r, "pages/admin/permissions/show.html", detail.Title, map[string]any{
		"Permission": detail,
	}, http.StatusOK)
}

func (h *Handler) showCreate(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, basePath, "", Input{}, nil, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Create(r.Context(), in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderForm(w, r, basePath, "", in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Permission created")
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	in := Input{
		Title:       detail.Title,
		Description: detail.Description,
		EntityID:    detail.EntityID,
		Action:      detail.Action.String(),
	}
	h.renderForm(w, r, editPath(id), detail.EntityTitle, in, nil, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Update(r.Context(), id, in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderForm(w, r, editPath(id), "", in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Permission updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	if _, err := h.service.Delete(r.Context(), id); err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Permission deleted")
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (Input, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Input{}, false
	}
	entityID, _ := strconv.ParseInt(r.PostFormValue("entityId"), 10, 64)
	return Input{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		EntityID:    entityID,
		Action:      r.PostFormValue("action"),
	}, true
}

// renderForm lists the current entity first, followed by every other entity.
func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, action, currentEntity string, in Input, errs shared.FieldErrors, status int) {
	if errs == nil {
		errs = shared.FieldErrors{}
	}
	var (
		choices []rbac.Entity
		err     error
	)
	if currentEntity != "" {
		choices, err = h.entities.ListExcept(r.Context(), currentEntity)
	} else {
		choices, err = h.entities.List(r.Context())
	}
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.Render(w, r, "pages/admin/permissions/form.html", "Permission", map[string]any{
		"Form":          in,
		"Errors":        errs,
		"Action":        action,
		"IsEdit":        action != basePath,
		"CurrentEntity": currentEntity,
		"Entities":      choices,
		"Actions":       rbac.Actions[:],
	}, status)
}

func editPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10) + "/edit"
}
