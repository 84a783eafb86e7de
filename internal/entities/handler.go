package entities

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
	"github.com/infolibrary/infolibrary/internal/view"
)

const basePath = "/admin/entities"

// Handler manages entity catalog endpoints. All routes are reserved to owners.
type Handler struct {
	service *Service
	pages   view.Responder
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(service *Service, pages view.Responder, rbac rbac.Middleware) *Handler {
	return &Handler{service: service, pages: pages, rbac: rbac}
}

// MountRoutes registers entity routes.
func (h *Handler) MountRoutes(r chi.Router) {
	owner := []string{rbac.OwnerRoleTitle}
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermReadEntity))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermCreateEntity))
		r.Get("/new", h.showCreate)
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermUpdateEntity))
		r.Get("/{id}/edit", h.showEdit)
		r.Post("/{id}/edit", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(owner, shared.PermDeleteEntity))
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
	h.pages.Render(w, r, "pages/admin/entities/index.html", "Entities", map[string]any{
		"Entities": list,
		"Search":   search,
	}, http.StatusOK)
}

func (h *Handler) showCreate(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, basePath, Input{}, nil, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Create(r.Context(), in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderForm(w, r, basePath, in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Entity created")
}

func (h *Handler) showEdit(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	entity, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.renderForm(w, r, editPath(id), Input{Title: entity.Title, Description: entity.Description}, nil, http.StatusOK)
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
			h.renderForm(w, r, editPath(id), in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, basePath, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Entity updated")
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
	h.pages.RedirectWithFlash(w, r, basePath, shared.FlashSuccess, "Entity deleted")
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (Input, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return Input{}, false
	}
	return Input{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
	}, true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, action string, in Input, errs shared.FieldErrors, status int) {
	if errs == nil {
		errs = shared.FieldErrors{}
	}
	h.pages.Render(w, r, "pages/admin/entities/form.html", "Entity", map[string]any{
		"Form":   in,
		"Errors": errs,
		"Action": action,
		"IsEdit": action != basePath,
	}, status)
}

func editPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10) + "/edit"
}
