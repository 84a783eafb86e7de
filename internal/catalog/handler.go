package catalog

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
	"github.com/infolibrary/infolibrary/internal/view"
)

const (
	adminBooks   = "/admin/books"
	adminAuthors = "/admin/authors"
	adminGenres  = "/admin/genres"
)

// Handler wires catalog management endpoints for staff.
type Handler struct {
	service *Service
	pages   view.Responder
	rbac    rbac.Middleware
}

// NewHandler constructs the admin catalog handler.
func NewHandler(service *Service, pages view.Responder, rbac rbac.Middleware) *Handler {
	return &Handler{service: service, pages: pages, rbac: rbac}
}

// MountRoutes registers the dashboard and the book, author and genre
// management routes on r, which is expected to be mounted at /admin.
func (h *Handler) MountRoutes(r chi.Router) {
	staff := shared.StaffRoles()

	r.With(h.rbac.Require(staff, shared.PermReadHome)).Get("/", h.dashboard)

	r.Route("/books", func(r chi.Router) {
		r.With(h.rbac.Require(staff, shared.PermReadBook)).Get("/", h.listBooks)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.Require(staff, shared.PermCreateBook))
			r.Get("/new", h.showCreateBook)
			r.Post("/", h.createBook)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.Require(staff, shared.PermUpdateBook))
			r.Get("/{id}/edit", h.showEditBook)
			r.Post("/{id}/edit", h.updateBook)
		})
		r.With(h.rbac.Require(staff, shared.PermDeleteBook)).Post("/{id}/delete", h.deleteBook)
	})

	r.Route("/authors", func(r chi.Router) {
		r.With(h.rbac.Require(staff, shared.PermReadAuthor)).Get("/", h.listAuthors)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.Require(staff, shared.PermCreateAuthor))
			r.Get("/new", h.showCreateAuthor)
			r.Post("/", h.createAuthor)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.Require(staff, shared.PermUpdateAuthor))
			r.Get("/{id}/edit", h.showEditAuthor)
			r.Post("/{id}/edit", h.updateAuthor)
		})
		r.With(h.rbac.Require(staff, shared.PermDeleteAuthor)).Post("/{id}/delete", h.deleteAuthor)
	})

	r.Route("/genres", func(r chi.Router) {
		r.With(h.rbac.Require(staff, shared.PermReadGenre)).Get("/", h.listGenres)
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.Require(staff, shared.PermCreateGenre))
			r.Get("/new", h.showCreateGenre)
			r.Post("/", h.createGenre)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.Require(staff, shared.PermUpdateGenre))
			r.Get("/{id}/edit", h.showEditGenre)
			r.Post("/{id}/edit", h.updateGenre)
		})
		r.With(h.rbac.Require(staff, shared.PermDeleteGenre)).Post("/{id}/delete", h.deleteGenre)
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	var (
		books   []Book
		authors []Author
		genres  []Genre
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) { books, err = h.service.Books(ctx, BookFilter{}); return err })
	g.Go(func() (err error) { authors, err = h.service.Authors(ctx, ""); return err })
	g.Go(func() (err error) { genres, err = h.service.Genres(ctx, ""); return err })
	if err := g.Wait(); err != nil {
		h.pages.Fail(w, r, "/", err)
		return
	}
	h.pages.Render(w, r, "pages/admin/dashboard.html", "Dashboard", map[string]any{
		"BookCount":   len(books),
		"AuthorCount": len(authors),
		"GenreCount":  len(genres),
	}, http.StatusOK)
}

// Books

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	books, err := h.service.Books(r.Context(), BookFilter{Search: search})
	if err != nil {
		h.pages.Fail(w, r, "/admin", err)
		return
	}
	h.pages.Render(w, r, "pages/admin/books/index.html", "Books", map[string]any{
		"Books":  books,
		"Search": search,
	}, http.StatusOK)
}

func (h *Handler) showCreateBook(w http.ResponseWriter, r *http.Request) {
	h.renderBookForm(w, r, adminBooks, BookInput{}, nil, http.StatusOK)
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	in, ok := parseBookForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.CreateBook(r.Context(), in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderBookForm(w, r, adminBooks, in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, adminBooks, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, adminBooks, shared.FlashSuccess, "Book created")
}

func (h *Handler) showEditBook(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, adminBooks, err)
		return
	}
	book, err := h.service.Book(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, adminBooks, err)
		return
	}
	in := BookInput{Title: book.Title, Description: book.Description}
	if book.PublicationDate != nil {
		in.PublicationDate = book.PublicationDate.Format(dateLayout)
	}
	if book.AuthorID != nil {
		in.AuthorID = *book.AuthorID
	}
	if book.GenreID != nil {
		in.GenreID = *book.GenreID
	}
	h.renderBookForm(w, r, editPath(adminBooks, id), in, nil, http.StatusOK)
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, adminBooks, err)
		return
	}
	in, ok := parseBookForm(w, r)
	if !ok {
		return
	}
	if _, err := h.service.UpdateBook(r.Context(), id, in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderBookForm(w, r, editPath(adminBooks, id), in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, adminBooks, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, adminBooks, shared.FlashSuccess, "Book updated")
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, adminBooks, err)
		return
	}
	if _, err := h.service.DeleteBook(r.Context(), id); err != nil {
		h.pages.Fail(w, r, adminBooks, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, adminBooks, shared.FlashSuccess, "Book deleted")
}

func (h *Handler) renderBookForm(w http.ResponseWriter, r *http.Request, action string, in BookInput, errs shared.FieldErrors, status int) {
	ctx := r.Context()
	authors, err := h.service.Authors(ctx, "")
	if err != nil {
		h.pages.Fail(w, r, adminBooks, err)
		return
	}
	genres, err := h.service.Genres(ctx, "")
	if err != nil {
		h.pages.Fail(w, r, adminBooks, err)
		return
	}
	if errs == nil {
		errs = shared.FieldErrors{}
	}
	h.pages.Render(w, r, "pages/admin/books/form.html", "Book", map[string]any{
		"Form":    in,
		"Errors":  errs,
		"Action":  action,
		"IsEdit":  action != adminBooks,
		"Authors": authors,
		"Genres":  genres,
	}, status)
}

func parseBookForm(w http.ResponseWriter, r *http.Request) (BookInput, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return BookInput{}, false
	}
	return BookInput{
		Title:           r.PostFormValue("title"),
		Description:     r.PostFormValue("description"),
		PublicationDate: r.PostFormValue("publicationDate"),
		AuthorID:        formID(r.PostFormValue("authorId")),
		GenreID:         formID(r.PostFormValue("genreId")),
	}, true
}

// Authors

func (h *Handler) listAuthors(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	authors, err := h.service.Authors(r.Context(), search)
	if err != nil {
		h.pages.Fail(w, r, "/admin", err)
		return
	}
	h.pages.Render(w, r, "pages/admin/authors/index.html", "Authors", map[string]any{
		"Authors": authors,
		"Search":  search,
	}, http.StatusOK)
}

func (h *Handler) showCreateAuthor(w http.ResponseWriter, r *http.Request) {
	h.renderAuthorForm(w, r, adminAuthors, AuthorInput{}, nil, http.StatusOK)
}

func (h *Handler) createAuthor(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := AuthorInput{FullName: r.PostFormValue("fullName"), Biography: r.PostFormValue("biography")}
	if _, err := h.service.CreateAuthor(r.Context(), in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderAuthorForm(w, r, adminAuthors, in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, adminAuthors, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, adminAuthors, shared.FlashSuccess, "Author created")
}

func (h *Handler) showEditAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, adminAuthors, err)
		return
	}
	author, err := h.service.Author(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, adminAuthors, err)
		return
	}
	h.renderAuthorForm(w, r, editPath(adminAuthors, id), AuthorInput{FullName: author.FullName, Biography: author.Biography}, nil, http.StatusOK)
}

func (h *Handler) updateAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, adminAuthors, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := AuthorInput{FullName: r.PostFormValue("fullName"), Biography: r.PostFormValue("biography")}
	if _, err := h.service.UpdateAuthor(r.Context(), id, in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderAuthorForm(w, r, editPath(adminAuthors, id), in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, adminAuthors, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, adminAuthors, shared.FlashSuccess, "Author updated")
}

func (h *Handler) deleteAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, adminAuthors, err)
		return
	}
	if _, err := h.service.DeleteAuthor(r.Context(), id); err != nil {
		h.pages.Fail(w, r, adminAuthors, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, adminAuthors, shared.FlashSuccess, "Author deleted")
}

func (h *Handler) renderAuthorForm(w http.ResponseWriter, r *http.Request, action string, in AuthorInput, errs shared.FieldErrors, status int) {
	if errs == nil {
		errs = shared.FieldErrors{}
	}
	h.pages.Render(w, r, "pages/admin/authors/form.html", "Author", map[string]any{
		"Form":   in,
		"Errors": errs,
		"Action": action,
		"IsEdit": action != adminAuthors,
	}, status)
}

// Genres

func (h *Handler) listGenres(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	genres, err := h.service.Genres(r.Context(), search)
	if err != nil {
		h.pages.Fail(w, r, "/admin", err)
		return
	}
	h.pages.Render(w, r, "pages/admin/genres/index.html", "Genres", map[string]any{
		"Genres": genres,
		"Search": search,
	}, http.StatusOK)
}

func (h *Handler) showCreateGenre(w http.ResponseWriter, r *http.Request) {
	h.renderGenreForm(w, r, adminGenres, GenreInput{}, nil, http.StatusOK)
}

func (h *Handler) createGenre(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := GenreInput{Title: r.PostFormValue("title"), Description: r.PostFormValue("description")}
	if _, err := h.service.CreateGenre(r.Context(), in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderGenreForm(w, r, adminGenres, in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, adminGenres, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, adminGenres, shared.FlashSuccess, "Genre created")
}

func (h *Handler) showEditGenre(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, adminGenres, err)
		return
	}
	genre, err := h.service.Genre(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, adminGenres, err)
		return
	}
	h.renderGenreForm(w, r, editPath(adminGenres, id), GenreInput{Title: genre.Title, Description: genre.Description}, nil, http.StatusOK)
}

func (h *Handler) updateGenre(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, adminGenres, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := GenreInput{Title: r.PostFormValue("title"), Description: r.PostFormValue("description")}
	if _, err := h.service.UpdateGenre(r.Context(), id, in); err != nil {
		if fields := view.FieldErrors(err); fields != nil {
			h.renderGenreForm(w, r, editPath(adminGenres, id), in, fields, http.StatusBadRequest)
			return
		}
		h.pages.Fail(w, r, adminGenres, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, adminGenres, shared.FlashSuccess, "Genre updated")
}

func (h *Handler) deleteGenre(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, adminGenres, err)
		return
	}
	if _, err := h.service.DeleteGenre(r.Context(), id); err != nil {
		h.pages.Fail(w, r, adminGenres, err)
		return
	}
	h.pages.RedirectWithFlash(w, r, adminGenres, shared.FlashSuccess, "Genre deleted")
}

func (h *Handler) renderGenreForm(w http.ResponseWriter, r *http.Request, action string, in GenreInput, errs shared.FieldErrors, status int) {
	if errs == nil {
		errs = shared.FieldErrors{}
	}
	h.pages.Render(w, r, "pages/admin/genres/form.html", "Genre", map[string]any{
		"Form":   in,
		"Errors": errs,
		"Action": action,
		"IsEdit": action != adminGenres,
	}, status)
}

func editPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10) + "/edit"
}

// formID parses an optional select value; anything unparsable means none.
func formID(raw string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
