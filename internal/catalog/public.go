package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/infolibrary/infolibrary/internal/view"
)

const recentBooks = 6

// PublicHandler serves the visitor-facing catalog. No route requires a session.
type PublicHandler struct {
	service *Service
	pages   view.Responder
}

// NewPublicHandler builds a PublicHandler.
func NewPublicHandler(service *Service, pages view.Responder) *PublicHandler {
	return &PublicHandler{service: service, pages: pages}
}

// MountRoutes registers the public pages on r.
func (h *PublicHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/books", h.listBooks)
	r.Get("/books/{id}", h.showBook)
	r.Get("/authors", h.listAuthors)
	r.Get("/authors/{id}", h.showAuthor)
	r.Get("/genres", h.listGenres)
}

func (h *PublicHandler) home(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.Books(r.Context(), BookFilter{})
	if err != nil {
		h.pages.Fail(w, r, "/", err)
		return
	}
	if len(books) > recentBooks {
		books = books[:recentBooks]
	}
	h.pages.Render(w, r, "pages/home.html", "Library", map[string]any{"Books": books}, http.StatusOK)
}

func (h *PublicHandler) listBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := BookFilter{Author: query.Get("author"), Genre: query.Get("genre"), Search: query.Get("search")}
	ctx := r.Context()
	books, err := h.service.Books(ctx, filter)
	if err != nil {
		h.pages.Fail(w, r, "/", err)
		return
	}
	authors, err := h.service.AuthorsExcept(ctx, filter.Author)
	if err != nil {
		h.pages.Fail(w, r, "/", err)
		return
	}
	genres, err := h.service.GenresExcept(ctx, filter.Genre)
	if err != nil {
		h.pages.Fail(w, r, "/", err)
		return
	}
	h.pages.Render(w, r, "pages/books/index.html", "Books", map[string]any{
		"Books":   books,
		"Filter":  filter,
		"Authors": authors,
		"Genres":  genres,
	}, http.StatusOK)
}

func (h *PublicHandler) showBook(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, "/books", err)
		return
	}
	book, err := h.service.Book(r.Context(), id)
	if err != nil {
		h.pages.Fail(w, r, "/books", err)
		return
	}
	h.pages.Render(w, r, "pages/books/show.html", book.Title, map[string]any{"Book": book}, http.StatusOK)
}

func (h *PublicHandler) listAuthors(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	authors, err := h.service.Authors(r.Context(), search)
	if err != nil {
		h.pages.Fail(w, r, "/", err)
		return
	}
	h.pages.Render(w, r, "pages/authors/index.html", "Authors", map[string]any{
		"Authors": authors,
		"Search":  search,
	}, http.StatusOK)
}

func (h *PublicHandler) showAuthor(w http.ResponseWriter, r *http.Request) {
	id, err := view.PathID(r)
	if err != nil {
		h.pages.Fail(w, r, "/authors", err)
		return
	}
	ctx := r.Context()
	author, err := h.service.Author(ctx, id)
	if err != nil {
		h.pages.Fail(w, r, "/authors", err)
		return
	}
	books, err := h.service.Books(ctx, BookFilter{Author: author.FullName})
	if err != nil {
		h.pages.Fail(w, r, "/authors", err)
		return
	}
	h.pages.Render(w, r, "pages/authors/show.html", author.FullName, map[string]any{
		"Author": author,
		"Books":  books,
	}, http.StatusOK)
}

func (h *PublicHandler) listGenres(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	genres, err := h.service.Genres(r.Context(), search)
	if err != nil {
		h.pages.Fail(w, r, "/", err)
		return
	}
	h.pages.Render(w, r, "pages/genres/index.html", "Genres", map[string]any{
		"Genres": genres,
		"Search": search,
	}, http.StatusOK)
}
