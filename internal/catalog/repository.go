package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/infolibrary/infolibrary/internal/platform/db"
	"github.com/infolibrary/infolibrary/internal/shared"
)

const (
	authorColumns = `id, full_name, biography, created_at`
	genreColumns  = `id, title, description, created_at`
	bookSelect    = `SELECT b.id, b.title, b.description, b.publication_date, b.author_id, b.genre_id, b.created_at,
       COALESCE(a.full_name, ''), COALESCE(g.title, '')
FROM books b
LEFT JOIN authors a ON a.id = b.author_id
LEFT JOIN genres g ON g.id = b.genre_id`
)

// Repository provides PostgreSQL backed persistence for authors, genres and books.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

// ListAuthors returns authors by name, filtered when search is set.
func (r *Repository) ListAuthors(ctx context.Context, search string) ([]Author, error) {
	query := `SELECT ` + authorColumns + ` FROM authors`
	var args []any
	if search != "" {
		query += ` WHERE full_name ILIKE $1`
		args = append(args, db.Like(search))
	}
	return collect[Author](ctx, r.conn, query+` ORDER BY full_name ASC, id ASC`, args...)
}

// ListAuthorsExcept returns every author not named fullName.
func (r *Repository) ListAuthorsExcept(ctx context.Context, fullName string) ([]Author, error) {
	return collect[Author](ctx, r.conn, `SELECT `+authorColumns+` FROM authors WHERE full_name <> $1 ORDER BY full_name ASC, id ASC`, fullName)
}

// GetAuthor fetches an author by id.
func (r *Repository) GetAuthor(ctx context.Context, id int64) (Author, error) {
	return one[Author](ctx, r.conn, `SELECT `+authorColumns+` FROM authors WHERE id = $1`, id)
}

// CreateAuthor inserts an author.
func (r *Repository) CreateAuthor(ctx context.Context, a Author) (Author, error) {
	return one[Author](ctx, r.conn, `INSERT INTO authors (full_name, biography) VALUES ($1, $2) RETURNING `+authorColumns, a.FullName, a.Biography)
}

// UpdateAuthor overwrites name and biography.
func (r *Repository) UpdateAuthor(ctx context.Context, a Author) (Author, error) {
	return one[Author](ctx, r.conn, `UPDATE authors SET full_name = $2, biography = $3 WHERE id = $1 RETURNING `+authorColumns, a.ID, a.FullName, a.Biography)
}

// DeleteAuthor removes an author; their books lose the reference.
func (r *Repository) DeleteAuthor(ctx context.Context, id int64) (Author, error) {
	return one[Author](ctx, r.conn, `DELETE FROM authors WHERE id = $1 RETURNING `+authorColumns, id)
}

// ListGenres returns genres by title, filtered when search is set.
func (r *Repository) ListGenres(ctx context.Context, search string) ([]Genre, error) {
	query := `SELECT ` + genreColumns + ` FROM genres`
	var args []any
	if search != "" {
		query += ` WHERE title ILIKE $1`
		args = append(args, db.Like(search))
	}
	return collect[Genre](ctx, r.conn, query+` ORDER BY title ASC, id ASC`, args...)
}

// ListGenresExcept returns every genre not titled title.
func (r *Repository) ListGenresExcept(ctx context.Context, title string) ([]Genre, error) {
	return collect[Genre](ctx, r.conn, `SELECT `+genreColumns+` FROM genres WHERE title <> $1 ORDER BY title ASC, id ASC`, title)
}

// GetGenre fetches a genre by id.
func (r *Repository) GetGenre(ctx context.Context, id int64) (Genre, error) {
	return one[Genre](ctx, r.conn, `SELECT `+genreColumns+` FROM genres WHERE id = $1`, id)
}

// CreateGenre inserts a genre.
func (r *Repository) CreateGenre(ctx context.Context, g Genre) (Genre, error) {
	return one[Genre](ctx, r.conn, `INSERT INTO genres (title, description) VALUES ($1, $2) RETURNING `+genreColumns, g.Title, g.Description)
}

// UpdateGenre overwrites title and description.
func (r *Repository) UpdateGenre(ctx context.Context, g Genre) (Genre, error) {
	return one[Genre](ctx, r.conn, `UPDATE genres SET title = $2, description = $3 WHERE id = $1 RETURNING `+genreColumns, g.ID, g.Title, g.Description)
}

// DeleteGenre removes a genre; its books lose the reference.
func (r *Repository) DeleteGenre(ctx context.Context, id int64) (Genre, error) {
	return one[Genre](ctx, r.conn, `DELETE FROM genres WHERE id = $1 RETURNING `+genreColumns, id)
}

// ListBooks returns books newest first, narrowed by filter.
func (r *Repository) ListBooks(ctx context.Context, filter BookFilter) ([]Book, error) {
	var (
		conds []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, db.Like(value))
		conds = append(conds, column+` ILIKE $`+strconv.Itoa(len(args)))
	}
	add("a.full_name", filter.Author)
	add("g.title", filter.Genre)
	add("b.title", filter.Search)

	query := bookSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	return collect[Book](ctx, r.conn, query+` ORDER BY b.created_at DESC, b.id DESC`, args...)
}

// GetBook fetches a book with its author and genre names.
func (r *Repository) GetBook(ctx context.Context, id int64) (Book, error) {
	return one[Book](ctx, r.conn, bookSelect+` WHERE b.id = $1`, id)
}

// CreateBook inserts a book.
func (r *Repository) CreateBook(ctx context.Context, b Book) (Book, error) {
	var id int64
	err := r.conn.QueryRow(ctx, `INSERT INTO books (title, description, publication_date, author_id, genre_id)
VALUES ($1, $2, $3, $4, $5) RETURNING id`, b.Title, b.Description, b.PublicationDate, b.AuthorID, b.GenreID).Scan(&id)
	if err != nil {
		return Book{}, fmt.Errorf("catalog: create book: %w", db.Classify(err))
	}
	return r.GetBook(ctx, id)
}

// UpdateBook overwrites every mutable column.
func (r *Repository) UpdateBook(ctx context.Context, b Book) (Book, error) {
	tag, err := r.conn.Exec(ctx, `UPDATE books SET title = $2, description = $3, publication_date = $4, author_id = $5, genre_id = $6
WHERE id = $1`, b.ID, b.Title, b.Description, b.PublicationDate, b.AuthorID, b.GenreID)
	if err != nil {
		return Book{}, fmt.Errorf("catalog: update book %d: %w", b.ID, db.Classify(err))
	}
	if tag.RowsAffected() == 0 {
		return Book{}, shared.ErrNotFound
	}
	return r.GetBook(ctx, b.ID)
}

// DeleteBook removes a book.
func (r *Repository) DeleteBook(ctx context.Context, id int64) (Book, error) {
	book, err := r.GetBook(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if _, err := r.conn.Exec(ctx, `DELETE FROM books WHERE id = $1`, id); err != nil {
		return Book{}, fmt.Errorf("catalog: delete book %d: %w", id, db.Classify(err))
	}
	return book, nil
}

func collect[T any](ctx context.Context, conn db.DBTX, query string, args ...any) ([]T, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: query: %w", db.Classify(err))
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, fmt.Errorf("catalog: scan: %w", db.Classify(err))
	}
	return list, nil
}

func one[T any](ctx context.Context, conn db.DBTX, query string, args ...any) (T, error) {
	list, err := collect[T](ctx, conn, query, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(list) == 0 {
		var zero T
		return zero, shared.ErrNotFound
	}
	return list[0], nil
}

var _ RepositoryPort = (*Repository)(nil)
