package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/infolibrary/infolibrary/internal/shared"
)

const dateLayout = "2006-01-02"

// RepositoryPort defines data access for catalog content.
type RepositoryPort interface {
	ListAuthors(ctx context.Context, search string) ([]Author, error)
	ListAuthorsExcept(ctx context.Context, fullName string) ([]Author, error)
	GetAuthor(ctx context.Context, id int64) (Author, error)
	CreateAuthor(ctx context.Context, a Author) (Author, error)
	UpdateAuthor(ctx context.Context, a Author) (Author, error)
	DeleteAuthor(ctx context.Context, id int64) (Author, error)

	ListGenres(ctx context.Context, search string) ([]Genre, error)
	ListGenresExcept(ctx context.Context, title string) ([]Genre, error)
	GetGenre(ctx context.Context, id int64) (Genre, error)
	CreateGenre(ctx context.Context, g Genre) (Genre, error)
	UpdateGenre(ctx context.Context, g Genre) (Genre, error)
	DeleteGenre(ctx context.Context, id int64) (Genre, error)

	ListBooks(ctx context.Context, filter BookFilter) ([]Book, error)
	GetBook(ctx context.Context, id int64) (Book, error)
	CreateBook(ctx context.Context, b Book) (Book, error)
	UpdateBook(ctx context.Context, b Book) (Book, error)
	DeleteBook(ctx context.Context, id int64) (Book, error)
}

// Service exposes catalog use-cases.
type Service struct {
	repo     RepositoryPort
	validate *validator.Validate
}

// NewService constructs a catalog service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validate: shared.NewValidator()}
}

// Authors returns authors whose name contains search.
func (s *Service) Authors(ctx context.Context, search string) ([]Author, error) {
	return s.repo.ListAuthors(ctx, strings.TrimSpace(search))
}

// AuthorsExcept returns every author but fullName, for filter pickers.
func (s *Service) AuthorsExcept(ctx context.Context, fullName string) ([]Author, error) {
	return s.repo.ListAuthorsExcept(ctx, fullName)
}

// Author returns one author.
func (s *Service) Author(ctx context.Context, id int64) (Author, error) {
	return s.repo.GetAuthor(ctx, id)
}

// CreateAuthor validates and stores an author.
func (s *Service) CreateAuthor(ctx context.Context, in AuthorInput) (Author, error) {
	in = AuthorInput{FullName: strings.TrimSpace(in.FullName), Biography: strings.TrimSpace(in.Biography)}
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Author{}, err
	}
	return s.repo.CreateAuthor(ctx, Author{FullName: in.FullName, Biography: in.Biography})
}

// UpdateAuthor applies the non-blank fields of patch.
func (s *Service) UpdateAuthor(ctx context.Context, id int64, patch AuthorInput) (Author, error) {
	current, err := s.repo.GetAuthor(ctx, id)
	if err != nil {
		return Author{}, err
	}
	merged := AuthorInput{
		FullName:  keep(current.FullName, patch.FullName),
		Biography: keep(current.Biography, patch.Biography),
	}
	if err := shared.ValidateStruct(s.validate, merged); err != nil {
		return Author{}, err
	}
	current.FullName, current.Biography = merged.FullName, merged.Biography
	return s.repo.UpdateAuthor(ctx, current)
}

// DeleteAuthor removes an author.
func (s *Service) DeleteAuthor(ctx context.Context, id int64) (Author, error) {
	return s.repo.DeleteAuthor(ctx, id)
}

// Genres returns genres whose title contains search.
func (s *Service) Genres(ctx context.Context, search string) ([]Genre, error) {
	return s.repo.ListGenres(ctx, strings.TrimSpace(search))
}

// GenresExcept returns every genre but title, for filter pickers.
func (s *Service) GenresExcept(ctx context.Context, title string) ([]Genre, error) {
	return s.repo.ListGenresExcept(ctx, title)
}

// Genre returns one genre.
func (s *Service) Genre(ctx context.Context, id int64) (Genre, error) {
	return s.repo.GetGenre(ctx, id)
}

// CreateGenre validates and stores a genre.
func (s *Service) CreateGenre(ctx context.Context, in GenreInput) (Genre, error) {
	in = GenreInput{Title: strings.TrimSpace(in.Title), Description: strings.TrimSpace(in.Description)}
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Genre{}, err
	}
	return s.repo.CreateGenre(ctx, Genre{Title: in.Title, Description: in.Description})
}

// UpdateGenre applies the non-blank fields of patch.
func (s *Service) UpdateGenre(ctx context.Context, id int64, patch GenreInput) (Genre, error) {
	current, err := s.repo.GetGenre(ctx, id)
	if err != nil {
		return Genre{}, err
	}
	merged := GenreInput{
		Title:       keep(current.Title, patch.Title),
		Description: keep(current.Description, patch.Description),
	}
	if err := shared.ValidateStruct(s.validate, merged); err != nil {
		return Genre{}, err
	}
	current.Title, current.Description = merged.Title, merged.Description
	return s.repo.UpdateGenre(ctx, current)
}

// DeleteGenre removes a genre.
func (s *Service) DeleteGenre(ctx context.Context, id int64) (Genre, error) {
	return s.repo.DeleteGenre(ctx, id)
}

// Books lists books matching filter.
func (s *Service) Books(ctx context.Context, filter BookFilter) ([]Book, error) {
	filter = BookFilter{
		Author: strings.TrimSpace(filter.Author),
		Genre:  strings.TrimSpace(filter.Genre),
		Search: strings.TrimSpace(filter.Search),
	}
	return s.repo.ListBooks(ctx, filter)
}

// Book returns one book.
func (s *Service) Book(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetBook(ctx, id)
}

// CreateBook validates and stores a book.
func (s *Service) CreateBook(ctx context.Context, in BookInput) (Book, error) {
	in = normalizeBook(in)
	book, err := s.applyBook(ctx, Book{}, in)
	if err != nil {
		return Book{}, err
	}
	return s.repo.CreateBook(ctx, book)
}

// UpdateBook applies the non-blank fields of patch. A zero author or genre
// id keeps the stored reference.
func (s *Service) UpdateBook(ctx context.Context, id int64, patch BookInput) (Book, error) {
	current, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return Book{}, err
	}
	patch = normalizeBook(patch)
	merged := BookInput{
		Title:       keep(current.Title, patch.Title),
		Description: keep(current.Description, patch.Description),
	}
	merged.PublicationDate = patch.PublicationDate
	if merged.PublicationDate == "" && current.PublicationDate != nil {
		merged.PublicationDate = current.PublicationDate.Format(dateLayout)
	}
	merged.AuthorID = patch.AuthorID
	if merged.AuthorID == 0 && current.AuthorID != nil {
		merged.AuthorID = *current.AuthorID
	}
	merged.GenreID = patch.GenreID
	if merged.GenreID == 0 && current.GenreID != nil {
		merged.GenreID = *current.GenreID
	}
	book, err := s.applyBook(ctx, current, merged)
	if err != nil {
		return Book{}, err
	}
	return s.repo.UpdateBook(ctx, book)
}

// DeleteBook removes a book.
func (s *Service) DeleteBook(ctx context.Context, id int64) (Book, error) {
	return s.repo.DeleteBook(ctx, id)
}

func (s *Service) applyBook(ctx context.Context, book Book, in BookInput) (Book, error) {
	if err := shared.ValidateStruct(s.validate, in); err != nil {
		return Book{}, err
	}
	book.Title = in.Title
	book.Description = in.Description
	book.PublicationDate = nil
	if in.PublicationDate != "" {
		published, err := time.Parse(dateLayout, in.PublicationDate)
		if err != nil {
			return Book{}, shared.FieldErrors{"publicationDate": "must be a date (YYYY-MM-DD)"}
		}
		book.PublicationDate = &published
	}
	book.AuthorID, book.GenreID = nil, nil
	fields := shared.FieldErrors{}
	if in.AuthorID > 0 {
		if _, err := s.repo.GetAuthor(ctx, in.AuthorID); err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return Book{}, err
			}
			fields["authorId"] = "unknown author"
		}
		book.AuthorID = &in.AuthorID
	}
	if in.GenreID > 0 {
		if _, err := s.repo.GetGenre(ctx, in.GenreID); err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return Book{}, err
			}
			fields["genreId"] = "unknown genre"
		}
		book.GenreID = &in.GenreID
	}
	if len(fields) > 0 {
		return Book{}, fields
	}
	return book, nil
}

func normalizeBook(in BookInput) BookInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.PublicationDate = strings.TrimSpace(in.PublicationDate)
	return in
}

func keep(current, patch string) string {
	if patch = strings.TrimSpace(patch); patch != "" {
		return patch
	}
	return current
}
