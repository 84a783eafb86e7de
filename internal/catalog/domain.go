package catalog

import "time"

// Author writes books.
type Author struct {
	ID        int64
	FullName  string
	Biography string
	CreatedAt time.Time
}

// Genre classifies books.
type Genre struct {
	ID          int64
	Title       string
	Description string
	CreatedAt   time.Time
}

// Book is a catalog entry. Author and genre are optional; deleting either
// leaves the book in place.
type Book struct {
	ID              int64
	Title           string
	Description     string
	PublicationDate *time.Time
	AuthorID        *int64
	GenreID         *int64
	CreatedAt       time.Time
	AuthorName      string
	GenreTitle      string
}

// BookFilter narrows book listings. Each set field is a case-insensitive
// substring match.
type BookFilter struct {
	Author string
	Genre  string
	Search string
}

// AuthorInput is the author form. On update, blank fields keep their stored value.
type AuthorInput struct {
	FullName  string `form:"fullName" validate:"required,max=200"`
	Biography string `form:"biography" validate:"max=5000"`
}

// GenreInput is the genre form. On update, blank fields keep their stored value.
type GenreInput struct {
	Title       string `form:"title" validate:"required,max=100"`
	Description string `form:"description" validate:"max=500"`
}

// BookInput is the book form. On update, blank or zero fields keep their
// stored value.
type BookInput struct {
	Title           string `form:"title" validate:"required,max=200"`
	Description     string `form:"description" validate:"max=2000"`
	PublicationDate string `form:"publicationDate" validate:"omitempty,datetime=2006-01-02"`
	AuthorID        int64  `form:"authorId" validate:"gte=0"`
	GenreID         int64  `form:"genreId" validate:"gte=0"`
}
