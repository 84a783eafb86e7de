package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/infolibrary/infolibrary/internal/shared"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Classify maps driver errors onto the shared error taxonomy.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrConstraintViolation) || errors.Is(err, shared.ErrUpstream) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", shared.ErrConstraintViolation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%w: %w", shared.ErrUpstream, err)
}

// Like wraps a search term for ILIKE matching.
func Like(query string) string {
	return "%" + query + "%"
}
