package entities

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/infolibrary/infolibrary/internal/platform/db"
	"github.com/infolibrary/infolibrary/internal/shared"
)

const entityColumns = `id, title, description, created_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

// List returns entities oldest first, filtered by title when search is set.
func (r *Repository) List(ctx context.Context, search string) ([]Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities`
	var args []any
	if search != "" {
		query += ` WHERE title ILIKE $1`
		args = append(args, db.Like(search))
	}
	query += ` ORDER BY created_at ASC, id ASC`
	return r.collect(ctx, query, args...)
}

// ListExcept returns every entity whose title is not title.
func (r *Repository) ListExcept(ctx context.Context, title string) ([]Entity, error) {
	return r.collect(ctx, `SELECT `+entityColumns+` FROM entities WHERE title <> $1 ORDER BY created_at ASC, id ASC`, title)
}

// Get fetches an entity by id.
func (r *Repository) Get(ctx context.Context, id int64) (Entity, error) {
	return r.one(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = $1`, id)
}

// Create inserts an entity.
func (r *Repository) Create(ctx context.Context, e Entity) (Entity, error) {
	return r.one(ctx, `INSERT INTO entities (title, description) VALUES ($1, $2) RETURNING `+entityColumns, e.Title, e.Description)
}

// Update overwrites title and description.
func (r *Repository) Update(ctx context.Context, e Entity) (Entity, error) {
	return r.one(ctx, `UPDATE entities SET title = $2, description = $3 WHERE id = $1 RETURNING `+entityColumns, e.ID, e.Title, e.Description)
}

// Delete removes an entity; its permissions and their grants cascade.
func (r *Repository) Delete(ctx context.Context, id int64) (Entity, error) {
	return r.one(ctx, `DELETE FROM entities WHERE id = $1 RETURNING `+entityColumns, id)
}

func (r *Repository) collect(ctx context.Context, query string, args ...any) ([]Entity, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("entities: query: %w", db.Classify(err))
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Entity])
	if err != nil {
		return nil, fmt.Errorf("entities: scan: %w", db.Classify(err))
	}
	return list, nil
}

func (r *Repository) one(ctx context.Context, query string, args ...any) (Entity, error) {
	list, err := r.collect(ctx, query, args...)
	if err != nil {
		return Entity{}, err
	}
	if len(list) == 0 {
		return Entity{}, shared.ErrNotFound
	}
	return list[0], nil
}

var _ RepositoryPort = (*Repository)(nil)
