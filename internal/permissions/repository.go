package permissions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/infolibrary/infolibrary/internal/platform/db"
	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
)

const permissionColumns = `p.id, p.title, p.description, p.entity_id, p.action, p.created_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

// List returns permissions oldest first, filtered by title when search is set.
func (r *Repository) List(ctx context.Context, search string) ([]Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions p`
	var args []any
	if search != "" {
		query += ` WHERE p.title ILIKE $1`
		args = append(args, db.Like(search))
	}
	query += ` ORDER BY p.created_at ASC, p.id ASC`
	return r.collect(ctx, query, args...)
}

// Get fetches a permission with its entity.
func (r *Repository) Get(ctx context.Context, id int64) (Detail, error) {
	const query = `SELECT ` + permissionColumns + `, e.title, e.description
FROM permissions p JOIN entities e ON e.id = p.entity_id
WHERE p.id = $1`
	var (
		d      Detail
		action *string
	)
	err := r.conn.QueryRow(ctx, query, id).Scan(&d.ID, &d.Title, &d.Description, &d.EntityID, &action, &d.CreatedAt, &d.EntityTitle, &d.EntityDescription)
	if err != nil {
		return Detail{}, fmt.Errorf("permissions: get %d: %w", id, db.Classify(err))
	}
	d.Action = parseStoredAction(action)
	return d, nil
}

// Create inserts a permission.
func (r *Repository) Create(ctx context.Context, p Permission) (Permission, error) {
	const query = `INSERT INTO permissions AS p (title, description, entity_id, action)
VALUES ($1, $2, $3, $4) RETURNING ` + permissionColumns
	return r.one(ctx, query, p.Title, p.Description, p.EntityID, storedAction(p.Action))
}

// Update overwrites every mutable column.
func (r *Repository) Update(ctx context.Context, p Permission) (Permission, error) {
	const query = `UPDATE permissions AS p SET title = $2, description = $3, entity_id = $4, action = $5
WHERE p.id = $1 RETURNING ` + permissionColumns
	return r.one(ctx, query, p.ID, p.Title, p.Description, p.EntityID, storedAction(p.Action))
}

// Delete removes a permission; role grants of it cascade.
func (r *Repository) Delete(ctx context.Context, id int64) (Permission, error) {
	return r.one(ctx, `DELETE FROM permissions AS p WHERE p.id = $1 RETURNING `+permissionColumns, id)
}

func (r *Repository) collect(ctx context.Context, query string, args ...any) ([]Permission, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("permissions: query: %w", db.Classify(err))
	}
	list, err := pgx.CollectRows(rows, scanPermission)
	if err != nil {
		return nil, fmt.Errorf("permissions: scan: %w", db.Classify(err))
	}
	return list, nil
}

func (r *Repository) one(ctx context.Context, query string, args ...any) (Permission, error) {
	list, err := r.collect(ctx, query, args...)
	if err != nil {
		return Permission{}, err
	}
	if len(list) == 0 {
		return Permission{}, shared.ErrNotFound
	}
	return list[0], nil
}

func scanPermission(row pgx.CollectableRow) (Permission, error) {
	var (
		p      Permission
		action *string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.EntityID, &action, &p.CreatedAt); err != nil {
		return Permission{}, err
	}
	p.Action = parseStoredAction(action)
	return p, nil
}

func parseStoredAction(action *string) rbac.Action {
	if action == nil {
		return rbac.ActionUnknown
	}
	return rbac.ParseAction(*action)
}

func storedAction(a rbac.Action) *string {
	if !a.Valid() {
		return nil
	}
	s := a.String()
	return &s
}

var _ RepositoryPort = (*Repository)(nil)
