package roles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/infolibrary/infolibrary/internal/platform/db"
	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
)

const roleColumns = `id, title, description, created_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

// List returns roles oldest first, filtered by title when search is set.
func (r *Repository) List(ctx context.Context, search string) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles`
	var args []any
	if search != "" {
		query += ` WHERE title ILIKE $1`
		args = append(args, db.Like(search))
	}
	query += ` ORDER BY created_at ASC, id ASC`
	return r.collect(ctx, query, args...)
}

// ListExcept returns every role except the one titled title.
func (r *Repository) ListExcept(ctx context.Context, title string) ([]Role, error) {
	return r.collect(ctx, `SELECT `+roleColumns+` FROM roles WHERE title <> $1 ORDER BY created_at ASC, id ASC`, title)
}

// Get fetches a role by id.
func (r *Repository) Get(ctx context.Context, id int64) (Role, error) {
	return r.one(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
}

// Create inserts a role.
func (r *Repository) Create(ctx context.Context, role Role) (Role, error) {
	return r.one(ctx, `INSERT INTO roles (title, description) VALUES ($1, $2) RETURNING `+roleColumns, role.Title, role.Description)
}

// Update overwrites title and description.
func (r *Repository) Update(ctx context.Context, role Role) (Role, error) {
	return r.one(ctx, `UPDATE roles SET title = $2, description = $3 WHERE id = $1 RETURNING `+roleColumns, role.ID, role.Title, role.Description)
}

// Delete removes a role; its permission and administrator grants cascade.
func (r *Repository) Delete(ctx context.Context, id int64) (Role, error) {
	return r.one(ctx, `DELETE FROM roles WHERE id = $1 RETURNING `+roleColumns, id)
}

func (r *Repository) collect(ctx context.Context, query string, args ...any) ([]Role, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("roles: query: %w", db.Classify(err))
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Role])
	if err != nil {
		return nil, fmt.Errorf("roles: scan: %w", db.Classify(err))
	}
	return list, nil
}

func (r *Repository) one(ctx context.Context, query string, args ...any) (Role, error) {
	list, err := r.collect(ctx, query, args...)
	if err != nil {
		return Role{}, err
	}
	if len(list) == 0 {
		return Role{}, shared.ErrNotFound
	}
	return list[0], nil
}

var _ RepositoryPort = (*Repository)(nil)

// Transactor implements UnitOfWork with one RepeatableRead transaction per call.
type Transactor struct {
	pool db.Beginner
}

// NewTransactor constructs a Transactor over pool.
func NewTransactor(pool db.Beginner) *Transactor {
	return &Transactor{pool: pool}
}

// Do hands fn a repository and a role_permissions reconciler bound to the same
// transaction.
func (t *Transactor) Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTx(ctx, t.pool, func(pgxTx pgx.Tx) error {
		return fn(ctx, Tx{
			Repo:       NewRepository(pgxTx),
			Reconciler: rbac.NewReconciler(rbac.NewTxGrantRepository(pgxTx, rbac.RolePermissions)),
		})
	})
}

var _ UnitOfWork = (*Transactor)(nil)
