package administrators

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/infolibrary/infolibrary/internal/platform/db"
	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/shared"
)

const administratorColumns = `id, email, user_name, first_name, last_name, password, created_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	conn db.DBTX
}

// NewRepository constructs a repository.
func NewRepository(conn db.DBTX) *Repository {
	return &Repository{conn: conn}
}

// List returns administrators oldest first, filtered by user name when search is set.
func (r *Repository) List(ctx context.Context, search string) ([]Administrator, error) {
	query := `SELECT ` + administratorColumns + ` FROM administrators`
	var args []any
	if search != "" {
		query += ` WHERE user_name ILIKE $1`
		args = append(args, db.Like(search))
	}
	query += ` ORDER BY created_at ASC, id ASC`
	return r.collect(ctx, query, args...)
}

// Get fetches an administrator by id.
func (r *Repository) Get(ctx context.Context, id int64) (Administrator, error) {
	return r.one(ctx, `SELECT `+administratorColumns+` FROM administrators WHERE id = $1`, id)
}

// FindByEmail fetches an administrator by email, case-insensitively.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Administrator, error) {
	return r.one(ctx, `SELECT `+administratorColumns+` FROM administrators WHERE lower(email) = lower($1)`, email)
}

// Create inserts an administrator. PasswordHash must already be hashed.
func (r *Repository) Create(ctx context.Context, a Administrator) (Administrator, error) {
	const query = `INSERT INTO administrators (email, user_name, first_name, last_name, password)
VALUES ($1, $2, $3, $4, $5) RETURNING ` + administratorColumns
	return r.one(ctx, query, a.Email, a.UserName, a.FirstName, a.LastName, a.PasswordHash)
}

// Update overwrites every column, password hash included.
func (r *Repository) Update(ctx context.Context, a Administrator) (Administrator, error) {
	const query = `UPDATE administrators
SET email = $2, user_name = $3, first_name = $4, last_name = $5, password = $6
WHERE id = $1 RETURNING ` + administratorColumns
	return r.one(ctx, query, a.ID, a.Email, a.UserName, a.FirstName, a.LastName, a.PasswordHash)
}

// Delete removes an administrator; role grants cascade.
func (r *Repository) Delete(ctx context.Context, id int64) (Administrator, error) {
	return r.one(ctx, `DELETE FROM administrators WHERE id = $1 RETURNING `+administratorColumns, id)
}

func (r *Repository) collect(ctx context.Context, query string, args ...any) ([]Administrator, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("administrators: query: %w", db.Classify(err))
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Administrator])
	if err != nil {
		return nil, fmt.Errorf("administrators: scan: %w", db.Classify(err))
	}
	return list, nil
}

func (r *Repository) one(ctx context.Context, query string, args ...any) (Administrator, error) {
	list, err := r.collect(ctx, query, args...)
	if err != nil {
		return Administrator{}, err
	}
	if len(list) == 0 {
		return Administrator{}, shared.ErrNotFound
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

// Do hands fn a repository, the administrator_roles store and its reconciler,
// all bound to the same transaction.
func (t *Transactor) Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTx(ctx, t.pool, func(pgxTx pgx.Tx) error {
		roles := rbac.NewTxGrantRepository(pgxTx, rbac.AdministratorRoles)
		return fn(ctx, Tx{
			Repo:       NewRepository(pgxTx),
			Roles:      roles,
			Reconciler: rbac.NewReconciler(roles),
		})
	})
}

var _ UnitOfWork = (*Transactor)(nil)
