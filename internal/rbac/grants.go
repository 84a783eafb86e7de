package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/infolibrary/infolibrary/internal/platform/db"
	"github.com/infolibrary/infolibrary/internal/shared"
)

// Relation names one of the two join tables: owner rows that are granted rows
// of another table.
type Relation struct {
	table         string
	ownerColumn   string
	grantedColumn string
	grantedTable  string
}

var (
	// RolePermissions grants permissions to roles.
	RolePermissions = Relation{table: "role_permissions", ownerColumn: "role_id", grantedColumn: "permission_id", grantedTable: "permissions"}
	// AdministratorRoles grants roles to administrators.
	AdministratorRoles = Relation{table: "administrator_roles", ownerColumn: "administrator_id", grantedColumn: "role_id", grantedTable: "roles"}
)

func (r Relation) String() string {
	return r.table
}

// GrantStore is the persistence surface of one join relation.
type GrantStore interface {
	// ListGrants returns every grant of ownerID, oldest first.
	ListGrants(ctx context.Context, ownerID int64) ([]Grant, error)
	// FindGrant returns shared.ErrNotFound when the pair is absent.
	FindGrant(ctx context.Context, ownerID, grantedID int64) (Grant, error)
	// CreateGrant is idempotent: an existing pair is returned unchanged.
	CreateGrant(ctx context.Context, ownerID, grantedID int64) (Grant, error)
	// DeleteGrant returns shared.ErrNotFound when the pair is absent.
	DeleteGrant(ctx context.Context, ownerID, grantedID int64) (Grant, error)
	// DeleteAllGrants removes and returns every grant of ownerID.
	DeleteAllGrants(ctx context.Context, ownerID int64) ([]Grant, error)
}

// GrantRepository is a GrantStore that can scope a unit of work to one transaction.
type GrantRepository interface {
	GrantStore
	WithTx(ctx context.Context, fn func(context.Context, GrantStore) error) error
}

// PGGrantStore implements GrantStore over any pgx connection or transaction.
type PGGrantStore struct {
	conn db.DBTX
	rel  Relation
}

// NewGrantStore binds a store for rel to conn.
func NewGrantStore(conn db.DBTX, rel Relation) *PGGrantStore {
	return &PGGrantStore{conn: conn, rel: rel}
}

func (s *PGGrantStore) selectSQL(where string) string {
	return fmt.Sprintf(`SELECT j.%[2]s, j.%[3]s, g.title, g.description, j.created_at
FROM %[1]s j JOIN %[4]s g ON g.id = j.%[3]s
WHERE %[5]s
ORDER BY j.created_at ASC, j.%[3]s ASC`, s.rel.table, s.rel.ownerColumn, s.rel.grantedColumn, s.rel.grantedTable, where)
}

func (s *PGGrantStore) deleteSQL(where string) string {
	return fmt.Sprintf(`WITH removed AS (
	DELETE FROM %[1]s WHERE %[5]s RETURNING %[2]s, %[3]s, created_at
)
SELECT removed.%[2]s, removed.%[3]s, g.title, g.description, removed.created_at
FROM removed JOIN %[4]s g ON g.id = removed.%[3]s
ORDER BY removed.created_at ASC, removed.%[3]s ASC`, s.rel.table, s.rel.ownerColumn, s.rel.grantedColumn, s.rel.grantedTable, where)
}

// ListGrants implements GrantStore.
func (s *PGGrantStore) ListGrants(ctx context.Context, ownerID int64) ([]Grant, error) {
	query := s.selectSQL(fmt.Sprintf("j.%s = $1", s.rel.ownerColumn))
	return s.collect(ctx, query, ownerID)
}

// FindGrant implements GrantStore.
func (s *PGGrantStore) FindGrant(ctx context.Context, ownerID, grantedID int64) (Grant, error) {
	query := s.selectSQL(fmt.Sprintf("j.%s = $1 AND j.%s = $2", s.rel.ownerColumn, s.rel.grantedColumn))
	return s.one(ctx, query, ownerID, grantedID)
}

// CreateGrant implements GrantStore.
func (s *PGGrantStore) CreateGrant(ctx context.Context, ownerID, grantedID int64) (Grant, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, s.rel.table, s.rel.ownerColumn, s.rel.grantedColumn)
	if _, err := s.conn.Exec(ctx, query, ownerID, grantedID); err != nil {
		return Grant{}, fmt.Errorf("rbac: create %s grant: %w", s.rel, db.Classify(err))
	}
	return s.FindGrant(ctx, ownerID, grantedID)
}

// DeleteGrant implements GrantStore.
func (s *PGGrantStore) DeleteGrant(ctx context.Context, ownerID, grantedID int64) (Grant, error) {
	query := s.deleteSQL(fmt.Sprintf("%s = $1 AND %s = $2", s.rel.ownerColumn, s.rel.grantedColumn))
	return s.one(ctx, query, ownerID, grantedID)
}

// DeleteAllGrants implements GrantStore.
func (s *PGGrantStore) DeleteAllGrants(ctx context.Context, ownerID int64) ([]Grant, error) {
	query := s.deleteSQL(fmt.Sprintf("%s = $1", s.rel.ownerColumn))
	return s.collect(ctx, query, ownerID)
}

func (s *PGGrantStore) collect(ctx context.Context, query string, args ...any) ([]Grant, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("rbac: query %s: %w", s.rel, db.Classify(err))
	}
	grants, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Grant])
	if err != nil {
		return nil, fmt.Errorf("rbac: scan %s: %w", s.rel, db.Classify(err))
	}
	return grants, nil
}

func (s *PGGrantStore) one(ctx context.Context, query string, args ...any) (Grant, error) {
	grants, err := s.collect(ctx, query, args...)
	if err != nil {
		return Grant{}, err
	}
	if len(grants) == 0 {
		return Grant{}, shared.ErrNotFound
	}
	return grants[0], nil
}

// PGGrantRepository adds transaction scoping to PGGrantStore.
type PGGrantRepository struct {
	*PGGrantStore
	pool *pgxpool.Pool
}

// NewGrantRepository constructs a repository for rel backed by pool.
func NewGrantRepository(pool *pgxpool.Pool, rel Relation) *PGGrantRepository {
	return &PGGrantRepository{PGGrantStore: NewGrantStore(pool, rel), pool: pool}
}

// WithTx runs fn with a store bound to a single RepeatableRead transaction.
func (r *PGGrantRepository) WithTx(ctx context.Context, fn func(context.Context, GrantStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewGrantStore(tx, r.rel))
	})
}

var _ GrantRepository = (*PGGrantRepository)(nil)

// TxGrantRepository is a GrantRepository bound to a transaction the caller
// already opened. WithTx joins that transaction instead of starting another.
type TxGrantRepository struct {
	*PGGrantStore
}

// NewTxGrantRepository binds a repository for rel to tx.
func NewTxGrantRepository(tx pgx.Tx, rel Relation) TxGrantRepository {
	return TxGrantRepository{PGGrantStore: NewGrantStore(tx, rel)}
}

// WithTx runs fn on the bound store. Commit and rollback belong to the owner
// of the transaction.
func (r TxGrantRepository) WithTx(ctx context.Context, fn func(context.Context, GrantStore) error) error {
	return fn(ctx, r.PGGrantStore)
}

var _ GrantRepository = TxGrantRepository{}

// ignoreNotFound treats an already-absent row as success.
func ignoreNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}
