package rbac

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/infolibrary/infolibrary/internal/platform/db"
)

// PGAuthorizationStore implements AuthorizationStore with PostgreSQL.
type PGAuthorizationStore struct {
	conn db.DBTX
}

// NewAuthorizationStore constructs a PGAuthorizationStore.
func NewAuthorizationStore(conn db.DBTX) *PGAuthorizationStore {
	return &PGAuthorizationStore{conn: conn}
}

// AdministratorRoles implements AuthorizationStore.
func (s *PGAuthorizationStore) AdministratorRoles(ctx context.Context, administratorID int64) ([]Grant, error) {
	return NewGrantStore(s.conn, AdministratorRoles).ListGrants(ctx, administratorID)
}

const roleGrantsForPermissionSQL = `SELECT rp.role_id, rp.permission_id, p.title, p.description, rp.created_at
FROM role_permissions rp
JOIN permissions p ON p.id = rp.permission_id
WHERE rp.role_id = ANY($1) AND p.title = $2
ORDER BY rp.created_at ASC`

// RoleGrantsForPermission implements AuthorizationStore.
func (s *PGAuthorizationStore) RoleGrantsForPermission(ctx context.Context, roleIDs []int64, permissionTitle string) ([]Grant, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	rows, err := s.conn.Query(ctx, roleGrantsForPermissionSQL, roleIDs, permissionTitle)
	if err != nil {
		return nil, fmt.Errorf("rbac: query role grants: %w", db.Classify(err))
	}
	grants, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Grant])
	if err != nil {
		return nil, fmt.Errorf("rbac: scan role grants: %w", db.Classify(err))
	}
	return grants, nil
}

var _ AuthorizationStore = (*PGAuthorizationStore)(nil)
