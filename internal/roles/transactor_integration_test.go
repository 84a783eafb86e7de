//go:build integration

package roles_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infolibrary/infolibrary/internal/rbac"
	"github.com/infolibrary/infolibrary/internal/roles"
	"github.com/infolibrary/infolibrary/internal/testing/pgtest"
)

func TestCreateIsAtomicAgainstPostgres(t *testing.T) {
	pool := pgtest.NewPool(t)
	pgtest.Exec(t, pool,
		`INSERT INTO entities (id, title) VALUES (1, 'Book')`,
		`INSERT INTO permissions (id, title, entity_id, action) VALUES (10, 'ReadBook', 1, 'Read')`,
	)
	ctx := context.Background()

	grants := rbac.NewGrantRepository(pool, rbac.RolePermissions)
	catalog := rbac.NewCatalog(listAll[rbac.Entity]{}, listAll[rbac.Permission]{})
	svc := roles.NewService(roles.NewRepository(pool), catalog, grants, roles.NewTransactor(pool))

	// 999 names no permission; the foreign key rejects the grant.
	_, err := svc.Create(ctx, roles.Input{Title: "Editor"}, rbac.Collection(10, 999))
	require.Error(t, err)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles WHERE title = 'Editor'`).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM role_permissions`).Scan(&count))
	assert.Zero(t, count)

	role, err := svc.Create(ctx, roles.Input{Title: "Editor"}, rbac.Collection(10))
	require.NoError(t, err)
	held, err := grants.ListGrants(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "ReadBook", held[0].Title)
}

type listAll[T any] []T

func (l listAll[T]) List(ctx context.Context) ([]T, error) {
	return l, nil
}
