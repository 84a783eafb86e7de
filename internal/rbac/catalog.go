package rbac

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Catalog lists the rows a permission matrix is built from.
type Catalog interface {
	Entities(ctx context.Context) ([]Entity, error)
	Permissions(ctx context.Context) ([]Permission, error)
}

// Lister returns every row of one table.
type Lister[T any] interface {
	List(ctx context.Context) ([]T, error)
}

// ListCatalog adapts an entity lister and a permission lister to Catalog.
type ListCatalog struct {
	entities    Lister[Entity]
	permissions Lister[Permission]
}

// NewCatalog builds a ListCatalog.
func NewCatalog(entities Lister[Entity], permissions Lister[Permission]) *ListCatalog {
	return &ListCatalog{entities: entities, permissions: permissions}
}

func (c *ListCatalog) Entities(ctx context.Context) ([]Entity, error) {
	return c.entities.List(ctx)
}

func (c *ListCatalog) Permissions(ctx context.Context) ([]Permission, error) {
	return c.permissions.List(ctx)
}

// LoadMatrix reads the catalog and synthesizes the matrix for the given
// granted permission ids. It also returns the granted permissions in id order.
func LoadMatrix(ctx context.Context, catalog Catalog, grantedIDs []int64) ([]EntityPermissionRow, []Permission, error) {
	var (
		entities []Entity
		all      []Permission
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entities, err = catalog.Entities(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = catalog.Permissions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("rbac: load catalog: %w", err)
	}
	granted := PermissionsByID(all, grantedIDs)
	return Synthesize(entities, granted, all), granted, nil
}
