package rbac

import (
	"context"
	"time"

	"github.com/infolibrary/infolibrary/internal/shared"
)

// memoryGrants is an in-memory GrantRepository. WithTx works on a copy and
// only publishes it when fn succeeds; call counters are shared.
type memoryGrants struct {
	grants  map[int64][]Grant
	titles  map[int64]string
	clock   time.Time
	calls   map[string]int
	failOn  string
	failErr error
}

func newMemoryGrants(titles map[int64]string) *memoryGrants {
	return &memoryGrants{
		grants: make(map[int64][]Grant),
		titles: titles,
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		calls:  make(map[string]int),
	}
}

func (m *memoryGrants) seed(ownerID int64, ids ...int64) {
	for _, id := range ids {
		_, _ = m.CreateGrant(context.Background(), ownerID, id)
	}
	m.calls = make(map[string]int)
}

func (m *memoryGrants) held(ownerID int64) []int64 {
	return GrantedIDs(m.grants[ownerID])
}

func (m *memoryGrants) clone() *memoryGrants {
	cp := *m
	cp.grants = make(map[int64][]Grant, len(m.grants))
	for owner, gs := range m.grants {
		cp.grants[owner] = append([]Grant(nil), gs...)
	}
	return &cp
}

func (m *memoryGrants) WithTx(ctx context.Context, fn func(context.Context, GrantStore) error) error {
	tx := m.clone()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.grants = tx.grants
	m.clock = tx.clock
	return nil
}

func (m *memoryGrants) hit(op string) error {
	m.calls[op]++
	if m.failOn == op {
		return m.failErr
	}
	return nil
}

func (m *memoryGrants) ListGrants(ctx context.Context, ownerID int64) ([]Grant, error) {
	if err := m.hit("list"); err != nil {
		return nil, err
	}
	return append([]Grant(nil), m.grants[ownerID]...), nil
}

func (m *memoryGrants) FindGrant(ctx context.Context, ownerID, grantedID int64) (Grant, error) {
	if err := m.hit("find"); err != nil {
		return Grant{}, err
	}
	for _, g := range m.grants[ownerID] {
		if g.GrantedID == grantedID {
			return g, nil
		}
	}
	return Grant{}, shared.ErrNotFound
}

func (m *memoryGrants) CreateGrant(ctx context.Context, ownerID, grantedID int64) (Grant, error) {
	if err := m.hit("create"); err != nil {
		return Grant{}, err
	}
	for _, g := range m.grants[ownerID] {
		if g.GrantedID == grantedID {
			return g, nil
		}
	}
	m.clock = m.clock.Add(time.Second)
	g := Grant{OwnerID: ownerID, GrantedID: grantedID, Title: m.titles[grantedID], CreatedAt: m.clock}
	m.grants[ownerID] = append(m.grants[ownerID], g)
	return g, nil
}

func (m *memoryGrants) DeleteGrant(ctx context.Context, ownerID, grantedID int64) (Grant, error) {
	if err := m.hit("delete"); err != nil {
		return Grant{}, err
	}
	gs := m.grants[ownerID]
	for i, g := range gs {
		if g.GrantedID == grantedID {
			m.grants[ownerID] = append(gs[:i:i], gs[i+1:]...)
			return g, nil
		}
	}
	return Grant{}, shared.ErrNotFound
}

func (m *memoryGrants) DeleteAllGrants(ctx context.Context, ownerID int64) ([]Grant, error) {
	if err := m.hit("deleteAll"); err != nil {
		return nil, err
	}
	removed := m.grants[ownerID]
	delete(m.grants, ownerID)
	return removed, nil
}

// memoryAuthz answers authorization queries from two grant tables.
type memoryAuthz struct {
	administratorRoles *memoryGrants
	rolePermissions    *memoryGrants
	err                error
}

func (m *memoryAuthz) AdministratorRoles(ctx context.Context, administratorID int64) ([]Grant, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.administratorRoles.ListGrants(ctx, administratorID)
}

func (m *memoryAuthz) RoleGrantsForPermission(ctx context.Context, roleIDs []int64, permissionTitle string) ([]Grant, error) {
	var out []Grant
	for _, roleID := range roleIDs {
		gs, err := m.rolePermissions.ListGrants(ctx, roleID)
		if err != nil {
			return nil, err
		}
		for _, g := range gs {
			if g.Title == permissionTitle {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

var (
	_ GrantRepository    = (*memoryGrants)(nil)
	_ AuthorizationStore = (*memoryAuthz)(nil)
)
