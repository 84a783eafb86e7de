package rbac

import "time"

// OwnerRoleTitle is the reserved super-role. Holders bypass every permission check.
const OwnerRoleTitle = "Owner"

// IsOwnerRole reports whether a role title names the Owner role.
func IsOwnerRole(title string) bool {
	return title == OwnerRoleTitle
}

// Entity is a securable resource kind such as Book or Role.
type Entity struct {
	ID          int64
	Title       string
	Description string
	CreatedAt   time.Time
}

// Permission is one action on one entity, e.g. ReadBook.
type Permission struct {
	ID          int64
	Title       string
	Description string
	EntityID    int64
	Action      Action
	CreatedAt   time.Time
}

// Role is a named bundle of permissions.
type Role struct {
	ID          int64
	Title       string
	Description string
	CreatedAt   time.Time
}

// IsOwner reports whether the role is the Owner role.
func (r Role) IsOwner() bool {
	return IsOwnerRole(r.Title)
}

// Grant is a row of a join relation, enriched with the granted row's title.
type Grant struct {
	OwnerID     int64
	GrantedID   int64
	Title       string
	Description string
	CreatedAt   time.Time
}

// GrantedIDs returns the granted ids in grant order.
func GrantedIDs(grants []Grant) []int64 {
	ids := make([]int64, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.GrantedID)
	}
	return ids
}
