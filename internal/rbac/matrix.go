package rbac

// PermissionSlot is one cell of the permission matrix. A placeholder slot
// marks an action the entity has no permission for.
type PermissionSlot struct {
	Action      Action
	Permission  Permission
	Placeholder bool
	Granted     bool
}

// EntityPermissionRow is one entity with exactly one slot per action, in
// Read, Create, Update, Delete order.
type EntityPermissionRow struct {
	Entity Entity
	Slots  [len(Actions)]PermissionSlot
}

// Slot returns the cell for a.
func (r EntityPermissionRow) Slot(a Action) (PermissionSlot, bool) {
	if !a.Valid() {
		return PermissionSlot{}, false
	}
	return r.Slots[slotIndex(a)], true
}

// Synthesize lays permissions out as an entity by action grid.
//
// Granted permissions are placed first, then every permission of all that was
// not granted; when two permissions of one entity classify to the same action
// the later one wins. Permissions that classify to no action are dropped.
// Rows follow the order of entities.
func Synthesize(entities []Entity, granted, all []Permission) []EntityPermissionRow {
	grantedIDs := make(map[int64]struct{}, len(granted))
	pool := make([]Permission, 0, len(granted)+len(all))
	for _, p := range granted {
		grantedIDs[p.ID] = struct{}{}
		pool = append(pool, p)
	}
	for _, p := range all {
		if _, ok := grantedIDs[p.ID]; ok {
			continue
		}
		pool = append(pool, p)
	}

	byEntity := make(map[int64][]Permission, len(entities))
	for _, p := range pool {
		byEntity[p.EntityID] = append(byEntity[p.EntityID], p)
	}

	rows := make([]EntityPermissionRow, 0, len(entities))
	for _, entity := range entities {
		row := EntityPermissionRow{Entity: entity}
		for i, a := range Actions {
			row.Slots[i] = placeholderSlot(a)
		}
		for _, p := range byEntity[entity.ID] {
			a := Classify(p)
			if !a.Valid() {
				continue
			}
			_, isGranted := grantedIDs[p.ID]
			row.Slots[slotIndex(a)] = PermissionSlot{Action: a, Permission: p, Granted: isGranted}
		}
		rows = append(rows, row)
	}
	return rows
}

// PermissionsByID picks the permissions whose ids appear in ids, in ids order.
// Unknown ids are skipped.
func PermissionsByID(all []Permission, ids []int64) []Permission {
	index := make(map[int64]Permission, len(all))
	for _, p := range all {
		index[p.ID] = p
	}
	picked := make([]Permission, 0, len(ids))
	for _, id := range ids {
		if p, ok := index[id]; ok {
			picked = append(picked, p)
		}
	}
	return picked
}

func placeholderSlot(a Action) PermissionSlot {
	return PermissionSlot{
		Action:      a,
		Permission:  Permission{Title: a.String()},
		Placeholder: true,
	}
}

func slotIndex(a Action) int {
	return int(a - ActionRead)
}
