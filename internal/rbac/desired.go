package rbac

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/infolibrary/infolibrary/internal/shared"
)

type desiredKind int

const (
	desiredAbsent desiredKind = iota
	desiredScalar
	desiredCollection
)

// Desired is the target grant set submitted by a form. An absent field means
// the owner should end up with no grants; a single value behaves exactly like
// a one-element collection.
type Desired struct {
	kind desiredKind
	ids  []int64
}

// Absent is the desired state of a form that did not submit the field.
func Absent() Desired {
	return Desired{kind: desiredAbsent}
}

// Scalar is a single submitted id.
func Scalar(id int64) Desired {
	return Desired{kind: desiredScalar, ids: []int64{id}}
}

// Collection is a multi-valued submission. Duplicates are collapsed.
func Collection(ids ...int64) Desired {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return Desired{kind: desiredCollection, ids: unique}
}

// DesiredFromForm interprets the raw values of a form field. Blank values are
// ignored; anything else must be a positive integer id.
func DesiredFromForm(values []string) (Desired, error) {
	ids := make([]int64, 0, len(values))
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return Desired{}, fmt.Errorf("%w: invalid id %q", shared.ErrValidation, raw)
		}
		ids = append(ids, id)
	}
	switch len(ids) {
	case 0:
		return Absent(), nil
	case 1:
		return Scalar(ids[0]), nil
	default:
		return Collection(ids...), nil
	}
}

// IsAbsent reports whether the field was missing.
func (d Desired) IsAbsent() bool {
	return d.kind == desiredAbsent
}

// IDs returns the desired ids in submission order.
func (d Desired) IDs() []int64 {
	out := make([]int64, len(d.ids))
	copy(out, d.ids)
	return out
}

// Contains reports whether id is desired.
func (d Desired) Contains(id int64) bool {
	for _, candidate := range d.ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// With returns d extended by id. An absent desire becomes a scalar.
func (d Desired) With(id int64) Desired {
	if d.Contains(id) {
		return d
	}
	if d.IsAbsent() {
		return Scalar(id)
	}
	return Collection(append(d.IDs(), id)...)
}
