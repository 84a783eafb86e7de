package rbac

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Action is the verb of a permission.
type Action int

const (
	ActionUnknown Action = iota
	ActionRead
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Actions lists the matrix columns in display order. The order is also the
// precedence used when a title contains more than one verb.
var Actions = [...]Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "Read"
	case ActionCreate:
		return "Create"
	case ActionUpdate:
		return "Update"
	case ActionDelete:
		return "Delete"
	default:
		return ""
	}
}

// Valid reports whether a is one of the four verbs.
func (a Action) Valid() bool {
	return a >= ActionRead && a <= ActionDelete
}

// ParseAction matches a verb name case-insensitively.
func ParseAction(s string) Action {
	s = strings.TrimSpace(s)
	for _, a := range Actions {
		if strings.EqualFold(s, a.String()) {
			return a
		}
	}
	return ActionUnknown
}

// ActionFromTitle derives the verb from a permission title by substring,
// checking Read, Create, Update and Delete in that order.
func ActionFromTitle(title string) Action {
	for _, a := range Actions {
		if strings.Contains(title, a.String()) {
			return a
		}
	}
	return ActionUnknown
}

// Classify returns the explicit action of p or, for rows without one, the
// action derived from its title. Unclassifiable permissions yield ActionUnknown.
func Classify(p Permission) Action {
	if p.Action.Valid() {
		return p.Action
	}
	return ActionFromTitle(p.Title)
}

// ComposePermissionTitle builds the canonical title for an action on an entity,
// e.g. ActionRead and "book" give "ReadBook".
func ComposePermissionTitle(a Action, entityTitle string) string {
	// Casers are stateful; one per call.
	caser := cases.Title(language.English, cases.NoLower)
	fields := strings.Fields(entityTitle)
	for i, f := range fields {
		fields[i] = caser.String(f)
	}
	return a.String() + strings.Join(fields, "")
}
