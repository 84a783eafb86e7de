package permissions

import "github.com/infolibrary/infolibrary/internal/rbac"

// Permission is one action on one entity.
type Permission = rbac.Permission

// Detail is a permission joined with its entity.
type Detail struct {
	Permission
	EntityTitle       string
	EntityDescription string
}

// Input is the permission form. On update, blank or zero fields keep their
// stored value. A blank action is derived from the title.
type Input struct {
	Title       string `form:"title" validate:"required,max=100"`
	Description string `form:"description" validate:"max=500"`
	EntityID    int64  `form:"entityId" validate:"required,gt=0"`
	Action      string `form:"action" validate:"omitempty,oneof=Read Create Update Delete"`
}
