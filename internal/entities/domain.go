package entities

import "github.com/infolibrary/infolibrary/internal/rbac"

// Entity is the securable resource kind managed here.
type Entity = rbac.Entity

// Input is the entity form. On update, blank fields keep their stored value.
type Input struct {
	Title       string `form:"title" validate:"required,max=100"`
	Description string `form:"description" validate:"max=500"`
}
