package roles

import "github.com/infolibrary/infolibrary/internal/rbac"

// Role is a named bundle of permissions.
type Role = rbac.Role

// Input is the role form. On update, blank fields keep their stored value.
type Input struct {
	Title       string `form:"title" validate:"required,max=100"`
	Description string `form:"description" validate:"max=500"`
}

// Detail is a role with the permissions it grants laid out as a matrix.
type Detail struct {
	Role    Role
	Granted []rbac.Permission
	Matrix  []rbac.EntityPermissionRow
}
