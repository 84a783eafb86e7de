package administrators

import (
	"strings"
	"time"

	"github.com/infolibrary/infolibrary/internal/rbac"
)

// Administrator is a back-office account.
type Administrator struct {
	ID           int64
	Email        string
	UserName     string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// FullName joins first and last name, falling back to the user name.
func (a Administrator) FullName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return a.UserName
	}
	return name
}

// CreateInput is the new administrator form.
type CreateInput struct {
	Email                string `form:"email" validate:"required,email,max=254"`
	UserName             string `form:"userName" validate:"required,min=3,max=50"`
	FirstName            string `form:"firstName" validate:"max=100"`
	LastName             string `form:"lastName" validate:"max=100"`
	Password             string `form:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `form:"passwordConfirmation" validate:"required,eqfield=Password"`
}

// UpdateInput is the edit form. Blank fields keep their stored value; the
// password changes only when a new one is submitted.
type UpdateInput struct {
	Email                string `form:"email" validate:"omitempty,email,max=254"`
	UserName             string `form:"userName" validate:"omitempty,min=3,max=50"`
	FirstName            string `form:"firstName" validate:"max=100"`
	LastName             string `form:"lastName" validate:"max=100"`
	Password             string `form:"password" validate:"omitempty,min=8,max=72"`
	PasswordConfirmation string `form:"passwordConfirmation" validate:"eqfield=Password"`
}

// PasswordChange is the self-service password form.
type PasswordChange struct {
	OldPassword          string `form:"oldPassword" validate:"required"`
	Password             string `form:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `form:"passwordConfirmation" validate:"required,eqfield=Password"`
}

// Detail is an administrator with their roles and effective permissions.
type Detail struct {
	Administrator Administrator
	Roles         []rbac.Grant
	IsOwner       bool
	Matrix        []rbac.EntityPermissionRow
}
