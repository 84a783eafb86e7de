package shared

// Role titles referenced by route guards.
const (
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "SuperAdmin"
)

// Permission titles checked by route guards. Each is the action verb followed by the entity title.
const (
	PermReadHome    = "ReadHome"
	PermReadProfile = "ReadProfile"

	PermReadBook   = "ReadBook"
	PermCreateBook = "CreateBook"
	PermUpdateBook = "UpdateBook"
	PermDeleteBook = "DeleteBook"

	PermReadAuthor   = "ReadAuthor"
	PermCreateAuthor = "CreateAuthor"
	PermUpdateAuthor = "UpdateAuthor"
	PermDeleteAuthor = "DeleteAuthor"

	PermReadGenre   = "ReadGenre"
	PermCreateGenre = "CreateGenre"
	PermUpdateGenre = "UpdateGenre"
	PermDeleteGenre = "DeleteGenre"

	PermReadEntity   = "ReadEntity"
	PermCreateEntity = "CreateEntity"
	PermUpdateEntity = "UpdateEntity"
	PermDeleteEntity = "DeleteEntity"

	PermReadPermission   = "ReadPermission"
	PermCreatePermission = "CreatePermission"
	PermUpdatePermission = "UpdatePermission"
	PermDeletePermission = "DeletePermission"

	PermReadRole   = "ReadRole"
	PermCreateRole = "CreateRole"
	PermUpdateRole = "UpdateRole"
	PermDeleteRole = "DeleteRole"

	PermReadAdministrator   = "ReadAdministrator"
	PermCreateAdministrator = "CreateAdministrator"
	PermUpdateAdministrator = "UpdateAdministrator"
	PermDeleteAdministrator = "DeleteAdministrator"
)

// StaffRoles may manage catalog content.
func StaffRoles() []string {
	return []string{RoleAdmin, RoleSuperAdmin}
}
