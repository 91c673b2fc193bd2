package auth

// Permission codes known to the API. Each route of the admin surface requires one of them.
const (
	// PermUsersRead allows listing and viewing users.
	PermUsersRead = "users.read"
	// PermUsersWrite allows creating and editing users.
	PermUsersWrite = "users.write"
	// PermUsersDelete allows deleting users.
	PermUsersDelete = "users.delete"

	// PermRolesRead allows listing and viewing roles and their grants.
	PermRolesRead = "roles.read"
	// PermRolesWrite allows creating and editing roles and their grants.
	PermRolesWrite = "roles.write"
	// PermRolesDelete allows deleting roles.
	PermRolesDelete = "roles.delete"

	// PermPermissionsRead allows listing and viewing permissions.
	PermPermissionsRead = "permissions.read"
	// PermPermissionsWrite allows creating and editing permissions.
	PermPermissionsWrite = "permissions.write"
	// PermPermissionsDelete allows deleting permissions.
	PermPermissionsDelete = "permissions.delete"

	// PermContentRead allows reading content.
	PermContentRead = "content.read"
	// PermContentWrite allows creating and editing content.
	PermContentWrite = "content.write"
	// PermContentDelete allows deleting content.
	PermContentDelete = "content.delete"
)

// PermissionDefinition describes a built-in permission.
type PermissionDefinition struct {
	Code        string
	Name        string
	Description string
	Category    string
}

// BuiltinPermissions lists the permissions created on first start.
func BuiltinPermissions() []PermissionDefinition {
	return []PermissionDefinition{
		{PermUsersRead, "Read users", "View users", "Users"},
		{PermUsersWrite, "Write users", "Create and edit users", "Users"},
		{PermUsersDelete, "Delete users", "Delete users", "Users"},
		{PermRolesRead, "Read roles", "View roles and their permissions", "Roles"},
		{PermRolesWrite, "Write roles", "Create and edit roles", "Roles"},
		{PermRolesDelete, "Delete roles", "Delete roles", "Roles"},
		{PermPermissionsRead, "Read permissions", "View permissions", "Permissions"},
		{PermPermissionsWrite, "Write permissions", "Create and edit permissions", "Permissions"},
		{PermPermissionsDelete, "Delete permissions", "Delete permissions", "Permissions"},
		{PermContentRead, "Read content", "View content", "Content"},
		{PermContentWrite, "Write content", "Create and edit content", "Content"},
		{PermContentDelete, "Delete content", "Delete content", "Content"},
	}
}
