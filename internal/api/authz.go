package api

import (
	"slices"

	"github.com/wolfeidau/staffdesk/internal/models"
)

// Permission represents an API action.
type Permission string

const (
	PermSessionRead     Permission = "session:read"
	PermDepartmentsRead Permission = "departments:read"
	PermEmployeesRead   Permission = "employees:read"
	PermUsersRead       Permission = "users:read"
	PermAuditRead       Permission = "audit:read"
)

// RolePermissions maps roles to the API actions they may perform.
var RolePermissions = map[string][]Permission{
	models.RoleAdmin: {
		PermSessionRead,
		PermDepartmentsRead,
		PermEmployeesRead,
		PermUsersRead,
		PermAuditRead,
	},
	models.RoleEmployee: {
		PermSessionRead,
		PermDepartmentsRead,
	},
}

// HasPermission checks if a role is granted perm.
func HasPermission(role string, perm Permission) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	return slices.Contains(perms, perm)
}
