package user

type Permission string

const (
	PermissionLeaveViewOwn  Permission = "leave.view_own"
	PermissionLeaveCreate   Permission = "leave.create"
	PermissionLeaveCancel   Permission = "leave.cancel"
	PermissionLeaveViewAll  Permission = "leave.view_all"
	PermissionLeaveApprove  Permission = "leave.approve"
	PermissionLeaveFileTeam Permission = "leave.file_for_others"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleSuperAdmin: {
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveCancel,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveFileTeam,
	},
	RoleHRAdmin: {
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveCancel,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveFileTeam,
	},
	RoleManager: {
		// Managers file for their team but the hierarchy decides who may approve
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveCancel,
		PermissionLeaveViewAll,
		PermissionLeaveApprove,
		PermissionLeaveFileTeam,
	},
	RoleEmployee: {
		PermissionLeaveViewOwn,
		PermissionLeaveCreate,
		PermissionLeaveCancel,
	},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
