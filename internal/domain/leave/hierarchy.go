package leave

import "github.com/cmlabs-hris/leave-engine/internal/domain/user"

// approverRoles maps the applicant's role to the roles allowed to decide on the request.
// hr_admin and super_admin approve each other.
var approverRoles = map[user.Role][]user.Role{
	user.RoleEmployee:   {user.RoleHRAdmin, user.RoleSuperAdmin},
	user.RoleManager:    {user.RoleHRAdmin, user.RoleSuperAdmin},
	user.RoleHRAdmin:    {user.RoleSuperAdmin},
	user.RoleSuperAdmin: {user.RoleHRAdmin},
}

// CanDecide reports whether an approver with approverRole may approve or reject a
// request filed by a user holding applicantRole.
func CanDecide(applicantRole, approverRole user.Role) bool {
	for _, r := range approverRoles[applicantRole] {
		if r == approverRole {
			return true
		}
	}
	return false
}
