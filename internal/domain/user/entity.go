package user

type Role string

const (
	RoleEmployee   Role = "employee"    // Regular employee
	RoleManager    Role = "manager"     // Line manager, files on behalf of the team
	RoleHRAdmin    Role = "hr_admin"    // HR administrator
	RoleSuperAdmin Role = "super_admin" // Organization administrator
)

// AdminRoles are notified whenever a new leave request is filed.
var AdminRoles = []Role{RoleHRAdmin, RoleSuperAdmin}

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleHRAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

type User struct {
	ID             string
	OrganizationID string
	Email          string
	FullName       string
	Role           Role
}

// IsAdmin checks if user holds an administrative role
func (u *User) IsAdmin() bool {
	return u.Role == RoleHRAdmin || u.Role == RoleSuperAdmin
}
