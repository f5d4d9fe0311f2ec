package domain

// Role is the privilege class carried in access tokens.
//
// Roles are not ordered. Authorization checks compare against an explicit
// allow-list, so ADMIN does not imply RESIDENT and SUPER_ADMIN does not imply
// ADMIN.
type Role string

const (
	RoleResident   Role = "RESIDENT"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleResident, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Staff lists the roles allowed to moderate community resources.
var Staff = []Role{RoleAdmin, RoleSuperAdmin}

// IsStaff reports whether r appears in Staff.
func (r Role) IsStaff() bool {
	for _, s := range Staff {
		if s == r {
			return true
		}
	}
	return false
}

// AllRoles lists every role.
var AllRoles = []Role{RoleResident, RoleAdmin, RoleSuperAdmin}
