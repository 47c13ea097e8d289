package auth

// roleLevel is the position of a role in the hierarchy. Roles are a closed
// set: adding one means updating every switch in this file, which is the
// point.
func roleLevel(r UserRole) (int, bool) {
	switch r {
	case RoleDeveloper:
		return 0, true
	case RoleLeader:
		return 1, true
	case RoleAdministrator:
		return 2, true
	default:
		return 0, false
	}
}

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	_, ok := roleLevel(r)
	return ok
}

// RoleIsAtLeast checks if role meets the minimum required level. Unknown
// roles never satisfy any minimum.
func RoleIsAtLeast(r, minRole UserRole) bool {
	currentLevel, ok := roleLevel(r)
	if !ok {
		return false
	}

	minLevel, ok := roleLevel(minRole)
	if !ok {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleDeveloper,
		RoleLeader,
		RoleAdministrator,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}
