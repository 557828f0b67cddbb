package enums

import "slices"

// UserRole is the marketplace role assigned at registration.
type UserRole string

const (
	UserRoleArtisan UserRole = "artisan"
	UserRoleBuyer   UserRole = "buyer"
	UserRoleAdmin   UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleArtisan,
	UserRoleBuyer,
	UserRoleAdmin,
}

func (v UserRole) String() string {
	return string(v)
}

// IsValid reports whether the value is a known UserRole.
func (v UserRole) IsValid() bool {
	return slices.Contains(validUserRoles, v)
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	return parse(validUserRoles, "user role", value)
}

// IsSelfServe reports whether the role can be chosen during public registration.
func (v UserRole) IsSelfServe() bool {
	return v == UserRoleArtisan || v == UserRoleBuyer
}
