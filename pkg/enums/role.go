package enums

import "fmt"

// Role is the caller's role inside a tenant, carried in the access token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

var validRoles = []Role{RoleAdmin, RoleOperator, RoleViewer}

func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanWrite reports whether the role may issue reservation commands.
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleOperator
}

// ParseRole converts raw input into Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
