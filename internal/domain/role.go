package domain

import "strings"

// Role is the closed set of staff roles.
type Role string

const (
	RoleNone  Role = ""
	RoleExec  Role = "EXEC"
	RoleAdmin Role = "ADMIN"
)

// ParseRole accepts the wire form of a role. Matching is case-insensitive
// so roster files may use "admin".
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(RoleExec):
		return RoleExec, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	default:
		return RoleNone, ErrInvalidRole
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleExec, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}
