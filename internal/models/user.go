package models

// Role is the job role of an owner. It decides which lifecycle
// operations the role-scoped access policy lets the user invoke.
type Role string

const (
	RoleTechnician     Role = "technician"
	RoleForeman        Role = "foreman"
	RoleSuperintendent Role = "superintendent"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleTechnician, RoleForeman, RoleSuperintendent:
		return true
	default:
		return false
	}
}

// Level orders roles: technician < foreman < superintendent.
func (r Role) Level() int {
	switch r {
	case RoleForeman:
		return 2
	case RoleSuperintendent:
		return 3
	default:
		return 1
	}
}

// AtLeast reports whether r is the same as or above required.
func (r Role) AtLeast(required Role) bool {
	return r.Level() >= required.Level()
}

// User is an owning identity.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}
