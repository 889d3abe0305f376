package model

// User role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusBanned   = "banned"
)

// User represents a platform account as seen by this subsystem.
// Account management itself lives elsewhere; this model only carries
// the fields needed for addressing and the admin directory.
type User struct {
	Base
	Email  string `json:"email" db:"email"`
	Name   string `json:"name" db:"name"`
	Role   string `json:"role" db:"role"`
	Status string `json:"status" db:"status"`
}

// IsAdmin reports whether the user holds admin privilege.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
