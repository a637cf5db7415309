package user

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the display profile kept for standings and ownership checks.
type User struct {
	ID       string
	Email    string
	Username string
	Role     Role
}

// DisplayName falls back to the id when no username is known.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.ID
}

// Principal is the authenticated caller resolved from a bearer credential.
type Principal struct {
	UserID   string
	Email    string
	Username string
	Role     Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
