package identity

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered student or staff account.
type User struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  []byte
	Role          string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// ListQuery filters and paginates the admin user listing.
type ListQuery struct {
	Q     string
	Page  int
	Limit int
}

// Page is one page of users plus totals.
type Page struct {
	Users []User
	Total int
	Page  int
	Pages int
}
