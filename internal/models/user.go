package models

import "time"

// UserRole is one of the two fixed account roles.
type UserRole string

const (
	RoleDirector     UserRole = "director"
	RolePsychologist UserRole = "psychologist"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == RoleDirector || r == RolePsychologist
}

// User represents an application user stored in the users table.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Info strips the user down to what clients may see.
func (u User) Info() UserInfo {
	return UserInfo{ID: u.ID, Username: u.Username, Role: u.Role, DisplayName: u.DisplayName}
}
