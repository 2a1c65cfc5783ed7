package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles a user can hold. The role is the only input to authorization.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User account statuses.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents an account that can sign in to the application.
type User struct {
	UserID    uuid.UUID // UUIDv7
	FirstName string
	LastName  string
	Email     string // Unique, compared case-insensitively

	// PasswordHash is a bcrypt hash, never the plaintext password
	PasswordHash string

	Role   string // "admin" or "employee"
	Status string // "active" or "inactive"

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns "First Last".
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsActive returns true if the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEmployee
}
