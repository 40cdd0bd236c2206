package domain

import "time"

// UserRole separates plain citizens from operations admins.
type UserRole string

const (
	UserRoleCitizen UserRole = "CITIZEN"
	UserRoleAdmin   UserRole = "ADMIN"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is a citizen (or admin) account that submits and tracks complaints.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
