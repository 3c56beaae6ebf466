package types

import (
	"strings"
	"time"
)

// Role is the closed set of authorization levels an account can hold.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleTenant  Role = "TENANT"
	RoleUser    Role = "USER"
)

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTenant, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole normalises a role name. An empty string yields RoleUser.
func ParseRole(raw string) (Role, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RoleUser, true
	}
	role := Role(strings.ToUpper(raw))
	return role, role.Valid()
}

// Account represents a login identity in the system.
// It contains identity, role, and audit metadata.
type Account struct {
	// ID is the unique identifier of the account.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the account holder.
	Username string `json:"username" db:"username"`

	// Email is the unique address used to sign in.
	Email string `json:"email" db:"email"`

	// Role is the account's authorization level.
	Role Role `json:"role" db:"role"`

	// PasswordHash stores the bcrypt digest of the account's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UserSummary is the public projection of an Account.
type UserSummary struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// Summary returns the public projection of the account.
func (a Account) Summary() UserSummary {
	return UserSummary{
		ID:       a.ID,
		Username: a.Username,
		Email:    a.Email,
		Role:     a.Role,
	}
}
