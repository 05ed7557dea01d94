package domain

import (
	"errors"
	"time"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// Roles lists every role the system knows about, in seeding order.
var Roles = []string{RoleAdmin, RoleUser}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
)

// User models an account that can sign in.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user is a member of role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Caller is the identity behind a request. The zero value is anonymous.
type Caller struct {
	UserID string
	Email  string
	Roles  []string
}

// Anonymous returns a caller without identity or roles.
func Anonymous() Caller { return Caller{} }

// Authenticated reports whether the caller carries an identity.
func (c Caller) Authenticated() bool { return c.UserID != "" }

// HasRole reports whether the caller is a member of role.
func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
