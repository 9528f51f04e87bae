// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Role describes what a user is allowed to do on the platform.
//
// WHY A NAMED TYPE INSTEAD OF PLAIN STRINGS?
// Every permission decision in the codebase compares against these constants.
// A named type means the compiler catches typos like "amdin" at the call site,
// and there is exactly one place that defines the canonical role values.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the three canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account.
//
// Role defaults to RoleUser on signup and is only ever changed by an admin
// through the user directory — never by the user themself (see the /users/me
// tamper guard in the user service).
//
// IsSuperuser is an escape hatch above admin: a superuser passes every
// admin gate regardless of their role string.
type User struct {
	ID          string    `json:"-"          db:"id"`
	Username    string    `json:"username"   db:"username"`
	Email       string    `json:"email"      db:"email"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name"  db:"last_name"`
	Bio         string    `json:"bio"        db:"bio"`
	Role        Role      `json:"role"       db:"role"`
	IsSuperuser bool      `json:"-"          db:"is_superuser"`
	CreatedAt   time.Time `json:"-"          db:"created_at"`
	UpdatedAt   time.Time `json:"-"          db:"updated_at"`
}

// IsAdmin reports whether the user passes the admin gate: either the admin
// role or the superuser flag. This is the ONLY place that rule is written.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

// IsModerator reports whether the user holds the moderator role.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

// ConfirmationCode is the one-time credential a user exchanges for an access
// token. There is at most one live code per user: a new signup request
// overwrites the previous record (upsert keyed by UserID).
type ConfirmationCode struct {
	UserID    string    `db:"user_id"`
	Code      string    `db:"code"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Expired reports whether the code is no longer usable at the given instant.
func (c *ConfirmationCode) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
