// Package auth manages librarian accounts and the JWT tokens that guard
// the HTTP API. Passwords are stored as bcrypt hashes only.
package auth

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the referenced user does not exist.
	ErrNotFound = errors.New("auth: user not found")
	// ErrUserExists is returned when the username is already taken.
	ErrUserExists = errors.New("auth: username already taken")
	// ErrInvalidCredentials covers both unknown username and wrong
	// password so login failures are indistinguishable to a caller.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// User is a librarian account. Deactivated accounts keep their row for
// the names snapshotted into old transactions; DeletedAt marks them.
type User struct {
	ID           string     `db:"user_uuid" json:"id"`
	UserName     string     `db:"user_name" json:"userName"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
}
