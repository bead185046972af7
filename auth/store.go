package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pradatta/libris/lending"
)

// UserStore is the MySQL-backed account collection.
type UserStore struct {
	db *sqlx.DB
}

// NewUserStore wraps an open database handle.
func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Migrate creates the users table if it is absent.
func (s *UserStore) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
	user_uuid     CHAR(36)     NOT NULL PRIMARY KEY,
	user_name     VARCHAR(100) NOT NULL,
	email         VARCHAR(255) NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	created_at    DATETIME     NOT NULL,
	updated_at    DATETIME     NOT NULL,
	deleted_at    DATETIME     NULL,
	UNIQUE KEY uq_users_name (user_name)
)`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Insert persists a new account. The caller hashes the password.
func (s *UserStore) Insert(ctx context.Context, userName, email, passwordHash string) (User, error) {
	var exists int
	const check = `SELECT COUNT(*) FROM users WHERE user_name = ?`
	if err := s.db.GetContext(ctx, &exists, check, userName); err != nil {
		return User{}, fmt.Errorf("auth: check username: %w", err)
	}
	if exists > 0 {
		return User{}, ErrUserExists
	}

	now := time.Now().UTC().Truncate(time.Second)
	u := User{
		ID:           uuid.NewString(),
		UserName:     userName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	const q = `INSERT INTO users (user_uuid, user_name, email, password_hash, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, u.ID, u.UserName, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt); err != nil {
		return User{}, fmt.Errorf("auth: insert user: %w", err)
	}
	return u, nil
}

// Get fetches one account by id, deactivated accounts included so the
// names referenced by old transactions stay resolvable.
func (s *UserStore) Get(ctx context.Context, id string) (User, error) {
	const q = `SELECT user_uuid, user_name, email, password_hash, created_at, updated_at, deleted_at
	FROM users WHERE user_uuid = ?`

	var u User
	if err := s.db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("auth: get user: %w", err)
	}
	return u, nil
}

// GetByUserName fetches one active account by its login name.
func (s *UserStore) GetByUserName(ctx context.Context, userName string) (User, error) {
	const q = `SELECT user_uuid, user_name, email, password_hash, created_at, updated_at, deleted_at
	FROM users WHERE user_name = ? AND deleted_at IS NULL`

	var u User
	if err := s.db.GetContext(ctx, &u, q, userName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("auth: get user by name: %w", err)
	}
	return u, nil
}

// Deactivate soft-deletes an account; it can no longer log in but its
// row survives for name lookups.
func (s *UserStore) Deactivate(ctx context.Context, id string) error {
	const q = `UPDATE users SET deleted_at = ?, updated_at = ? WHERE user_uuid = ? AND deleted_at IS NULL`
	now := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx, q, now, now, id)
	if err != nil {
		return fmt.Errorf("auth: deactivate user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// NameByID resolves a librarian's display name for the lending core.
// Missing users surface as lending.ErrNotFound per the directory contract.
func (s *UserStore) NameByID(ctx context.Context, id string) (string, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("librarian %s: %w", id, lending.ErrNotFound)
		}
		return "", err
	}
	return u.UserName, nil
}
