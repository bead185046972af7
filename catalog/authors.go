package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
)

// Author of one or more books.
type Author struct {
	ID   string `db:"author_ulid" json:"id"`
	Name string `db:"name" json:"name"`
	Bio  string `db:"bio" json:"bio"`
}

// AuthorUpdate enumerates exactly the mutable author fields; nil means
// leave unchanged. Unknown fields are rejected at the binding layer.
type AuthorUpdate struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

// AuthorStore is the MySQL-backed author collection.
type AuthorStore struct {
	db *sqlx.DB
}

// NewAuthorStore wraps an open database handle.
func NewAuthorStore(db *sqlx.DB) *AuthorStore {
	return &AuthorStore{db: db}
}

// Migrate creates the authors table if it is absent.
func (s *AuthorStore) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS authors (
	author_ulid CHAR(26)     NOT NULL PRIMARY KEY,
	name        VARCHAR(255) NOT NULL,
	bio         TEXT         NOT NULL
)`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new author and returns it.
func (s *AuthorStore) Create(ctx context.Context, name, bio string) (Author, error) {
	if name == "" {
		return Author{}, &ValidationError{Field: "name", Reason: "required"}
	}

	a := Author{ID: ulid.Make().String(), Name: name, Bio: bio}
	const q = `INSERT INTO authors (author_ulid, name, bio) VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, a.ID, a.Name, a.Bio); err != nil {
		return Author{}, fmt.Errorf("catalog: insert author: %w", err)
	}
	return a, nil
}

// Get fetches one author.
func (s *AuthorStore) Get(ctx context.Context, id string) (Author, error) {
	const q = `SELECT author_ulid, name, bio FROM authors WHERE author_ulid = ?`

	var a Author
	if err := s.db.GetContext(ctx, &a, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, fmt.Errorf("catalog: get author: %w", err)
	}
	return a, nil
}

// List fetches all authors.
func (s *AuthorStore) List(ctx context.Context) ([]Author, error) {
	const q = `SELECT author_ulid, name, bio FROM authors ORDER BY name`

	var out []Author
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("catalog: list authors: %w", err)
	}
	return out, nil
}

// Update applies the given field changes.
func (s *AuthorStore) Update(ctx context.Context, id string, upd AuthorUpdate) (Author, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return Author{}, err
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return Author{}, &ValidationError{Field: "name", Reason: "must not be empty"}
		}
		a.Name = *upd.Name
	}
	if upd.Bio != nil {
		a.Bio = *upd.Bio
	}

	const q = `UPDATE authors SET name = ?, bio = ? WHERE author_ulid = ?`
	if _, err := s.db.ExecContext(ctx, q, a.Name, a.Bio, a.ID); err != nil {
		return Author{}, fmt.Errorf("catalog: update author: %w", err)
	}
	return a, nil
}

// Delete removes an author.
func (s *AuthorStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM authors WHERE author_ulid = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("catalog: delete author: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
