package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
)

// Book in the collection. AuthorID references the authors table.
type Book struct {
	ID       string `db:"book_ulid" json:"id"`
	Title    string `db:"title" json:"title"`
	AuthorID string `db:"author_ulid" json:"authorId"`
	Genre    string `db:"genre" json:"genre"`
	ISBN     string `db:"isbn" json:"isbn"`
	Quantity int    `db:"quantity" json:"quantity"`
}

// BookUpdate enumerates exactly the mutable book fields.
type BookUpdate struct {
	Title    *string `json:"title"`
	Genre    *string `json:"genre"`
	ISBN     *string `json:"isbn"`
	Quantity *int    `json:"quantity"`
}

// BookStore is the MySQL-backed book collection.
type BookStore struct {
	db      *sqlx.DB
	authors *AuthorStore
}

// NewBookStore wraps an open database handle.
func NewBookStore(db *sqlx.DB, authors *AuthorStore) *BookStore {
	return &BookStore{db: db, authors: authors}
}

// Migrate creates the books table if it is absent.
func (s *BookStore) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS books (
	book_ulid   CHAR(26)     NOT NULL PRIMARY KEY,
	title       VARCHAR(255) NOT NULL,
	author_ulid CHAR(26)     NOT NULL,
	genre       VARCHAR(100) NOT NULL,
	isbn        VARCHAR(13)  NOT NULL,
	quantity    INT          NOT NULL DEFAULT 0,
	KEY idx_books_author (author_ulid)
)`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new book after checking the author reference.
func (s *BookStore) Create(ctx context.Context, title, authorID, genre, isbn string, quantity int) (Book, error) {
	switch {
	case title == "":
		return Book{}, &ValidationError{Field: "title", Reason: "required"}
	case authorID == "":
		return Book{}, &ValidationError{Field: "authorId", Reason: "required"}
	case quantity < 0:
		return Book{}, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	if _, err := s.authors.Get(ctx, authorID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Book{}, &ValidationError{Field: "authorId", Reason: "unknown author"}
		}
		return Book{}, err
	}

	b := Book{
		ID:       ulid.Make().String(),
		Title:    title,
		AuthorID: authorID,
		Genre:    genre,
		ISBN:     isbn,
		Quantity: quantity,
	}
	const q = `INSERT INTO books (book_ulid, title, author_ulid, genre, isbn, quantity)
	VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, b.ID, b.Title, b.AuthorID, b.Genre, b.ISBN, b.Quantity); err != nil {
		return Book{}, fmt.Errorf("catalog: insert book: %w", err)
	}
	return b, nil
}

// Get fetches one book.
func (s *BookStore) Get(ctx context.Context, id string) (Book, error) {
	const q = `SELECT book_ulid, title, author_ulid, genre, isbn, quantity FROM books WHERE book_ulid = ?`

	var b Book
	if err := s.db.GetContext(ctx, &b, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("catalog: get book: %w", err)
	}
	return b, nil
}

// List fetches all books.
func (s *BookStore) List(ctx context.Context) ([]Book, error) {
	const q = `SELECT book_ulid, title, author_ulid, genre, isbn, quantity FROM books ORDER BY title`

	var out []Book
	if err := s.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("catalog: list books: %w", err)
	}
	return out, nil
}

// Update applies the given field changes.
func (s *BookStore) Update(ctx context.Context, id string, upd BookUpdate) (Book, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if upd.Title != nil {
		if *upd.Title == "" {
			return Book{}, &ValidationError{Field: "title", Reason: "must not be empty"}
		}
		b.Title = *upd.Title
	}
	if upd.Genre != nil {
		b.Genre = *upd.Genre
	}
	if upd.ISBN != nil {
		b.ISBN = *upd.ISBN
	}
	if upd.Quantity != nil {
		if *upd.Quantity < 0 {
			return Book{}, &ValidationError{Field: "quantity", Reason: "must not be negative"}
		}
		b.Quantity = *upd.Quantity
	}

	const q = `UPDATE books SET title = ?, genre = ?, isbn = ?, quantity = ? WHERE book_ulid = ?`
	if _, err := s.db.ExecContext(ctx, q, b.Title, b.Genre, b.ISBN, b.Quantity, b.ID); err != nil {
		return Book{}, fmt.Errorf("catalog: update book: %w", err)
	}
	return b, nil
}

// Delete removes a book.
func (s *BookStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM books WHERE book_ulid = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("catalog: delete book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TitleByID resolves a book title for display snapshotting.
func (s *BookStore) TitleByID(ctx context.Context, id string) (string, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return b.Title, nil
}
