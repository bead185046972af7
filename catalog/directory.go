package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/pradatta/libris/lending"
)

// LibrarianLookup resolves a librarian's display name. Implemented by
// the auth user store; librarians are accounts, not catalog records. A
// missing user is reported with an error wrapping lending.ErrNotFound.
type LibrarianLookup interface {
	NameByID(ctx context.Context, id string) (string, error)
}

// Directory composes the catalog stores into the read-only lookup view
// the lending core needs. Missing records surface as lending.ErrNotFound
// so the transaction layer maps them uniformly.
type Directory struct {
	students   *StudentStore
	books      *BookStore
	librarians LibrarianLookup
}

// NewDirectory builds the lookup view over the given stores.
func NewDirectory(students *StudentStore, books *BookStore, librarians LibrarianLookup) *Directory {
	return &Directory{students: students, books: books, librarians: librarians}
}

func translate(err error, what, id string) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, lending.ErrNotFound)
	}
	return err
}

// StudentName resolves a student's display name.
func (d *Directory) StudentName(ctx context.Context, id string) (string, error) {
	name, err := d.students.NameByID(ctx, id)
	if err != nil {
		return "", translate(err, "student", id)
	}
	return name, nil
}

// StudentEmail resolves the address on file; empty when the student has
// none. An error means the lookup itself failed.
func (d *Directory) StudentEmail(ctx context.Context, id string) (string, error) {
	email, err := d.students.EmailByID(ctx, id)
	if err != nil {
		return "", translate(err, "student", id)
	}
	return email, nil
}

// LibrarianName resolves a librarian's display name.
func (d *Directory) LibrarianName(ctx context.Context, id string) (string, error) {
	name, err := d.librarians.NameByID(ctx, id)
	if err != nil {
		return "", translate(err, "librarian", id)
	}
	return name, nil
}

// BookTitle resolves a book's title.
func (d *Directory) BookTitle(ctx context.Context, id string) (string, error) {
	title, err := d.books.TitleByID(ctx, id)
	if err != nil {
		return "", translate(err, "book", id)
	}
	return title, nil
}
