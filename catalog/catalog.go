// Package catalog holds the plain record entities around the lending
// core: authors, books and students. These are simple CRUD wrappers with
// uniqueness and referential checks; the lending core sees them only as
// read-only lookups.
package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("catalog: record not found")

// ValidationError rejects invalid catalog input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog: invalid %s: %s", e.Field, e.Reason)
}
