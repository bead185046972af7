package lending

import (
	"context"
	"time"
)

// Store owns transaction records and their lifecycle transitions. The
// notification pipeline never deletes records; deletion, if any, belongs
// to the surrounding CRUD layer.
type Store interface {
	Insert(ctx context.Context, tx Transaction) error
	Get(ctx context.Context, id string) (Transaction, error)
	List(ctx context.Context) ([]Transaction, error)

	// ListOverdue returns records that are past due, not returned and
	// not yet notified: the feed for the overdue scanner.
	ListOverdue(ctx context.Context, now time.Time) ([]Transaction, error)

	// MarkReturned sets returned/returnedAt/kind. Idempotent: a second
	// call is a no-op and the original returnedAt is kept.
	MarkReturned(ctx context.Context, id string, at time.Time) error

	// MarkNotified sets the notification flag. Idempotent and monotonic;
	// the flag is never reset to false.
	MarkNotified(ctx context.Context, id string) error

	CountByKind(ctx context.Context, kind Kind) (int, error)
}

// CreateInput carries the caller-supplied fields for a new transaction.
// Zero BorrowedAt defaults to the current time, zero DueAt defaults to
// BorrowedAt plus the loan period.
type CreateInput struct {
	StudentID   string
	LibrarianID string
	BookID      string
	Kind        Kind
	BorrowedAt  time.Time
	DueAt       time.Time
}

func (in CreateInput) validate() error {
	switch {
	case in.StudentID == "":
		return &ValidationError{Field: "studentId", Reason: "required"}
	case in.LibrarianID == "":
		return &ValidationError{Field: "librarianId", Reason: "required"}
	case in.BookID == "":
		return &ValidationError{Field: "bookId", Reason: "required"}
	case !in.Kind.Valid():
		return &ValidationError{Field: "kind", Reason: "must be borrow or return"}
	}
	return nil
}
