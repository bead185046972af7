package lending

import "time"

// Kind distinguishes the two transaction types.
type Kind string

const (
	KindBorrow Kind = "borrow"
	KindReturn Kind = "return"
)

// Valid reports whether k is a known transaction kind.
func (k Kind) Valid() bool {
	return k == KindBorrow || k == KindReturn
}

// DefaultLoanPeriod is added to the borrow date when no due date is given.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// Transaction is a book-lending record. The display fields are snapshots
// taken at write time so the record stays stable for audit even if the
// referenced student, librarian or book changes later.
type Transaction struct {
	ID          string
	StudentID   string
	LibrarianID string
	BookID      string
	Kind        Kind
	BorrowedAt  time.Time
	DueAt       time.Time
	Returned    bool
	ReturnedAt  *time.Time

	// NotificationSent flips false to true at most once per overdue
	// episode and is never reset; it is the idempotency guard that keeps
	// duplicate queue deliveries from double-notifying a borrower.
	NotificationSent bool

	StudentName   string
	LibrarianName string
	BookTitle     string
}

// IsOverdue is a derived predicate, never stored. A returned loan is
// never overdue, regardless of the clock.
func (t Transaction) IsOverdue(now time.Time) bool {
	return !t.Returned && now.After(t.DueAt)
}
