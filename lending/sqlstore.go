package lending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLStore is the MySQL-backed Store.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates the transactions table if it is absent.
func (s *SQLStore) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS transactions (
	transaction_ulid  CHAR(26)     NOT NULL PRIMARY KEY,
	student_id        CHAR(26)     NOT NULL,
	librarian_id      CHAR(36)     NOT NULL,
	book_id           CHAR(26)     NOT NULL,
	kind              VARCHAR(10)  NOT NULL,
	borrowed_at       DATETIME     NOT NULL,
	due_at            DATETIME     NOT NULL,
	returned          TINYINT(1)   NOT NULL DEFAULT 0,
	returned_at       DATETIME     NULL,
	notification_sent TINYINT(1)   NOT NULL DEFAULT 0,
	student_name      VARCHAR(255) NOT NULL,
	librarian_name    VARCHAR(255) NOT NULL,
	book_name         VARCHAR(255) NOT NULL,
	KEY idx_overdue (returned, notification_sent, due_at)
)`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

type transactionRow struct {
	ID               string       `db:"transaction_ulid"`
	StudentID        string       `db:"student_id"`
	LibrarianID      string       `db:"librarian_id"`
	BookID           string       `db:"book_id"`
	Kind             string       `db:"kind"`
	BorrowedAt       time.Time    `db:"borrowed_at"`
	DueAt            time.Time    `db:"due_at"`
	Returned         bool         `db:"returned"`
	ReturnedAt       sql.NullTime `db:"returned_at"`
	NotificationSent bool         `db:"notification_sent"`
	StudentName      string       `db:"student_name"`
	LibrarianName    string       `db:"librarian_name"`
	BookName         string       `db:"book_name"`
}

func (r transactionRow) toTransaction() Transaction {
	tx := Transaction{
		ID:               r.ID,
		StudentID:        r.StudentID,
		LibrarianID:      r.LibrarianID,
		BookID:           r.BookID,
		Kind:             Kind(r.Kind),
		BorrowedAt:       r.BorrowedAt,
		DueAt:            r.DueAt,
		Returned:         r.Returned,
		NotificationSent: r.NotificationSent,
		StudentName:      r.StudentName,
		LibrarianName:    r.LibrarianName,
		BookTitle:        r.BookName,
	}
	if r.ReturnedAt.Valid {
		at := r.ReturnedAt.Time
		tx.ReturnedAt = &at
	}
	return tx
}

const transactionColumns = `transaction_ulid, student_id, librarian_id, book_id, kind,
	borrowed_at, due_at, returned, returned_at, notification_sent,
	student_name, librarian_name, book_name`

// Insert implements Store.
func (s *SQLStore) Insert(ctx context.Context, tx Transaction) error {
	const q = `INSERT INTO transactions
	(transaction_ulid, student_id, librarian_id, book_id, kind,
	 borrowed_at, due_at, returned, returned_at, notification_sent,
	 student_name, librarian_name, book_name)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var returnedAt any
	if tx.ReturnedAt != nil {
		returnedAt = *tx.ReturnedAt
	}

	_, err := s.db.ExecContext(ctx, q,
		tx.ID, tx.StudentID, tx.LibrarianID, tx.BookID, string(tx.Kind),
		tx.BorrowedAt, tx.DueAt, tx.Returned, returnedAt, tx.NotificationSent,
		tx.StudentName, tx.LibrarianName, tx.BookTitle)
	if err != nil {
		return fmt.Errorf("lending: insert transaction: %w", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, id string) (Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_ulid = ?`

	var row transactionRow
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Transaction{}, ErrNotFound
		}
		return Transaction{}, fmt.Errorf("lending: get transaction: %w", err)
	}
	return row.toTransaction(), nil
}

// List implements Store.
func (s *SQLStore) List(ctx context.Context) ([]Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY borrowed_at DESC`

	var rows []transactionRow
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("lending: list transactions: %w", err)
	}
	out := make([]Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toTransaction())
	}
	return out, nil
}

// ListOverdue implements Store.
func (s *SQLStore) ListOverdue(ctx context.Context, now time.Time) ([]Transaction, error) {
	q := `SELECT ` + transactionColumns + ` FROM transactions
	WHERE returned = 0 AND notification_sent = 0 AND due_at < ?`

	var rows []transactionRow
	if err := s.db.SelectContext(ctx, &rows, q, now); err != nil {
		return nil, fmt.Errorf("lending: list overdue: %w", err)
	}
	out := make([]Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toTransaction())
	}
	return out, nil
}

// MarkReturned implements Store. The update leaves an earlier returned_at
// untouched so a repeated call cannot rewrite history.
func (s *SQLStore) MarkReturned(ctx context.Context, id string, at time.Time) error {
	tx, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if tx.Returned {
		return nil
	}

	const q = `UPDATE transactions
	SET kind = ?, returned = 1, returned_at = COALESCE(returned_at, ?)
	WHERE transaction_ulid = ?`
	if _, err := s.db.ExecContext(ctx, q, string(KindReturn), at, id); err != nil {
		return fmt.Errorf("lending: mark returned: %w", err)
	}
	return nil
}

// MarkNotified implements Store.
func (s *SQLStore) MarkNotified(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	const q = `UPDATE transactions SET notification_sent = 1 WHERE transaction_ulid = ?`
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("lending: mark notified: %w", err)
	}
	return nil
}

// CountByKind implements Store.
func (s *SQLStore) CountByKind(ctx context.Context, kind Kind) (int, error) {
	const q = `SELECT COUNT(*) FROM transactions WHERE kind = ?`

	var n int
	if err := s.db.GetContext(ctx, &n, q, string(kind)); err != nil {
		return 0, fmt.Errorf("lending: count by kind: %w", err)
	}
	return n, nil
}
