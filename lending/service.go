package lending

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pradatta/libris/notify"
)

// Directory resolves read-only facts about the entities a transaction
// references. Implemented by the catalog and auth stores; the lending core
// never mutates those entities.
type Directory interface {
	StudentName(ctx context.Context, id string) (string, error)
	// StudentEmail returns the address on file, or empty when the student
	// has none. An error means the lookup itself failed.
	StudentEmail(ctx context.Context, id string) (string, error)
	LibrarianName(ctx context.Context, id string) (string, error)
	BookTitle(ctx context.Context, id string) (string, error)
}

// Publisher enqueues a notification for asynchronous delivery.
type Publisher interface {
	Publish(ctx context.Context, msg notify.Message) error
}

// Service implements the transaction lifecycle on top of a Store.
type Service struct {
	store  Store
	dir    Directory
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

// ServiceOption configures the Service
type ServiceOption func(*Service)

// WithServiceLogger sets the logger
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithServiceClock overrides the clock, for tests
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the transaction lifecycle. pub may be nil, in which
// case confirmation mail is skipped entirely.
func NewService(store Store, dir Directory, pub Publisher, options ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		dir:    dir,
		pub:    pub,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Create validates the input, applies defaults, snapshots display fields
// from the referenced entities and persists the record.
func (s *Service) Create(ctx context.Context, in CreateInput) (Transaction, error) {
	if err := in.validate(); err != nil {
		return Transaction{}, err
	}

	borrowedAt := in.BorrowedAt
	if borrowedAt.IsZero() {
		borrowedAt = s.now()
	}
	dueAt := in.DueAt
	if dueAt.IsZero() {
		dueAt = borrowedAt.Add(DefaultLoanPeriod)
	}
	if !dueAt.After(borrowedAt) {
		return Transaction{}, &ValidationError{
			Field:  "dueAt",
			Reason: "must be after the borrowed date",
		}
	}

	studentName, err := s.dir.StudentName(ctx, in.StudentID)
	if err != nil {
		return Transaction{}, fmt.Errorf("lending: resolve student %s: %w", in.StudentID, err)
	}
	librarianName, err := s.dir.LibrarianName(ctx, in.LibrarianID)
	if err != nil {
		return Transaction{}, fmt.Errorf("lending: resolve librarian %s: %w", in.LibrarianID, err)
	}
	bookTitle, err := s.dir.BookTitle(ctx, in.BookID)
	if err != nil {
		return Transaction{}, fmt.Errorf("lending: resolve book %s: %w", in.BookID, err)
	}

	tx := Transaction{
		ID:            ulid.Make().String(),
		StudentID:     in.StudentID,
		LibrarianID:   in.LibrarianID,
		BookID:        in.BookID,
		Kind:          in.Kind,
		BorrowedAt:    borrowedAt,
		DueAt:         dueAt,
		StudentName:   studentName,
		LibrarianName: librarianName,
		BookTitle:     bookTitle,
	}

	if err := s.store.Insert(ctx, tx); err != nil {
		return Transaction{}, err
	}

	s.publishCompleted(ctx, tx)
	return tx, nil
}

// Return marks the transaction returned. Idempotent; NotFound when the
// id does not exist.
func (s *Service) Return(ctx context.Context, id string) (Transaction, error) {
	if err := s.store.MarkReturned(ctx, id, s.now()); err != nil {
		return Transaction{}, err
	}
	tx, err := s.store.Get(ctx, id)
	if err != nil {
		return Transaction{}, err
	}

	s.publishCompleted(ctx, tx)
	return tx, nil
}

// Get fetches one transaction.
func (s *Service) Get(ctx context.Context, id string) (Transaction, error) {
	return s.store.Get(ctx, id)
}

// List fetches all transactions.
func (s *Service) List(ctx context.Context) ([]Transaction, error) {
	return s.store.List(ctx)
}

// Stats reports the borrow/return totals.
func (s *Service) Stats(ctx context.Context) (borrowed, returned int, err error) {
	borrowed, err = s.store.CountByKind(ctx, KindBorrow)
	if err != nil {
		return 0, 0, err
	}
	returned, err = s.store.CountByKind(ctx, KindReturn)
	if err != nil {
		return 0, 0, err
	}
	return borrowed, returned, nil
}

// publishCompleted enqueues the confirmation mail, best effort. Failure is
// logged and swallowed: confirmation mail never blocks the transaction.
func (s *Service) publishCompleted(ctx context.Context, tx Transaction) {
	if s.pub == nil {
		return
	}

	email, err := s.dir.StudentEmail(ctx, tx.StudentID)
	if err != nil || email == "" {
		s.logger.Warn("no resolvable email for confirmation",
			"transactionId", tx.ID,
			"studentId", tx.StudentID,
			"error", err)
		return
	}

	subject, body := notify.RenderCompleted(tx.StudentName, tx.BookTitle, tx.ID, string(tx.Kind), s.now())
	msg := notify.Message{Email: email, Subject: subject, Message: body}
	if err := s.pub.Publish(ctx, msg); err != nil {
		s.logger.Error("failed to publish confirmation",
			"transactionId", tx.ID,
			"error", err)
	}
}
