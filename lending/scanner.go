package lending

import (
	"context"
	"log/slog"
	"time"

	"github.com/pradatta/libris/notify"
)

// Scanner walks the overdue feed and dispatches one notification per
// transaction. It is invoked on an external cadence (cron, or the API
// trigger endpoint) and processes candidates sequentially; each candidate
// is an independent unit of work, so ordering is unspecified.
type Scanner struct {
	store  Store
	dir    Directory
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

// ScannerOption configures the Scanner
type ScannerOption func(*Scanner)

// WithScannerLogger sets the logger
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithScannerClock overrides the clock, for tests
func WithScannerClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) {
		s.now = now
	}
}

// NewScanner creates an overdue scanner.
func NewScanner(store Store, dir Directory, pub Publisher, options ...ScannerOption) *Scanner {
	s := &Scanner{
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

// Scan runs one pass. Per-item failures (unresolvable email, broker
// unreachable) are logged and skipped; because the notified flag is only
// set after a successful publish, skipped items simply reappear on the
// next cycle. The scan is therefore resumable mid-batch. The returned
// count is advisory.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	if s.pub == nil {
		return 0, ErrPublisherUnavailable
	}
	now := s.now()

	overdue, err := s.store.ListOverdue(ctx, now)
	if err != nil {
		return 0, err
	}

	s.logger.Info("overdue scan started", "candidates", len(overdue))

	processed := 0
	for _, tx := range overdue {
		email, err := s.dir.StudentEmail(ctx, tx.StudentID)
		if err != nil || email == "" {
			s.logger.Warn("skipping transaction with no resolvable email",
				"transactionId", tx.ID,
				"studentId", tx.StudentID,
				"error", err)
			continue
		}

		subject, body := notify.RenderOverdue(tx.StudentName, tx.BookTitle, tx.DueAt)
		msg := notify.Message{Email: email, Subject: subject, Message: body}

		if err := s.pub.Publish(ctx, msg); err != nil {
			// Item stays eligible: the flag was never set.
			s.logger.Error("publish failed, item retried next cycle",
				"transactionId", tx.ID,
				"error", err)
			continue
		}

		if err := s.store.MarkNotified(ctx, tx.ID); err != nil {
			// Publish went out but the flag did not stick; the next cycle
			// may publish again. Accepted: delivery is at-least-once.
			s.logger.Error("failed to mark transaction notified",
				"transactionId", tx.ID,
				"error", err)
			continue
		}

		processed++
	}

	s.logger.Info("overdue scan finished",
		"candidates", len(overdue),
		"notified", processed)
	return processed, nil
}
