package lending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pradatta/libris/internal/rabbitmq"
)

func scanFixture(t *testing.T) (*MemoryStore, *stubDirectory, *capturingPublisher) {
	t.Helper()
	return NewMemoryStore(), testDirectory(), &capturingPublisher{}
}

func TestScannerScan(t *testing.T) {
	ctx := context.Background()

	t.Run("notifies each overdue transaction once", func(t *testing.T) {
		store, dir, pub := scanFixture(t)
		seed(t, store, Transaction{
			ID: "t1", StudentID: "s1", Kind: KindBorrow,
			BorrowedAt: day(0), DueAt: day(14),
			StudentName: "Ravi Sharma", BookTitle: "The Go Programming Language",
		})
		scanner := NewScanner(store, dir, pub, WithScannerClock(fixedClock(day(15))))

		processed, err := scanner.Scan(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, processed)
		require.Len(t, pub.messages, 1)
		assert.Equal(t, "ravi@example.edu", pub.messages[0].Email)
		assert.Equal(t, "Overdue Book Notification", pub.messages[0].Subject)

		// Second scan the next day finds nothing.
		scanner = NewScanner(store, dir, pub, WithScannerClock(fixedClock(day(16))))
		processed, err = scanner.Scan(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, processed)
		assert.Len(t, pub.messages, 1)
	})

	t.Run("skips borrower with no resolvable email without failing the batch", func(t *testing.T) {
		store, dir, pub := scanFixture(t)
		dir.names["s2"] = "No Mail"
		seed(t, store, Transaction{ID: "t1", StudentID: "s2", Kind: KindBorrow, BorrowedAt: day(0), DueAt: day(14)})
		seed(t, store, Transaction{ID: "t2", StudentID: "s1", Kind: KindBorrow, BorrowedAt: day(0), DueAt: day(14)})
		scanner := NewScanner(store, dir, pub, WithScannerClock(fixedClock(day(15))))

		processed, err := scanner.Scan(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		// The skipped item stays unnotified and eligible.
		tx, err := store.Get(ctx, "t1")
		require.NoError(t, err)
		assert.False(t, tx.NotificationSent)
	})

	t.Run("publish failure leaves the item eligible for the next cycle", func(t *testing.T) {
		store, dir, pub := scanFixture(t)
		pub.failWith = &rabbitmq.PublishError{Queue: "transaction_email_queue", Err: context.DeadlineExceeded, Timestamp: time.Now()}
		seed(t, store, Transaction{ID: "t1", StudentID: "s1", Kind: KindBorrow, BorrowedAt: day(0), DueAt: day(14)})
		scanner := NewScanner(store, dir, pub, WithScannerClock(fixedClock(day(15))))

		processed, err := scanner.Scan(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, processed)

		// Broker recovers; next cycle succeeds.
		pub.failWith = nil
		processed, err = scanner.Scan(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, processed)

		tx, err := store.Get(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, tx.NotificationSent)
	})

	t.Run("returned and already-notified records are not candidates", func(t *testing.T) {
		store, dir, pub := scanFixture(t)
		returnedAt := day(9)
		seed(t, store, Transaction{ID: "back", StudentID: "s1", Kind: KindReturn, BorrowedAt: day(0), DueAt: day(14), Returned: true, ReturnedAt: &returnedAt})
		seed(t, store, Transaction{ID: "done", StudentID: "s1", Kind: KindBorrow, BorrowedAt: day(0), DueAt: day(14), NotificationSent: true})
		scanner := NewScanner(store, dir, pub, WithScannerClock(fixedClock(day(20))))

		processed, err := scanner.Scan(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, processed)
		assert.Empty(t, pub.messages)
	})
}
