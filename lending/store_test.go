package lending

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return day0.Add(time.Duration(n) * 24 * time.Hour)
}

func seed(t *testing.T, s Store, tx Transaction) Transaction {
	t.Helper()
	require.NoError(t, s.Insert(context.Background(), tx))
	return tx
}

func TestIsOverdue(t *testing.T) {
	tx := Transaction{Kind: KindBorrow, BorrowedAt: day(0), DueAt: day(14)}

	assert.False(t, tx.IsOverdue(day(14)), "not overdue at the due instant")
	assert.True(t, tx.IsOverdue(day(15)))

	tx.Returned = true
	assert.False(t, tx.IsOverdue(day(15)), "a returned loan is never overdue")
}

func TestMemoryStoreMarkReturned(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id is NotFound", func(t *testing.T) {
		s := NewMemoryStore()
		assert.ErrorIs(t, s.MarkReturned(ctx, "missing", day(1)), ErrNotFound)
	})

	t.Run("sets returned fields and kind", func(t *testing.T) {
		s := NewMemoryStore()
		seed(t, s, Transaction{ID: "t1", Kind: KindBorrow, BorrowedAt: day(0), DueAt: day(14)})

		require.NoError(t, s.MarkReturned(ctx, "t1", day(10)))

		tx, err := s.Get(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, tx.Returned)
		assert.Equal(t, KindReturn, tx.Kind)
		require.NotNil(t, tx.ReturnedAt)
		assert.Equal(t, day(10), *tx.ReturnedAt)

		// Early return permanently kills overdueness.
		assert.False(t, tx.IsOverdue(day(15)))
		assert.False(t, tx.IsOverdue(day(100)))
	})

	t.Run("idempotent, keeps first returnedAt", func(t *testing.T) {
		s := NewMemoryStore()
		seed(t, s, Transaction{ID: "t1", Kind: KindBorrow, BorrowedAt: day(0), DueAt: day(14)})

		require.NoError(t, s.MarkReturned(ctx, "t1", day(10)))
		require.NoError(t, s.MarkReturned(ctx, "t1", day(12)))

		tx, err := s.Get(ctx, "t1")
		require.NoError(t, err)
		require.NotNil(t, tx.ReturnedAt)
		assert.Equal(t, day(10), *tx.ReturnedAt)
	})
}

func TestMemoryStoreMarkNotified(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, Transaction{ID: "t1", Kind: KindBorrow, BorrowedAt: day(0), DueAt: day(14)})

	require.NoError(t, s.MarkNotified(ctx, "t1"))
	first, err := s.Get(ctx, "t1")
	require.NoError(t, err)

	// Second call: no error, no observable difference.
	require.NoError(t, s.MarkNotified(ctx, "t1"))
	second, err := s.Get(ctx, "t1")
	require.NoError(t, err)

	assert.True(t, first.NotificationSent)
	assert.Equal(t, first, second)

	assert.ErrorIs(t, s.MarkNotified(ctx, "missing"), ErrNotFound)
}

func TestMemoryStoreListOverdue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	seed(t, s, Transaction{ID: "due", Kind: KindBorrow, BorrowedAt: day(0), DueAt: day(14)})
	seed(t, s, Transaction{ID: "fresh", Kind: KindBorrow, BorrowedAt: day(10), DueAt: day(24)})
	seed(t, s, Transaction{ID: "notified", Kind: KindBorrow, BorrowedAt: day(0), DueAt: day(14), NotificationSent: true})
	returned := day(9)
	seed(t, s, Transaction{ID: "back", Kind: KindReturn, BorrowedAt: day(0), DueAt: day(14), Returned: true, ReturnedAt: &returned})

	overdue, err := s.ListOverdue(ctx, day(15))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "due", overdue[0].ID)
}

// Lifecycle walk from the scenario: borrow on day 0 with no due date,
// notified on day 15, invisible to the scan on day 16.
func TestOverdueEpisodeLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	dir := &stubDirectory{
		names:  map[string]string{"s1": "Ravi"},
		emails: map[string]string{"s1": "ravi@example.edu"},
		books:  map[string]string{"b1": "The Go Programming Language"},
		users:  map[string]string{"u1": "Priya"},
	}
	svc := NewService(store, dir, nil, WithServiceClock(func() time.Time { return day(0) }))

	tx, err := svc.Create(ctx, CreateInput{
		StudentID: "s1", LibrarianID: "u1", BookID: "b1", Kind: KindBorrow,
	})
	require.NoError(t, err)
	assert.Equal(t, day(14), tx.DueAt, "default due date is borrowed + 14 days")

	overdue, err := store.ListOverdue(ctx, day(15))
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	require.NoError(t, store.MarkNotified(ctx, tx.ID))

	overdue, err = store.ListOverdue(ctx, day(16))
	require.NoError(t, err)
	assert.Empty(t, overdue, "a notified transaction is excluded from later scans")
}
