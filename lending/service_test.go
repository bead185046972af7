package lending

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pradatta/libris/notify"
)

type stubDirectory struct {
	names  map[string]string
	emails map[string]string
	users  map[string]string
	books  map[string]string
	err    error
}

func (d *stubDirectory) StudentName(ctx context.Context, id string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	name, ok := d.names[id]
	if !ok {
		return "", fmt.Errorf("student %s not found", id)
	}
	return name, nil
}

func (d *stubDirectory) StudentEmail(ctx context.Context, id string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	return d.emails[id], nil
}

func (d *stubDirectory) LibrarianName(ctx context.Context, id string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	name, ok := d.users[id]
	if !ok {
		return "", fmt.Errorf("librarian %s not found", id)
	}
	return name, nil
}

func (d *stubDirectory) BookTitle(ctx context.Context, id string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	title, ok := d.books[id]
	if !ok {
		return "", fmt.Errorf("book %s not found", id)
	}
	return title, nil
}

type capturingPublisher struct {
	mu       sync.Mutex
	failWith error
	messages []notify.Message
}

func (p *capturingPublisher) Publish(ctx context.Context, msg notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.messages = append(p.messages, msg)
	return nil
}

func testDirectory() *stubDirectory {
	return &stubDirectory{
		names:  map[string]string{"s1": "Ravi Sharma"},
		emails: map[string]string{"s1": "ravi@example.edu"},
		users:  map[string]string{"u1": "Priya Gupta"},
		books:  map[string]string{"b1": "The Go Programming Language"},
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults due date to borrowed plus fourteen days", func(t *testing.T) {
		svc := NewService(NewMemoryStore(), testDirectory(), nil, WithServiceClock(fixedClock(day(0))))

		tx, err := svc.Create(ctx, CreateInput{
			StudentID: "s1", LibrarianID: "u1", BookID: "b1", Kind: KindBorrow,
		})
		require.NoError(t, err)
		assert.Equal(t, day(0), tx.BorrowedAt)
		assert.Equal(t, day(0).Add(DefaultLoanPeriod), tx.DueAt)
	})

	t.Run("rejects due date not after borrowed date", func(t *testing.T) {
		svc := NewService(NewMemoryStore(), testDirectory(), nil)

		for _, dueAt := range []time.Time{day(0), day(-1)} {
			_, err := svc.Create(ctx, CreateInput{
				StudentID: "s1", LibrarianID: "u1", BookID: "b1", Kind: KindBorrow,
				BorrowedAt: day(0), DueAt: dueAt,
			})
			var ve *ValidationError
			require.ErrorAs(t, err, &ve, "dueAt=%v", dueAt)
			assert.Equal(t, "dueAt", ve.Field)
		}
	})

	t.Run("accepts any due date after borrowed date", func(t *testing.T) {
		svc := NewService(NewMemoryStore(), testDirectory(), nil)

		tx, err := svc.Create(ctx, CreateInput{
			StudentID: "s1", LibrarianID: "u1", BookID: "b1", Kind: KindBorrow,
			BorrowedAt: day(0), DueAt: day(0).Add(time.Minute),
		})
		require.NoError(t, err)
		assert.Equal(t, day(0).Add(time.Minute), tx.DueAt)
	})

	t.Run("snapshots display fields at write time", func(t *testing.T) {
		store := NewMemoryStore()
		dir := testDirectory()
		svc := NewService(store, dir, nil)

		tx, err := svc.Create(ctx, CreateInput{
			StudentID: "s1", LibrarianID: "u1", BookID: "b1", Kind: KindBorrow,
		})
		require.NoError(t, err)
		assert.Equal(t, "Ravi Sharma", tx.StudentName)
		assert.Equal(t, "Priya Gupta", tx.LibrarianName)
		assert.Equal(t, "The Go Programming Language", tx.BookTitle)

		// Later changes to the referenced entity do not bleed back.
		dir.names["s1"] = "Someone Else"
		stored, err := store.Get(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ravi Sharma", stored.StudentName)
	})

	t.Run("rejects missing references", func(t *testing.T) {
		svc := NewService(NewMemoryStore(), testDirectory(), nil)

		_, err := svc.Create(ctx, CreateInput{
			StudentID: "ghost", LibrarianID: "u1", BookID: "b1", Kind: KindBorrow,
		})
		assert.Error(t, err)
	})

	t.Run("rejects incomplete input", func(t *testing.T) {
		svc := NewService(NewMemoryStore(), testDirectory(), nil)

		_, err := svc.Create(ctx, CreateInput{LibrarianID: "u1", BookID: "b1", Kind: KindBorrow})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)

		_, err = svc.Create(ctx, CreateInput{StudentID: "s1", LibrarianID: "u1", BookID: "b1", Kind: "renew"})
		require.ErrorAs(t, err, &ve)
	})

	t.Run("publishes confirmation mail best effort", func(t *testing.T) {
		pub := &capturingPublisher{}
		svc := NewService(NewMemoryStore(), testDirectory(), pub)

		tx, err := svc.Create(ctx, CreateInput{
			StudentID: "s1", LibrarianID: "u1", BookID: "b1", Kind: KindBorrow,
		})
		require.NoError(t, err)
		require.Len(t, pub.messages, 1)
		assert.Equal(t, "ravi@example.edu", pub.messages[0].Email)
		assert.Contains(t, pub.messages[0].Message, tx.ID)
	})

	t.Run("publish failure does not fail the create", func(t *testing.T) {
		pub := &capturingPublisher{failWith: errors.New("broker down")}
		svc := NewService(NewMemoryStore(), testDirectory(), pub)

		_, err := svc.Create(ctx, CreateInput{
			StudentID: "s1", LibrarianID: "u1", BookID: "b1", Kind: KindBorrow,
		})
		assert.NoError(t, err)
	})
}

func TestServiceReturn(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id is NotFound", func(t *testing.T) {
		svc := NewService(NewMemoryStore(), testDirectory(), nil)

		_, err := svc.Return(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("marks returned and reports the updated record", func(t *testing.T) {
		svc := NewService(NewMemoryStore(), testDirectory(), nil, WithServiceClock(fixedClock(day(10))))

		tx, err := svc.Create(ctx, CreateInput{
			StudentID: "s1", LibrarianID: "u1", BookID: "b1", Kind: KindBorrow,
		})
		require.NoError(t, err)

		returned, err := svc.Return(ctx, tx.ID)
		require.NoError(t, err)
		assert.True(t, returned.Returned)
		assert.Equal(t, KindReturn, returned.Kind)
		require.NotNil(t, returned.ReturnedAt)
		assert.Equal(t, day(10), *returned.ReturnedAt)
	})
}

func TestServiceStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, testDirectory(), nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, CreateInput{
			StudentID: "s1", LibrarianID: "u1", BookID: "b1", Kind: KindBorrow,
		})
		require.NoError(t, err)
	}

	borrowed, returned, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, borrowed)
	assert.Equal(t, 0, returned)
}
