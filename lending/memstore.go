package lending

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used by tests and dev mode.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Transaction
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Transaction)}
}

// Insert implements Store.
func (s *MemoryStore) Insert(ctx context.Context, tx Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[tx.ID] = tx
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.records[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	return tx, nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, 0, len(s.records))
	for _, tx := range s.records {
		out = append(out, tx)
	}
	return out, nil
}

// ListOverdue implements Store.
func (s *MemoryStore) ListOverdue(ctx context.Context, now time.Time) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Transaction
	for _, tx := range s.records {
		if tx.IsOverdue(now) && !tx.NotificationSent {
			out = append(out, tx)
		}
	}
	return out, nil
}

// MarkReturned implements Store.
func (s *MemoryStore) MarkReturned(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if tx.Returned {
		return nil
	}
	tx.Returned = true
	tx.ReturnedAt = &at
	tx.Kind = KindReturn
	s.records[id] = tx
	return nil
}

// MarkNotified implements Store.
func (s *MemoryStore) MarkNotified(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	tx.NotificationSent = true
	s.records[id] = tx
	return nil
}

// CountByKind implements Store.
func (s *MemoryStore) CountByKind(ctx context.Context, kind Kind) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, tx := range s.records {
		if tx.Kind == kind {
			n++
		}
	}
	return n, nil
}
