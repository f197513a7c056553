package store

import (
	"context"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store]. It keeps
// the last saved snapshot for the lifetime of the process and is used for
// the "memory" backend and in tests.
//
// The zero value is ready to use.
type MemStore struct {
	mu     sync.RWMutex
	rows   *Rows
	closed bool
}

// NewMemStore returns an empty [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load implements [Store.Load].
func (s *MemStore) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Snapshot{}, ErrClosed
	}
	if s.rows == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return FromRows(*s.rows), nil
}

// Save implements [Store.Save]. The snapshot is flattened on the way in so
// later changes to s do not leak into the stored copy.
func (s *MemStore) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := snap.ToRows()
	rows.Meta.RNGState = append([]byte(nil), rows.Meta.RNGState...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.rows = &rows
	return nil
}

// Close implements [Store.Close].
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
