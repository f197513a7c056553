// Package mock provides a test double for the store.Store interface.
//
// Use Store in unit tests to feed a controlled snapshot to code that restores
// state, and to inspect what was saved, without a database. Set the Err
// fields to inject failures.
//
// Example:
//
//	s := &mock.Store{LoadErr: errors.New("connection refused")}
//	g := store.NewGuard(s, nil)
package mock

import (
	"context"
	"sync"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/store"
)

// Store is a mock implementation of store.Store.
// A zero Store has nothing saved: Load returns store.ErrNoSnapshot until
// Snapshot is set or Save is called.
type Store struct {
	mu sync.Mutex

	// --- Configurable responses ---

	// Snapshot is returned by Load when Found is true. Save replaces it.
	Snapshot store.Snapshot
	Found    bool

	// LoadErr, if non-nil, is returned by Load.
	LoadErr error

	// SaveErr, if non-nil, is returned by Save and the snapshot is not kept.
	SaveErr error

	// CloseErr, if non-nil, is returned by Close.
	CloseErr error

	// --- Call records (read after test) ---

	LoadCalls  int
	CloseCalls int

	// Saved records every snapshot passed to Save, including failed ones.
	Saved []store.Snapshot
}

var _ store.Store = (*Store)(nil)

// Load implements store.Store.
func (s *Store) Load(_ context.Context) (store.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoadCalls++
	if s.LoadErr != nil {
		return store.Snapshot{}, s.LoadErr
	}
	if !s.Found {
		return store.Snapshot{}, store.ErrNoSnapshot
	}
	return s.Snapshot, nil
}

// Save implements store.Store.
func (s *Store) Save(_ context.Context, snap store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Saved = append(s.Saved, snap)
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.Snapshot, s.Found = snap, true
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	return s.CloseErr
}

// SaveCalls returns the number of Save invocations.
func (s *Store) SaveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Saved)
}

// SetLoadErr sets LoadErr under the lock, for tests that flip it while
// another goroutine is using the store.
func (s *Store) SetLoadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoadErr = err
}
