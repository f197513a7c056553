package store

import (
	"context"
	"errors"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/resilience"
)

// Backend is a named store in a [ChainStore].
type Backend struct {
	Name  string
	Store Store
}

// ChainStore tries a primary store and then its fallbacks, each behind its
// own circuit breaker. Writes go to the first backend that accepts them.
type ChainStore struct {
	group    *resilience.FallbackGroup[Store]
	backends []Backend
}

var _ Store = (*ChainStore)(nil)

// Chain builds a [ChainStore] from primary and fallbacks, in that order.
func Chain(cfg resilience.FallbackConfig, primary Backend, fallbacks ...Backend) *ChainStore {
	c := &ChainStore{
		group:    resilience.NewFallbackGroup(primary.Store, primary.Name, cfg),
		backends: append([]Backend{primary}, fallbacks...),
	}
	for _, b := range fallbacks {
		c.group.AddFallback(b.Name, b.Store)
	}
	return c
}

// Load returns the snapshot of the first backend that answers. A backend that
// has nothing saved answers with [ErrNoSnapshot], which ends the search
// without tripping its breaker.
func (c *ChainStore) Load(ctx context.Context) (Snapshot, error) {
	type result struct {
		snap  Snapshot
		found bool
	}
	res, err := resilience.ExecuteWithResult(c.group, func(s Store) (result, error) {
		snap, err := s.Load(ctx)
		if errors.Is(err, ErrNoSnapshot) {
			return result{}, nil
		}
		if err != nil {
			return result{}, err
		}
		return result{snap: snap, found: true}, nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	if !res.found {
		return Snapshot{}, ErrNoSnapshot
	}
	return res.snap, nil
}

// Save writes s to the first backend that accepts it.
func (c *ChainStore) Save(ctx context.Context, s Snapshot) error {
	return c.group.Execute(func(st Store) error {
		return st.Save(ctx, s)
	})
}

// Close closes every backend and returns their joined errors.
func (c *ChainStore) Close() error {
	var errs []error
	for _, b := range c.backends {
		errs = append(errs, b.Store.Close())
	}
	return errors.Join(errs...)
}

// Status returns the breaker state of every backend.
func (c *ChainStore) Status() []resilience.BackendStatus {
	return c.group.Status()
}
