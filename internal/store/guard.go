package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/observe"
)

// Guard wraps a [Store] and makes all operations non-fatal. If the underlying
// store fails, Load returns an empty snapshot and Save drops the write; both
// log a warning and count the failure instead of returning an error.
//
// The simulation keeps running through a database restart. IsDegraded
// reports whether the most recent operation failed.
//
// All methods are safe for concurrent use.
type Guard struct {
	store    Store
	metrics  *observe.Metrics
	degraded atomic.Bool
}

var _ Store = (*Guard)(nil)

// NewGuard creates a [Guard] around s. A nil metrics uses
// [observe.DefaultMetrics].
func NewGuard(s Store, metrics *observe.Metrics) *Guard {
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Guard{store: s, metrics: metrics}
}

// Load returns the stored snapshot. A missing snapshot is not a failure. Any
// other error is logged and swallowed and an empty snapshot is returned.
func (g *Guard) Load(ctx context.Context) (Snapshot, error) {
	snap, err := g.store.Load(ctx)
	switch {
	case err == nil:
		g.degraded.Store(false)
		return snap, nil
	case errors.Is(err, ErrNoSnapshot):
		g.degraded.Store(false)
		return Snapshot{}, nil
	default:
		g.degraded.Store(true)
		g.metrics.RecordStoreError(ctx, "load")
		slog.Warn("store guard: Load failed, starting from a neutral world", "err", err)
		return Snapshot{}, nil
	}
}

// Save attempts to write s. On failure the error is logged and swallowed;
// the store is marked as degraded.
func (g *Guard) Save(ctx context.Context, s Snapshot) error {
	if err := g.store.Save(ctx, s); err != nil {
		g.degraded.Store(true)
		g.metrics.RecordStoreError(ctx, "save")
		slog.Warn("store guard: Save failed, swallowing error", "turn", s.Turn, "err", err)
		return nil
	}
	g.degraded.Store(false)
	return nil
}

// Close closes the underlying store.
func (g *Guard) Close() error { return g.store.Close() }

// IsDegraded reports whether the most recent operation on the underlying
// store failed.
func (g *Guard) IsDegraded() bool {
	return g.degraded.Load()
}
