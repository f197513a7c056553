package main

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/ambient"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/config"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/selector"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/store"
)

// daemon owns the running simulation: the ambient loop, its state and the
// store it is saved to. Batches, saves and reloads are serialised by mu.
type daemon struct {
	sel   *selector.Selector
	store *store.Guard
	level *slog.LevelVar

	ticksPerBatch int
	autosaveEvery int

	mu      sync.Mutex
	loop    *ambient.Loop
	state   ambient.State
	rng     *rng.Rng
	batches int
	totals  ambient.Report

	lastBatch atomic.Int64
}

// restore loads the saved simulation, or starts fresh from fresh when
// nothing was saved. Store failures never stop the daemon; the guard logs
// them and reports an empty snapshot.
func restore(ctx context.Context, g *store.Guard, cfg *config.Config, fresh ambient.State) (ambient.State, *rng.Rng) {
	snap, _ := g.Load(ctx)
	if snap.IsEmpty() {
		slog.Info("no saved simulation, starting fresh")
		return fresh, cfg.Simulation.RNG()
	}
	r, err := snap.Rng(cfg.Simulation.RNG().Seed())
	if err != nil {
		slog.Warn("saved random state unusable, reseeding", "err", err)
		r = rng.New(snap.Seed)
	}
	slog.Info("simulation restored",
		"turn", snap.Turn,
		"relationships", len(snap.Relationships),
		"storylines", len(snap.Storylines),
		"saved_at", snap.SavedAt,
	)
	return snap.State(cfg.Memory.Capacity, cfg.Memory.AgeWeight), r
}

// batch runs one budget of ambient ticks and autosaves every autosaveEvery
// batches.
func (d *daemon) batch(ctx context.Context) ambient.Report {
	d.mu.Lock()
	state, rep := d.loop.Run(ctx, d.state, d.rng, ambient.Budget{MaxTicks: d.ticksPerBatch})
	d.state = state
	d.batches++
	d.totals.Ticks += rep.Ticks
	d.totals.Storylines += rep.Storylines
	d.totals.Rumours += rep.Rumours
	d.totals.Elapsed += rep.Elapsed
	due := d.autosaveEvery > 0 && d.batches%d.autosaveEvery == 0
	d.mu.Unlock()

	d.lastBatch.Store(time.Now().UnixNano())
	slog.Debug("ambient batch",
		"ticks", rep.Ticks,
		"storylines", rep.Storylines,
		"rumours", rep.Rumours,
		"reason", rep.Reason,
		"turn", state.World.Turn,
	)
	if due {
		d.save(ctx)
	}
	return rep
}

// snapshot captures the current state for saving.
func (d *daemon) snapshot() (store.Snapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap, err := store.FromState(d.state, d.rng)
	if err != nil {
		return store.Snapshot{}, err
	}
	snap.SavedAt = time.Now().UTC()
	return snap, nil
}

// save writes the current state. Failures are logged and absorbed.
func (d *daemon) save(ctx context.Context) {
	snap, err := d.snapshot()
	if err != nil {
		slog.Warn("snapshot failed", "err", err)
		return
	}
	_ = d.store.Save(ctx, snap)
	slog.Debug("simulation saved", "turn", snap.Turn, "degraded", d.store.IsDegraded())
}

// run ticks a batch every interval until ctx is done.
func (d *daemon) run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.batch(ctx)
		}
	}
}

// reload applies the hot-reloadable part of a configuration change.
func (d *daemon) reload(old, updated *config.Config) {
	diff := config.Diff(old, updated)
	if diff.IsEmpty() {
		return
	}
	if diff.LogLevelChanged {
		d.level.Set(diff.NewLogLevel.SlogLevel())
		slog.Info("log level changed", "level", diff.NewLogLevel)
	}
	if diff.SelectorChanged {
		d.sel.Tune(updated.SelectorTunables())
		slog.Info("selector tunables updated")
	}
	if diff.AmbientChanged {
		d.mu.Lock()
		d.loop = d.loop.Tune(
			updated.Ambient.InterestThreshold,
			updated.Ambient.SwingThreshold,
			updated.Ambient.MaxStorylines,
		)
		d.mu.Unlock()
		slog.Info("ambient thresholds updated")
	}
	if len(diff.RestartRequired) > 0 {
		slog.Warn("configuration changes need a restart to take effect", "sections", diff.RestartRequired)
	}
}

// lastActivity returns the time the last batch finished.
func (d *daemon) lastActivity() time.Time {
	n := d.lastBatch.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// summary returns the run totals and the current turn.
func (d *daemon) summary() (ambient.Report, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totals, d.state.World.Turn
}
