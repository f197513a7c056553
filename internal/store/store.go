// Package store persists simulation state between runs.
//
// A [Snapshot] is the persisted form of an [ambient.State] plus the RNG
// cursor, so a restored simulation continues exactly where it stopped. The
// [Store] interface is implemented by the sqlite and postgres subpackages and
// by the in-process [MemStore]. [Guard] and [Chain] wrap stores so that
// persistence trouble degrades the simulation to a neutral start instead of
// stopping it.
package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/ambient"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/world"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/memory"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("store: no snapshot saved")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Store loads and saves the latest snapshot. Save replaces whatever was
// stored before.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Load returns the latest snapshot, or [ErrNoSnapshot] when none exists.
	Load(ctx context.Context) (Snapshot, error)

	// Save replaces the stored snapshot with s.
	Save(ctx context.Context, s Snapshot) error

	Close() error
}

// Snapshot is the persisted simulation state.
type Snapshot struct {
	Turn int64

	// Seed and RNGState restore the random source.
	Seed     uint64
	RNGState []byte

	SavedAt time.Time

	Relationships []social.Relationship
	Memories      []memory.Memory
	Behaviors     map[types.NPCID]behavior.State

	Storylines []ambient.Storyline
	Mythology  map[types.NPCID]ambient.Belief
}

// FromState captures s together with the random source r.
func FromState(s ambient.State, r *rng.Rng) (Snapshot, error) {
	snap := Snapshot{
		Turn:          s.World.Turn,
		Relationships: s.World.Ledger.All(),
		Behaviors:     s.World.Behaviors(),
		Storylines:    slices.Clone(s.Chronicle.Storylines),
		Mythology:     maps.Clone(s.Chronicle.Mythology),
	}
	for _, id := range s.World.MemoryOwners() {
		m := s.World.Memory(id)
		m.Events = slices.Clone(m.Events)
		snap.Memories = append(snap.Memories, m)
	}
	if r != nil {
		state, err := r.State()
		if err != nil {
			return Snapshot{}, err
		}
		snap.Seed = r.Seed()
		snap.RNGState = state
	}
	return snap, nil
}

// State rebuilds the simulation state. Memories are replayed into memories of
// the given capacity, so a smaller configured capacity evicts on restore.
// Unknown behavioural states are dropped.
func (s Snapshot) State(capacity int, ageWeight float64) ambient.State {
	w := world.New(capacity, ageWeight)
	rels := make([]social.Relationship, len(s.Relationships))
	for i, r := range s.Relationships {
		rels[i] = social.Sanitize(r)
	}
	w.Ledger = social.NewLedger(rels...)
	w.Turn = s.Turn
	for _, saved := range s.Memories {
		m := memory.New(saved.Owner, w.MemoryCapacity, w.AgeWeight)
		for _, e := range saved.Events {
			m, _ = memory.AddEvent(m, e)
		}
		w = w.WithMemory(m)
	}
	for _, id := range slices.Sorted(maps.Keys(s.Behaviors)) {
		if st := s.Behaviors[id]; st.IsValid() {
			w = w.WithBehavior(id, st)
		}
	}
	return ambient.State{
		World: w,
		Chronicle: ambient.Chronicle{
			Storylines: slices.Clone(s.Storylines),
			Mythology:  maps.Clone(s.Mythology),
		},
	}
}

// Rng restores the random source, or creates one from fallbackSeed when the
// snapshot carries none.
func (s Snapshot) Rng(fallbackSeed uint64) (*rng.Rng, error) {
	if len(s.RNGState) == 0 {
		return rng.New(fallbackSeed), nil
	}
	return rng.Restore(s.Seed, s.RNGState)
}

// IsEmpty reports whether s holds no simulation data.
func (s Snapshot) IsEmpty() bool {
	return s.Turn == 0 &&
		len(s.Relationships) == 0 &&
		len(s.Memories) == 0 &&
		len(s.Behaviors) == 0 &&
		len(s.Storylines) == 0 &&
		len(s.Mythology) == 0
}
