// Package storetest holds shared fixtures and a behavioural test suite that
// every store.Store implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/ambient"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/store"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/memory"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// Sample returns a snapshot that populates every persisted field.
func Sample(t testing.TB) store.Snapshot {
	t.Helper()

	r := rng.New(7)
	for range 5 {
		r.Uint64()
	}
	state, err := r.State()
	if err != nil {
		t.Fatalf("rng state: %v", err)
	}

	bones := social.Neutral("mr-bones", "stitch-up-girl")
	bones.Stats = social.Stats{-12.5, 4, 10, 0, 35, 6, -3}
	bones.Interactions, bones.LastTurn = 6, 41
	stitch := social.Neutral("stitch-up-girl", "mr-bones")
	stitch.Stats = social.Stats{8, 2, 0, 15, 20, 6, 0}
	stitch.Interactions, stitch.LastTurn = 6, 41

	ev := func(kind memory.EventKind, mag float64, who types.NPCID, turn int64) memory.Event {
		return memory.NewEvent(kind, mag, who, turn)
	}

	return store.Snapshot{
		Turn:          42,
		Seed:          r.Seed(),
		RNGState:      state,
		SavedAt:       time.Date(2026, 3, 14, 15, 9, 26, 535000000, time.UTC),
		Relationships: []social.Relationship{bones, stitch},
		Memories: []memory.Memory{
			{Owner: "mr-bones", Events: []memory.Event{
				ev(memory.KindConversation, 10, "stitch-up-girl", 3),
				ev(memory.KindThreat, 50, "stitch-up-girl", 41),
			}},
			{Owner: "stitch-up-girl", Events: []memory.Event{
				ev(memory.KindConversation, 10, "mr-bones", 3),
				{Turn: 41, Kind: memory.KindImpression, Magnitude: 15, Valence: 0.25, Counterpart: types.PlayerID, Note: "player apology"},
			}},
		},
		Behaviors: map[types.NPCID]behavior.State{
			"mr-bones":       behavior.Hostile,
			"stitch-up-girl": behavior.Fleeing,
		},
		Storylines: []ambient.Storyline{
			{
				ID: "a1", Turn: 12, Speaker: "mr-bones", Listener: "stitch-up-girl",
				Pool: types.PoolTaunt, Response: "taunt.bones",
				Reasons: []ambient.Reason{ambient.ReasonSwing}, Interest: 1.25, Swing: 10,
			},
			{
				ID: "b2", Turn: 41, Speaker: "mr-bones", Listener: "stitch-up-girl",
				Pool: types.PoolThreat, Response: "threat.grave",
				Reasons:  []ambient.Reason{ambient.ReasonSwing, ambient.ReasonRareEvent},
				Interest: 3.5, Swing: 20,
				Kinds:    []memory.EventKind{memory.KindThreat},
			},
		},
		Mythology: map[types.NPCID]ambient.Belief{
			"boo-g": {Opinion: -22.5, Strength: 0.64, Source: "mr-bones", Heard: 2, Turn: 30},
		},
	}
}

// Diff compares snapshots the way a round trip through a store preserves
// them. Memory capacity is configuration, not state, so it is ignored.
func Diff(want, got store.Snapshot) string {
	return cmp.Diff(want, got,
		cmpopts.EquateEmpty(),
		cmpopts.IgnoreFields(memory.Memory{}, "Capacity", "AgeWeight"),
	)
}

// Run exercises s against the behaviour every store must share. s must be
// empty and is closed at the end.
func Run(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, store.ErrNoSnapshot) {
		t.Fatalf("Load on an empty store: err = %v, want ErrNoSnapshot", err)
	}

	want := Sample(t)
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d := Diff(want, got); d != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", d)
	}

	// A second save replaces the first rather than merging with it.
	smaller := store.Snapshot{
		Turn:          43,
		Seed:          want.Seed,
		RNGState:      want.RNGState,
		Relationships: want.Relationships[:1],
	}
	if err := s.Save(ctx, smaller); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if d := Diff(smaller, got); d != "" {
		t.Errorf("replace mismatch (-want +got):\n%s", d)
	}

	if _, err := got.Rng(0); err != nil {
		t.Errorf("restored rng: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
