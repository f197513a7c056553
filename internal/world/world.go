// Package world holds the complete mutable-by-replacement state of the
// simulation: relationships, memories, behavioural states, open conversation
// threads and the turn counter.
//
// A [World] is a value. Every With method returns a new World sharing
// unchanged data with the receiver, so a World handed to a reader stays valid
// no matter what happens afterwards.
package world

import (
	"maps"
	"slices"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/conversation"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/npc"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/memory"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// pair is an unordered pair of participants.
type pair struct{ a, b types.NPCID }

func pairOf(x, y types.NPCID) pair {
	if y < x {
		x, y = y, x
	}
	return pair{x, y}
}

// World is the simulation state.
type World struct {
	Ledger social.Ledger

	// Turn is the global turn counter.
	Turn int64

	// MemoryCapacity and AgeWeight configure memories created lazily.
	MemoryCapacity int
	AgeWeight      float64

	memories  map[types.NPCID]memory.Memory
	behaviors map[types.NPCID]behavior.State
	threads   map[pair]conversation.Thread
}

// New returns an empty world. Non-positive capacity and negative age weight
// use the memory package defaults.
func New(capacity int, ageWeight float64) World {
	if capacity <= 0 {
		capacity = memory.DefaultCapacity
	}
	if ageWeight < 0 {
		ageWeight = memory.DefaultAgeWeight
	}
	return World{MemoryCapacity: capacity, AgeWeight: ageWeight}
}

// FromRegistry returns a world seeded with the authored relationships of reg.
func FromRegistry(reg *npc.Registry, capacity int, ageWeight float64) World {
	w := New(capacity, ageWeight)
	var rels []social.Relationship
	for _, d := range reg.All() {
		rels = append(rels, d.Seed(0)...)
	}
	w.Ledger = social.NewLedger(rels...)
	return w
}

// Relationship returns owner's view of other, neutral when they never met.
func (w World) Relationship(owner, other types.NPCID) social.Relationship {
	return w.Ledger.Get(owner, other)
}

// WithRelationship stores r.
func (w World) WithRelationship(r social.Relationship) World {
	w.Ledger = w.Ledger.With(r)
	return w
}

// Memory returns owner's memory, empty when nothing was recorded yet.
func (w World) Memory(owner types.NPCID) memory.Memory {
	if m, ok := w.memories[owner]; ok {
		return m
	}
	return memory.New(owner, w.MemoryCapacity, w.AgeWeight)
}

// WithMemory stores m under m.Owner.
func (w World) WithMemory(m memory.Memory) World {
	w.memories = maps.Clone(w.memories)
	if w.memories == nil {
		w.memories = make(map[types.NPCID]memory.Memory)
	}
	w.memories[m.Owner] = m
	return w
}

// Remember appends e to owner's memory and reports what was evicted.
func (w World) Remember(owner types.NPCID, e memory.Event) (World, memory.Eviction) {
	m, ev := memory.AddEvent(w.Memory(owner), e)
	return w.WithMemory(m), ev
}

// MemoryOwners returns the ids with a recorded memory, sorted.
func (w World) MemoryOwners() []types.NPCID {
	return slices.Sorted(maps.Keys(w.memories))
}

// Behavior returns id's behavioural state, idle by default.
func (w World) Behavior(id types.NPCID) behavior.State {
	if s, ok := w.behaviors[id]; ok {
		return s
	}
	return behavior.Idle
}

// WithBehavior stores id's behavioural state.
func (w World) WithBehavior(id types.NPCID, s behavior.State) World {
	w.behaviors = maps.Clone(w.behaviors)
	if w.behaviors == nil {
		w.behaviors = make(map[types.NPCID]behavior.State)
	}
	w.behaviors[id] = s
	return w
}

// Behaviors returns a copy of every stored behavioural state.
func (w World) Behaviors() map[types.NPCID]behavior.State {
	return maps.Clone(w.behaviors)
}

// Thread returns the conversation between a and b, a fresh one when they have
// not talked or their last conversation ended.
func (w World) Thread(a, b types.NPCID) conversation.Thread {
	if t, ok := w.threads[pairOf(a, b)]; ok && !t.Ended {
		return t
	}
	return conversation.New("")
}

// LastThread returns the stored conversation between a and b, ended or not.
func (w World) LastThread(a, b types.NPCID) (conversation.Thread, bool) {
	t, ok := w.threads[pairOf(a, b)]
	return t, ok
}

// WithThread stores the conversation between a and b.
func (w World) WithThread(a, b types.NPCID, t conversation.Thread) World {
	w.threads = maps.Clone(w.threads)
	if w.threads == nil {
		w.threads = make(map[pair]conversation.Thread)
	}
	w.threads[pairOf(a, b)] = t
	return w
}

// Advance returns w one turn later.
func (w World) Advance() World {
	w.Turn++
	return w
}

// Participants returns every id appearing in the world, sorted.
func (w World) Participants() []types.NPCID {
	seen := make(map[types.NPCID]struct{})
	for _, r := range w.Ledger.All() {
		seen[r.Owner] = struct{}{}
		seen[r.Other] = struct{}{}
	}
	for id := range w.memories {
		seen[id] = struct{}{}
	}
	for id := range w.behaviors {
		seen[id] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}
