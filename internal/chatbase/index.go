// Package chatbase implements the precomputed dialogue lookup index.
//
// The offline build pipeline authors entries for quantized conversational
// situations. At runtime the live situation is reduced to a [ContextKey] by
// the quantizers in this package and looked up in O(1). A miss is a normal
// outcome that sends the caller to its next fallback.
//
// An [Index] is immutable once built and safe for concurrent readers.
package chatbase

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// SharedNPC is the owner id of entries usable by every NPC. They are consulted
// when an NPC has no entries of its own for a key.
const SharedNPC types.NPCID = "*"

var (
	// ErrDuplicateEntry is returned when two entries share an ID.
	ErrDuplicateEntry = errors.New("chatbase: duplicate entry id")

	// ErrInvalidEntry is returned for entries missing required fields.
	ErrInvalidEntry = errors.New("chatbase: invalid entry")
)

// Trigger restricts when an entry may be used. Zero fields do not restrict.
type Trigger struct {
	MinTurn   int64            `json:"min_turn,omitempty"`
	MaxTurn   int64            `json:"max_turn,omitempty"`
	Domains   []string         `json:"domains,omitempty"`
	Intents   []string         `json:"intents,omitempty"`
	Behaviors []behavior.State `json:"behaviors,omitempty"`
}

// Usage carries offline quality metrics for an entry.
type Usage struct {
	// Seen is how often the entry was chosen during offline simulation.
	Seen int `json:"seen,omitempty"`

	// Score is the entry's quality, 0..1. Zero means unscored.
	Score float64 `json:"score,omitempty"`
}

// Entry is one pre-authored response set for a context key.
type Entry struct {
	ID        string      `json:"id"`
	NPC       types.NPCID `json:"npc,omitempty"`
	Key       ContextKey  `json:"key"`
	Responses []string    `json:"responses"`
	Weight    float64     `json:"weight,omitempty"`
	Trigger   Trigger     `json:"trigger,omitzero"`
	Usage     Usage       `json:"usage,omitzero"`
}

// Confidence is how much the selector should trust this entry.
func (e Entry) Confidence() float64 {
	if e.Usage.Score <= 0 {
		return 1
	}
	return min(e.Usage.Score, 1)
}

func (e Entry) weight() float64 {
	w := e.Weight
	if w <= 0 {
		w = 1
	}
	return w * (0.5 + e.Confidence())
}

// LookupContext is the situational input used to evaluate triggers.
type LookupContext struct {
	Turn     int64
	Domain   string
	Intent   string
	Behavior behavior.State
}

// Allows reports whether the trigger permits use in lc.
func (t Trigger) Allows(lc LookupContext) bool {
	if t.MinTurn > 0 && lc.Turn < t.MinTurn {
		return false
	}
	if t.MaxTurn > 0 && lc.Turn > t.MaxTurn {
		return false
	}
	if len(t.Domains) > 0 && !slices.Contains(t.Domains, lc.Domain) {
		return false
	}
	if len(t.Intents) > 0 && !slices.Contains(t.Intents, lc.Intent) {
		return false
	}
	if len(t.Behaviors) > 0 && !slices.Contains(t.Behaviors, lc.Behavior) {
		return false
	}
	return true
}

// Hit is a successful lookup.
type Hit struct {
	Entry      Entry
	ResponseID string
	Confidence float64
}

// Stats summarises an index.
type Stats struct {
	NPCs    int `json:"npcs"`
	Entries int `json:"total_entries"`
	Keys    int `json:"keys"`
}

// Index is the read-only lookup table.
type Index struct {
	byNPC map[types.NPCID]map[ContextKey][]Entry
	stats Stats
}

// Empty returns an index with no entries. Every lookup against it misses.
func Empty() *Index {
	return &Index{byNPC: map[types.NPCID]map[ContextKey][]Entry{}}
}

// Stats returns entry and key counts.
func (ix *Index) Stats() Stats { return ix.stats }

// NPCs returns the ids with entries, sorted.
func (ix *Index) NPCs() []types.NPCID {
	out := make([]types.NPCID, 0, len(ix.byNPC))
	for id := range ix.byNPC {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Entries returns the entries for npc under key in authored order.
func (ix *Index) Entries(npc types.NPCID, key ContextKey) []Entry {
	return slices.Clone(ix.byNPC[npc][key])
}

// Lookup finds a response for npc in the situation described by key. Entries
// whose trigger rejects lc are skipped; among the rest one entry is drawn by
// weight and one of its responses uniformly. ok is false on a miss, which is
// not an error.
func (ix *Index) Lookup(npc types.NPCID, key ContextKey, lc LookupContext, r *rng.Rng) (Hit, bool) {
	if ix == nil {
		return Hit{}, false
	}
	if h, ok := ix.lookupOwner(npc, key, lc, r); ok {
		return h, true
	}
	if npc == SharedNPC {
		return Hit{}, false
	}
	return ix.lookupOwner(SharedNPC, key, lc, r)
}

func (ix *Index) lookupOwner(owner types.NPCID, key ContextKey, lc LookupContext, r *rng.Rng) (Hit, bool) {
	entries := ix.byNPC[owner][key]
	if len(entries) == 0 {
		return Hit{}, false
	}
	candidates := make([]rng.Weighted[Entry], 0, len(entries))
	for _, e := range entries {
		if e.Trigger.Allows(lc) {
			candidates = append(candidates, rng.Weighted[Entry]{Item: e, Weight: e.weight()})
		}
	}
	e, ok := rng.WeightedChoice(r, candidates)
	if !ok {
		return Hit{}, false
	}
	resp, ok := rng.Pick(r, e.Responses)
	if !ok {
		return Hit{}, false
	}
	return Hit{Entry: e, ResponseID: resp, Confidence: e.Confidence()}, true
}

// Builder accumulates entries and produces an Index.
type Builder struct {
	entries []Entry
	ids     map[string]struct{}
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{ids: make(map[string]struct{})}
}

// Add validates and stores e. Entries without an owner are shared.
func (b *Builder) Add(e Entry) error {
	if e.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidEntry)
	}
	if _, dup := b.ids[e.ID]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateEntry, e.ID)
	}
	if err := e.Key.Validate(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidEntry, e.ID, err)
	}
	if len(e.Responses) == 0 {
		return fmt.Errorf("%w: %q: no responses", ErrInvalidEntry, e.ID)
	}
	if e.Weight < 0 || !finite(e.Weight) {
		return fmt.Errorf("%w: %q: weight %v must be a finite, non-negative number", ErrInvalidEntry, e.ID, e.Weight)
	}
	if !finite(e.Usage.Score) {
		return fmt.Errorf("%w: %q: usage score %v is not finite", ErrInvalidEntry, e.ID, e.Usage.Score)
	}
	if e.NPC == "" {
		e.NPC = SharedNPC
	}
	e.Responses = slices.Clone(e.Responses)
	b.ids[e.ID] = struct{}{}
	b.entries = append(b.entries, e)
	return nil
}

// Build returns the index. The builder may keep being used afterwards; the
// returned index does not observe later additions.
func (b *Builder) Build() *Index {
	ix := Empty()
	keys := 0
	for _, e := range b.entries {
		row, ok := ix.byNPC[e.NPC]
		if !ok {
			row = make(map[ContextKey][]Entry)
			ix.byNPC[e.NPC] = row
		}
		if len(row[e.Key]) == 0 {
			keys++
		}
		row[e.Key] = append(row[e.Key], e)
	}
	ix.stats = Stats{NPCs: len(ix.byNPC), Entries: len(b.entries), Keys: keys}
	return ix
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
