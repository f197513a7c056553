package social

import (
	"cmp"
	"slices"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// Ledger holds every relationship in the world. It is an immutable value:
// [Ledger.With] returns a new ledger and leaves the receiver untouched, so
// earlier ledgers stay valid for any reader holding them.
type Ledger struct {
	rows map[types.NPCID]map[types.NPCID]Relationship
}

// Get returns owner's relationship with other, or a neutral one when the pair
// has never interacted.
func (l Ledger) Get(owner, other types.NPCID) Relationship {
	if rel, ok := l.rows[owner][other]; ok {
		return rel
	}
	return Neutral(owner, other)
}

// Has reports whether owner holds a stored relationship with other.
func (l Ledger) Has(owner, other types.NPCID) bool {
	_, ok := l.rows[owner][other]
	return ok
}

// With returns a ledger in which rel replaces the stored relationship for
// (rel.Owner, rel.Other). Only the owner's row is copied.
func (l Ledger) With(rel Relationship) Ledger {
	rows := make(map[types.NPCID]map[types.NPCID]Relationship, len(l.rows)+1)
	for k, v := range l.rows {
		rows[k] = v
	}
	row := make(map[types.NPCID]Relationship, len(l.rows[rel.Owner])+1)
	for k, v := range l.rows[rel.Owner] {
		row[k] = v
	}
	row[rel.Other] = rel
	rows[rel.Owner] = row
	return Ledger{rows: rows}
}

// Len returns the number of stored relationships.
func (l Ledger) Len() int {
	n := 0
	for _, row := range l.rows {
		n += len(row)
	}
	return n
}

// All returns every stored relationship sorted by owner then other.
func (l Ledger) All() []Relationship {
	out := make([]Relationship, 0, l.Len())
	for _, row := range l.rows {
		for _, rel := range row {
			out = append(out, rel)
		}
	}
	slices.SortFunc(out, func(a, b Relationship) int {
		if c := cmp.Compare(a.Owner, b.Owner); c != 0 {
			return c
		}
		return cmp.Compare(a.Other, b.Other)
	})
	return out
}

// NewLedger builds a ledger from stored relationships, e.g. after a load.
// Later duplicates replace earlier ones.
func NewLedger(rels ...Relationship) Ledger {
	rows := make(map[types.NPCID]map[types.NPCID]Relationship)
	for _, rel := range rels {
		row, ok := rows[rel.Owner]
		if !ok {
			row = make(map[types.NPCID]Relationship)
			rows[rel.Owner] = row
		}
		row[rel.Other] = rel
	}
	return Ledger{rows: rows}
}
