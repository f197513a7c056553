package npc

import (
	"errors"
	"fmt"
	"slices"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// ErrNotFound is returned by Get when the requested NPC does not exist.
var ErrNotFound = errors.New("npc: not found")

// ErrDuplicateID is returned when two definitions share an id.
var ErrDuplicateID = errors.New("npc: duplicate id")

// Registry is the read-only set of known NPCs. It is safe for concurrent use.
type Registry struct {
	defs map[types.NPCID]Definition
	ids  []types.NPCID
}

// NewRegistry validates defs and returns a registry holding them. All
// problems are reported together.
func NewRegistry(defs ...Definition) (*Registry, error) {
	reg := &Registry{defs: make(map[types.NPCID]Definition, len(defs))}

	var errs []error
	for _, d := range defs {
		if err := Validate(d); err != nil {
			errs = append(errs, fmt.Errorf("npc %q: %w", d.ID, err))
			continue
		}
		if _, dup := reg.defs[d.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateID, d.ID))
			continue
		}
		d.Topics = slices.Clone(d.Topics)
		d.Relationships = slices.Clone(d.Relationships)
		reg.defs[d.ID] = d
		reg.ids = append(reg.ids, d.ID)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	slices.Sort(reg.ids)
	return reg, nil
}

// Get returns the definition of id.
func (r *Registry) Get(id types.NPCID) (Definition, error) {
	d, ok := r.defs[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return d, nil
}

// Lookup returns the definition of id, or [Unknown] when it is missing.
func (r *Registry) Lookup(id types.NPCID) Definition {
	if d, ok := r.defs[id]; ok {
		return d
	}
	return Unknown(id)
}

// Has reports whether id is registered.
func (r *Registry) Has(id types.NPCID) bool {
	_, ok := r.defs[id]
	return ok
}

// IDs returns every registered id, sorted.
func (r *Registry) IDs() []types.NPCID { return slices.Clone(r.ids) }

// All returns every definition sorted by id.
func (r *Registry) All() []Definition {
	out := make([]Definition, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.defs[id])
	}
	return out
}

// Len returns the number of registered NPCs.
func (r *Registry) Len() int { return len(r.ids) }
