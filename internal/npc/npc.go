// Package npc holds the roster of NPCs taking part in the simulation.
//
// A roster is authored as YAML ([LoadRosterFile], [LoadRosterFromReader]) and
// loaded into a [Registry], the read-only repository every other component
// consults for identities, objectives and seed relationships. There is no
// package-level registry; callers pass one explicitly.
package npc

import (
	"errors"
	"fmt"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// Definition is the authored description of one NPC.
type Definition struct {
	// ID is the stable slug used as the key everywhere else.
	ID types.NPCID `yaml:"id"`

	// Name is the display name.
	Name string `yaml:"name"`

	Category types.Category `yaml:"category"`

	// Objective is what the NPC pursues in conversations.
	Objective types.Objective `yaml:"objective,omitempty"`

	// Topics the NPC likes to bring up.
	Topics []string `yaml:"topics,omitempty"`

	// Home is the domain the NPC is usually found in.
	Home string `yaml:"home,omitempty"`

	// Temperament scales how eager the NPC is to start conversations, 0..2.
	// Zero means 1.
	Temperament float64 `yaml:"temperament,omitempty"`

	// Relationships seed the NPC's initial views of others.
	Relationships []Bond `yaml:"relationships,omitempty"`
}

// Bond is an authored starting relationship.
type Bond struct {
	Other types.NPCID               `yaml:"other"`
	Stats map[types.StatKey]float64 `yaml:"stats"`
}

// Identity returns the immutable identity of d.
func (d Definition) Identity() types.NPCIdentity {
	name := d.Name
	if name == "" {
		name = string(d.ID)
	}
	return types.NPCIdentity{ID: d.ID, Category: d.Category, DisplayName: name}
}

// Restlessness returns the temperament with its default applied.
func (d Definition) Restlessness() float64 {
	if d.Temperament <= 0 {
		return 1
	}
	return d.Temperament
}

// Seed returns d's authored relationships as values, clamped to stat bounds.
func (d Definition) Seed(turn int64) []social.Relationship {
	out := make([]social.Relationship, 0, len(d.Relationships))
	for _, b := range d.Relationships {
		r := social.Neutral(d.ID, b.Other)
		for _, k := range types.StatKeys {
			if v, ok := b.Stats[k]; ok {
				r, _ = social.ModifyStat(r, k, v, "seed", turn)
			}
		}
		out = append(out, r)
	}
	return out
}

// Unknown returns the definition assumed for an id missing from the roster.
func Unknown(id types.NPCID) Definition {
	return Definition{ID: id, Name: string(id), Category: types.CategoryWanderer}
}

// Validate checks a [Definition] for required fields and known enum values.
//
// Rules:
//   - ID must be non-empty and must not be the reserved player id.
//   - Category must be a recognised [types.Category].
//   - Objective, when set, must be a recognised [types.Objective].
//   - Temperament must lie in 0..2.
//   - Every [Bond] must name another NPC and only known stats.
func Validate(d Definition) error {
	var errs []error

	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.ID == types.PlayerID {
		errs = append(errs, fmt.Errorf("id %q is reserved", d.ID))
	}
	if !d.Category.IsValid() {
		errs = append(errs, fmt.Errorf("category %q is not a recognised category", d.Category))
	}
	if !d.Objective.IsValid() {
		errs = append(errs, fmt.Errorf("objective %q is not a recognised objective", d.Objective))
	}
	if d.Temperament < 0 || d.Temperament > 2 {
		errs = append(errs, fmt.Errorf("temperament %v must be within 0..2", d.Temperament))
	}
	for i, b := range d.Relationships {
		if b.Other == "" {
			errs = append(errs, fmt.Errorf("relationships[%d]: other must not be empty", i))
		}
		if b.Other == d.ID {
			errs = append(errs, fmt.Errorf("relationships[%d]: an NPC cannot relate to itself", i))
		}
		for k := range b.Stats {
			if k.Index() < 0 {
				errs = append(errs, fmt.Errorf("relationships[%d]: unknown stat %q", i, k))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
