package store

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/ambient"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/memory"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// Rows is the relational form of a [Snapshot], shared by the SQL backends.
// The struct tags name the table columns.
type Rows struct {
	Meta          MetaRow
	Relationships []RelationshipRow
	Events        []EventRow
	Behaviors     []BehaviorRow
	Storylines    []StorylineRow
	Beliefs       []BeliefRow
}

// MetaRow is the single row of snapshot_meta.
type MetaRow struct {
	ID       int    `db:"id"`
	Turn     int64  `db:"turn"`
	Seed     int64  `db:"seed"`
	RNGState []byte `db:"rng_state"`
	SavedAt  int64  `db:"saved_at"`
}

type RelationshipRow struct {
	Owner        string  `db:"owner"`
	Other        string  `db:"other"`
	Trust        float64 `db:"trust"`
	Affection    float64 `db:"affection"`
	Respect      float64 `db:"respect"`
	Fear         float64 `db:"fear"`
	Tension      float64 `db:"tension"`
	Familiarity  float64 `db:"familiarity"`
	Debt         float64 `db:"debt"`
	Interactions int     `db:"interactions"`
	LastTurn     int64   `db:"last_turn"`
}

// EventRow is one memory event. Seq keeps insertion order within an owner,
// which matters for eviction ties.
type EventRow struct {
	Owner       string  `db:"owner"`
	Seq         int     `db:"seq"`
	Turn        int64   `db:"turn"`
	Kind        string  `db:"kind"`
	Magnitude   float64 `db:"magnitude"`
	Valence     float64 `db:"valence"`
	Counterpart string  `db:"counterpart"`
	Note        string  `db:"note"`
}

type BehaviorRow struct {
	NPC   string `db:"npc"`
	State string `db:"state"`
}

// StorylineRow is one storyline. Reasons and Kinds are comma-joined.
type StorylineRow struct {
	Seq      int     `db:"seq"`
	ID       string  `db:"id"`
	Turn     int64   `db:"turn"`
	Speaker  string  `db:"speaker"`
	Listener string  `db:"listener"`
	Pool     string  `db:"pool"`
	Response string  `db:"response"`
	Reasons  string  `db:"reasons"`
	Interest float64 `db:"interest"`
	Swing    float64 `db:"swing"`
	Kinds    string  `db:"kinds"`
}

type BeliefRow struct {
	NPC      string  `db:"npc"`
	Opinion  float64 `db:"opinion"`
	Strength float64 `db:"strength"`
	Source   string  `db:"source"`
	Heard    int     `db:"heard"`
	Turn     int64   `db:"turn"`
}

// ToRows flattens s into table rows in a deterministic order.
func (s Snapshot) ToRows() Rows {
	rows := Rows{
		Meta: MetaRow{
			ID:       1,
			Turn:     s.Turn,
			Seed:     int64(s.Seed),
			RNGState: s.RNGState,
		},
	}
	if !s.SavedAt.IsZero() {
		rows.Meta.SavedAt = s.SavedAt.UnixNano()
	}

	for _, r := range s.Relationships {
		rows.Relationships = append(rows.Relationships, RelationshipRow{
			Owner:        string(r.Owner),
			Other:        string(r.Other),
			Trust:        r.Get(types.StatTrust),
			Affection:    r.Get(types.StatAffection),
			Respect:      r.Get(types.StatRespect),
			Fear:         r.Get(types.StatFear),
			Tension:      r.Get(types.StatTension),
			Familiarity:  r.Get(types.StatFamiliarity),
			Debt:         r.Get(types.StatDebt),
			Interactions: r.Interactions,
			LastTurn:     r.LastTurn,
		})
	}

	for _, m := range s.Memories {
		for i, e := range m.Events {
			rows.Events = append(rows.Events, EventRow{
				Owner:       string(m.Owner),
				Seq:         i,
				Turn:        e.Turn,
				Kind:        string(e.Kind),
				Magnitude:   e.Magnitude,
				Valence:     e.Valence,
				Counterpart: string(e.Counterpart),
				Note:        e.Note,
			})
		}
	}

	for _, id := range slices.Sorted(maps.Keys(s.Behaviors)) {
		rows.Behaviors = append(rows.Behaviors, BehaviorRow{NPC: string(id), State: string(s.Behaviors[id])})
	}

	for i, sl := range s.Storylines {
		reasons := make([]string, len(sl.Reasons))
		for j, r := range sl.Reasons {
			reasons[j] = string(r)
		}
		kinds := make([]string, len(sl.Kinds))
		for j, k := range sl.Kinds {
			kinds[j] = string(k)
		}
		rows.Storylines = append(rows.Storylines, StorylineRow{
			Seq:      i,
			ID:       sl.ID,
			Turn:     sl.Turn,
			Speaker:  string(sl.Speaker),
			Listener: string(sl.Listener),
			Pool:     string(sl.Pool),
			Response: sl.Response,
			Reasons:  strings.Join(reasons, ","),
			Interest: sl.Interest,
			Swing:    sl.Swing,
			Kinds:    strings.Join(kinds, ","),
		})
	}

	for _, id := range slices.Sorted(maps.Keys(s.Mythology)) {
		b := s.Mythology[id]
		rows.Beliefs = append(rows.Beliefs, BeliefRow{
			NPC:      string(id),
			Opinion:  b.Opinion,
			Strength: b.Strength,
			Source:   string(b.Source),
			Heard:    b.Heard,
			Turn:     b.Turn,
		})
	}
	return rows
}

// FromRows rebuilds a snapshot. Events must be ordered by owner and seq, and
// storylines by seq.
func FromRows(rows Rows) Snapshot {
	s := Snapshot{
		Turn:     rows.Meta.Turn,
		Seed:     uint64(rows.Meta.Seed),
		RNGState: rows.Meta.RNGState,
	}
	if rows.Meta.SavedAt != 0 {
		s.SavedAt = time.Unix(0, rows.Meta.SavedAt).UTC()
	}

	for _, r := range rows.Relationships {
		rel := social.Neutral(types.NPCID(r.Owner), types.NPCID(r.Other))
		rel.Stats = social.Stats{r.Trust, r.Affection, r.Respect, r.Fear, r.Tension, r.Familiarity, r.Debt}
		rel.Interactions = r.Interactions
		rel.LastTurn = r.LastTurn
		s.Relationships = append(s.Relationships, rel)
	}

	for _, e := range rows.Events {
		owner := types.NPCID(e.Owner)
		if n := len(s.Memories); n == 0 || s.Memories[n-1].Owner != owner {
			s.Memories = append(s.Memories, memory.Memory{Owner: owner})
		}
		m := &s.Memories[len(s.Memories)-1]
		m.Events = append(m.Events, memory.Event{
			Turn:        e.Turn,
			Kind:        memory.EventKind(e.Kind),
			Magnitude:   e.Magnitude,
			Valence:     e.Valence,
			Counterpart: types.NPCID(e.Counterpart),
			Note:        e.Note,
		})
	}

	if len(rows.Behaviors) > 0 {
		s.Behaviors = make(map[types.NPCID]behavior.State, len(rows.Behaviors))
		for _, b := range rows.Behaviors {
			s.Behaviors[types.NPCID(b.NPC)] = behavior.State(b.State)
		}
	}

	for _, r := range rows.Storylines {
		sl := ambient.Storyline{
			ID:       r.ID,
			Turn:     r.Turn,
			Speaker:  types.NPCID(r.Speaker),
			Listener: types.NPCID(r.Listener),
			Pool:     types.Pool(r.Pool),
			Response: r.Response,
			Interest: r.Interest,
			Swing:    r.Swing,
		}
		for _, v := range splitList(r.Reasons) {
			sl.Reasons = append(sl.Reasons, ambient.Reason(v))
		}
		for _, v := range splitList(r.Kinds) {
			sl.Kinds = append(sl.Kinds, memory.EventKind(v))
		}
		s.Storylines = append(s.Storylines, sl)
	}

	if len(rows.Beliefs) > 0 {
		s.Mythology = make(map[types.NPCID]ambient.Belief, len(rows.Beliefs))
		for _, b := range rows.Beliefs {
			s.Mythology[types.NPCID(b.NPC)] = ambient.Belief{
				Opinion:  b.Opinion,
				Strength: b.Strength,
				Source:   types.NPCID(b.Source),
				Heard:    b.Heard,
				Turn:     b.Turn,
			}
		}
	}
	return s
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
