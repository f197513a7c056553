package ambient

import (
	"fmt"
	"maps"
	"math"

	"github.com/google/uuid"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/world"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/memory"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// storylineNamespace scopes storyline ids. Ids are UUIDv5 over the turn and
// participants, so replaying a seed reproduces them.
var storylineNamespace = uuid.MustParse("5f0c9d2e-8a31-4b7e-9e43-2d1f6c7a0b18")

// Reason is why a turn was considered interesting.
type Reason string

const (
	ReasonSwing     Reason = "swing"
	ReasonRareEvent Reason = "rare_event"
	ReasonObjective Reason = "objective"
)

// Storyline is one retained interesting turn.
type Storyline struct {
	ID       string
	Turn     int64
	Speaker  types.NPCID
	Listener types.NPCID
	Pool     types.Pool
	Response string

	Reasons  []Reason
	Interest float64

	// Swing is the total absolute stat movement of the turn.
	Swing float64

	// Kinds lists the rare memory kinds the turn produced.
	Kinds []memory.EventKind
}

func storylineID(turn int64, speaker, listener types.NPCID) string {
	return uuid.NewSHA1(storylineNamespace, fmt.Appendf(nil, "%d/%s/%s", turn, speaker, listener)).String()
}

// Belief is what an NPC thinks of the player without having met them.
type Belief struct {
	// Opinion is the believed character of the player, -100..100.
	Opinion float64

	// Strength is how firmly the belief is held, 0..1.
	Strength float64

	// Source is the NPC the belief was last heard from.
	Source types.NPCID

	// Heard counts how often the rumour reached this NPC.
	Heard int
	Turn  int64
}

// Chronicle is what the loop accumulates besides the world itself.
type Chronicle struct {
	Storylines []Storyline
	Mythology  map[types.NPCID]Belief
}

// Clone returns a chronicle sharing nothing with c.
func (c Chronicle) Clone() Chronicle {
	return Chronicle{
		Storylines: append([]Storyline(nil), c.Storylines...),
		Mythology:  maps.Clone(c.Mythology),
	}
}

func (c Chronicle) withStoryline(s Storyline, limit int) Chronicle {
	out := make([]Storyline, 0, min(len(c.Storylines)+1, limit))
	start := 0
	if len(c.Storylines)+1 > limit {
		start = len(c.Storylines) + 1 - limit
	}
	out = append(out, c.Storylines[start:]...)
	c.Storylines = append(out, s)
	return c
}

func (c Chronicle) withBelief(id types.NPCID, b Belief) Chronicle {
	c.Mythology = maps.Clone(c.Mythology)
	if c.Mythology == nil {
		c.Mythology = make(map[types.NPCID]Belief)
	}
	c.Mythology[id] = b
	return c
}

// rareKinds are memory kinds worth a storyline on their own.
var rareKinds = map[memory.EventKind]bool{
	memory.KindBetrayal: true,
	memory.KindRescue:   true,
	memory.KindThreat:   true,
	memory.KindGift:     true,
}

// objectiveThreshold is the stat of the listener's view of the speaker that
// an objective is trying to push past a threshold.
type objectiveThreshold struct {
	stat  types.StatKey
	value float64
}

var objectiveThresholds = map[types.Objective]objectiveThreshold{
	types.ObjectiveBuildTrust:      {types.StatTrust, 50},
	types.ObjectiveProvokeConflict: {types.StatTension, 60},
	types.ObjectiveIntimidate:      {types.StatFear, 50},
}

// assessment is the interest evaluation of one turn.
type assessment struct {
	swing    float64
	kinds    []memory.EventKind
	reasons  []Reason
	interest float64
}

// assess scores the turn that took before to after.
func (l *Loop) assess(before, after world.World, it types.InteractionTurn, objective types.Objective) assessment {
	var a assessment
	for _, ch := range it.Changes {
		if ch.Stat == types.StatFamiliarity {
			continue
		}
		a.swing += math.Abs(ch.Applied)
	}
	if a.swing >= l.swingThreshold {
		a.reasons = append(a.reasons, ReasonSwing)
		a.interest += a.swing / l.swingThreshold
	}

	for _, id := range []types.NPCID{it.Speaker, it.Listener} {
		for _, e := range memory.Recent(after.Memory(id), 2) {
			if e.Turn == it.Turn && rareKinds[e.Kind] {
				a.kinds = append(a.kinds, e.Kind)
			}
		}
	}
	if len(a.kinds) > 0 {
		a.reasons = append(a.reasons, ReasonRareEvent)
		a.interest += float64(len(a.kinds))
	}

	if th, ok := objectiveThresholds[objective]; ok {
		was := before.Relationship(it.Listener, it.Speaker).Get(th.stat)
		now := after.Relationship(it.Listener, it.Speaker).Get(th.stat)
		if was < th.value && now >= th.value {
			a.reasons = append(a.reasons, ReasonObjective)
			a.interest += 2
		}
	}
	return a
}

// spreadRumour passes the speaker's idea of the player on to a listener who
// has never met the player. The listener's trust in the speaker decides how
// much of it sticks.
func spreadRumour(c Chronicle, w world.World, speaker, listener types.NPCID, turn int64) (Chronicle, bool) {
	if speaker == types.PlayerID || listener == types.PlayerID || w.Ledger.Has(listener, types.PlayerID) {
		return c, false
	}

	var told, strength float64
	switch {
	case w.Ledger.Has(speaker, types.PlayerID):
		told = memory.Opinion(w.Memory(speaker), types.PlayerID)
		view := w.Relationship(speaker, types.PlayerID)
		told = (told + social.Valence(view, social.Situation{})) / 2
		strength = 1
	default:
		b, ok := c.Mythology[speaker]
		if !ok {
			return c, false
		}
		told, strength = b.Opinion, b.Strength*0.8
	}

	credence := (w.Relationship(listener, speaker).Get(types.StatTrust) + 100) / 200 * strength
	if credence <= 0 {
		return c, false
	}

	b := c.Mythology[listener]
	b.Opinion = clampOpinion(b.Opinion + (told-b.Opinion)*credence)
	b.Strength = min(1, b.Strength+(1-b.Strength)*credence*0.5)
	b.Source = speaker
	b.Heard++
	b.Turn = turn
	return c.withBelief(listener, b), true
}

func clampOpinion(v float64) float64 { return math.Max(-100, math.Min(100, v)) }

// Meet seeds id's view of the player from its belief, if it has one and has
// not met the player yet. The game layer calls it right before the first
// conversation with the player.
func Meet(w world.World, c Chronicle, id types.NPCID) (world.World, []types.ObservedStatChange) {
	b, ok := c.Mythology[id]
	if !ok || w.Ledger.Has(id, types.PlayerID) {
		return w, nil
	}
	shift := b.Opinion * b.Strength * 0.3
	r, changes := social.ApplyDeltas(social.Neutral(id, types.PlayerID), []social.StatDelta{
		{Stat: types.StatTrust, Delta: shift},
		{Stat: types.StatAffection, Delta: shift / 2},
	}, "mythology", w.Turn)
	return w.WithRelationship(r), changes
}
