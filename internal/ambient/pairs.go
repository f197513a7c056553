package ambient

import (
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/npc"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/world"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

type pair struct{ speaker, listener types.NPCID }

// Restlessness noise sampling. Each NPC gets its own column of the noise
// field; time moves down the column slowly so moods of activity persist for
// a few dozen turns.
const (
	noiseColumns   = 4096
	noiseColumnGap = 3.7
	noiseTimeScale = 1.0 / 24
)

// restlessness is how eager id is to talk at turn, 0.5..1.5 times its
// temperament.
func (l *Loop) restlessness(def npc.Definition, turn int64) float64 {
	x := float64(xxhash.Sum64String(string(def.ID))%noiseColumns) * noiseColumnGap
	y := float64(turn) * noiseTimeScale
	return def.Restlessness() * (0.5 + l.noise.Eval2(x, y))
}

// pairWeight favours pairs that know each other, are at odds or feel strongly.
func pairWeight(w world.World, speaker, listener types.NPCID) float64 {
	r := w.Relationship(speaker, listener)
	return 1 +
		r.Get(types.StatFamiliarity)/25 +
		r.Get(types.StatTension)/30 +
		math.Abs(r.Get(types.StatAffection))/50
}

// pickPair draws an ordered pair of distinct roster NPCs.
func (l *Loop) pickPair(w world.World, r *rng.Rng) (speaker, listener types.NPCID, ok bool) {
	defs := l.registry.All()
	if len(defs) < 2 {
		return "", "", false
	}
	weighted := make([]rng.Weighted[pair], 0, len(defs)*(len(defs)-1))
	for _, s := range defs {
		rest := l.restlessness(s, w.Turn)
		for _, o := range defs {
			if s.ID == o.ID {
				continue
			}
			weighted = append(weighted, rng.Weighted[pair]{
				Item:   pair{s.ID, o.ID},
				Weight: pairWeight(w, s.ID, o.ID) * rest,
			})
		}
	}
	p, ok := rng.WeightedChoice(r, weighted)
	return p.speaker, p.listener, ok
}

// Thread length after which NPCs start wrapping up.
const wrapUpTurns = 6

// choosePool picks what the speaker says next from the state of the
// relationship and the conversation.
func choosePool(w world.World, def npc.Definition, listener types.NPCID, c Chronicle, r *rng.Rng) types.Pool {
	th := w.Thread(def.ID, listener)
	if th.Turns == 0 {
		return types.PoolGreeting
	}
	if th.Turns >= wrapUpTurns || th.IsExhausted(th.Topic) ||
		(def.Objective == types.ObjectiveEndConversation && th.Turns >= 2) {
		return types.PoolFarewell
	}

	rel := w.Relationship(def.ID, listener)
	tension := rel.Get(types.StatTension)
	switch {
	case tension >= 60 && def.Objective == types.ObjectiveIntimidate:
		return types.PoolThreat
	case tension >= 60:
		if r.Chance(0.5) {
			return types.PoolThreat
		}
		return types.PoolTaunt
	case tension >= 40 || def.Objective == types.ObjectiveProvokeConflict:
		if r.Chance(0.6) {
			return types.PoolTaunt
		}
	}

	_, knowsPlayer := c.Mythology[def.ID]
	knowsPlayer = knowsPlayer || w.Ledger.Has(def.ID, types.PlayerID)

	gossip := 2.0
	if knowsPlayer {
		gossip = 4
	}
	trade := 0.5
	if def.Category == types.CategoryMerchant || def.Objective == types.ObjectiveMakeSale {
		trade = 3
	}
	lore := 1.5
	if def.Objective == types.ObjectiveExtractInformation {
		lore = 3
	}
	pool, _ := rng.WeightedChoice(r, []rng.Weighted[types.Pool]{
		{Item: types.PoolGossip, Weight: gossip},
		{Item: types.PoolLore, Weight: lore},
		{Item: types.PoolTrade, Weight: trade},
		{Item: types.PoolHint, Weight: 0.5},
		{Item: types.PoolReaction, Weight: 1.5},
		{Item: types.PoolIdle, Weight: 1},
	})
	return pool
}
