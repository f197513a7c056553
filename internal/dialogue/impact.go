package dialogue

import (
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/intent"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/memory"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// intentImpact is how a player message moves the addressed NPC's view of the
// player before the NPC answers.
var intentImpact = map[intent.Intent][]social.StatDelta{
	intent.Greeting:   {{Stat: types.StatAffection, Delta: 1}},
	intent.Insult:     {{Stat: types.StatAffection, Delta: -5}, {Stat: types.StatRespect, Delta: -2}, {Stat: types.StatTension, Delta: 8}},
	intent.Threat:     {{Stat: types.StatFear, Delta: 10}, {Stat: types.StatTension, Delta: 10}, {Stat: types.StatTrust, Delta: -5}},
	intent.Compliment: {{Stat: types.StatAffection, Delta: 4}, {Stat: types.StatTrust, Delta: 2}},
	intent.Apology:    {{Stat: types.StatTension, Delta: -6}, {Stat: types.StatTrust, Delta: 2}},
	intent.Trade:      {{Stat: types.StatTrust, Delta: 1}},
	intent.Gossip:     {{Stat: types.StatAffection, Delta: 1}},
}

// Impact returns the stat deltas a message of intent i applies to the
// addressed NPC's view of the player. Neutral intents have none.
func Impact(i intent.Intent) []social.StatDelta {
	return intentImpact[i]
}

// impression is what an NPC remembers about the message itself. Only
// emotionally charged intents leave one.
type impression struct {
	kind      memory.EventKind
	magnitude float64

	// valence overrides the kind's default when not zero.
	valence float64
}

func (imp impression) event(counterpart types.NPCID, turn int64) memory.Event {
	ev := memory.NewEvent(imp.kind, imp.magnitude, counterpart, turn)
	if imp.valence != 0 {
		ev.Valence = imp.valence
	}
	return ev
}

var intentImpressions = map[intent.Intent]impression{
	intent.Insult:     {kind: memory.KindInsult, magnitude: 40},
	intent.Threat:     {kind: memory.KindThreat, magnitude: 60},
	intent.Compliment: {kind: memory.KindCompliment, magnitude: 25},
	intent.Apology:    {kind: memory.KindImpression, magnitude: 15, valence: 0.3},
}

// poolMemory maps the pool of a spoken line to the event both participants
// remember.
func poolMemory(p types.Pool) impression {
	switch p {
	case types.PoolTaunt:
		return impression{kind: memory.KindInsult, magnitude: 30}
	case types.PoolThreat:
		return impression{kind: memory.KindThreat, magnitude: 50}
	case types.PoolTrade:
		return impression{kind: memory.KindTrade, magnitude: 20}
	default:
		return impression{kind: memory.KindConversation, magnitude: 10}
	}
}
