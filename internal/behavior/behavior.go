// Package behavior models an NPC's behavioural state as an explicit finite
// state machine. Every valid (state, event) pair is listed in a single
// transition table so the machine can be enumerated and tested in isolation.
package behavior

import (
	"cmp"
	"slices"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// State is the behavioural state of an NPC.
type State string

const (
	Idle       State = "idle"
	Conversing State = "conversing"
	Trading    State = "trading"
	Hostile    State = "hostile"
	Fleeing    State = "fleeing"
	Grieving   State = "grieving"
)

// States lists every state in a stable order.
var States = []State{Idle, Conversing, Trading, Hostile, Fleeing, Grieving}

// IsValid reports whether s is a known state.
func (s State) IsValid() bool { return slices.Contains(States, s) }

// Event is an input to the state machine.
type Event string

const (
	Greet    Event = "greet"
	Farewell Event = "farewell"
	Insult   Event = "insult"
	Threat   Event = "threat"
	Trade    Event = "trade"
	Calm     Event = "calm"
	Attack   Event = "attack"
	Loss     Event = "loss"
	Rescue   Event = "rescue"
)

type key struct {
	from State
	on   Event
}

var table = map[key]State{
	{Idle, Greet}:  Conversing,
	{Idle, Trade}:  Trading,
	{Idle, Insult}: Hostile,
	{Idle, Threat}: Hostile,
	{Idle, Attack}: Fleeing,
	{Idle, Loss}:   Grieving,

	{Conversing, Farewell}: Idle,
	{Conversing, Trade}:    Trading,
	{Conversing, Insult}:   Hostile,
	{Conversing, Threat}:   Fleeing,
	{Conversing, Attack}:   Fleeing,
	{Conversing, Loss}:     Grieving,

	{Trading, Farewell}: Idle,
	{Trading, Greet}:    Conversing,
	{Trading, Insult}:   Hostile,
	{Trading, Threat}:   Hostile,
	{Trading, Attack}:   Fleeing,

	{Hostile, Calm}:     Idle,
	{Hostile, Farewell}: Idle,
	{Hostile, Rescue}:   Conversing,
	{Hostile, Attack}:   Fleeing,

	{Fleeing, Calm}:   Idle,
	{Fleeing, Rescue}: Conversing,

	{Grieving, Calm}:   Idle,
	{Grieving, Greet}:  Conversing,
	{Grieving, Rescue}: Conversing,
}

// Transition returns the state reached from s on e. When the pair is not in the
// table the state is unchanged and ok is false.
func Transition(s State, e Event) (next State, ok bool) {
	next, ok = table[key{s, e}]
	if !ok {
		return s, false
	}
	return next, true
}

// Edge is one row of the transition table.
type Edge struct {
	From State
	On   Event
	To   State
}

// Transitions enumerates the transition table sorted by source state then event.
func Transitions() []Edge {
	out := make([]Edge, 0, len(table))
	for k, to := range table {
		out = append(out, Edge{From: k.from, On: k.on, To: to})
	}
	slices.SortFunc(out, func(a, b Edge) int {
		if c := cmp.Compare(slices.Index(States, a.From), slices.Index(States, b.From)); c != 0 {
			return c
		}
		return cmp.Compare(a.On, b.On)
	})
	return out
}

// EventForPool maps the pool of a spoken template to the behavioural event it
// implies for the listener. ok is false for pools with no behavioural effect.
// A reaction (sympathy, apology, praise) calms the listener.
func EventForPool(p types.Pool) (Event, bool) {
	switch p {
	case types.PoolReaction:
		return Calm, true
	case types.PoolGreeting:
		return Greet, true
	case types.PoolFarewell:
		return Farewell, true
	case types.PoolTaunt:
		return Insult, true
	case types.PoolThreat:
		return Threat, true
	case types.PoolTrade:
		return Trade, true
	}
	return "", false
}

// EventForGame maps a game event to the behavioural event it implies for the
// NPCs present. ok is false for game events with no behavioural effect.
func EventForGame(k types.GameEventKind) (Event, bool) {
	switch k {
	case types.GameEventCombatStart:
		return Attack, true
	case types.GameEventDeath:
		return Loss, true
	case types.GameEventRescue:
		return Rescue, true
	}
	return "", false
}
