package behavior_test

import (
	"testing"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

func TestTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from   behavior.State
		on     behavior.Event
		want   behavior.State
		wantOK bool
	}{
		{behavior.Idle, behavior.Greet, behavior.Conversing, true},
		{behavior.Conversing, behavior.Farewell, behavior.Idle, true},
		{behavior.Conversing, behavior.Insult, behavior.Hostile, true},
		{behavior.Hostile, behavior.Rescue, behavior.Conversing, true},
		{behavior.Fleeing, behavior.Calm, behavior.Idle, true},
		{behavior.Idle, behavior.Farewell, behavior.Idle, false},
		{behavior.Hostile, behavior.Greet, behavior.Hostile, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.on), func(t *testing.T) {
			t.Parallel()
			got, ok := behavior.Transition(tt.from, tt.on)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Transition(%s, %s) = (%s, %v), want (%s, %v)", tt.from, tt.on, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestTransitionsEnumerable(t *testing.T) {
	t.Parallel()

	edges := behavior.Transitions()
	if len(edges) == 0 {
		t.Fatal("no transitions")
	}
	for _, e := range edges {
		if !e.From.IsValid() || !e.To.IsValid() {
			t.Errorf("edge %+v references unknown state", e)
		}
		got, ok := behavior.Transition(e.From, e.On)
		if !ok || got != e.To {
			t.Errorf("edge %+v disagrees with Transition = (%s, %v)", e, got, ok)
		}
	}

	// Stable order.
	again := behavior.Transitions()
	for i := range edges {
		if edges[i] != again[i] {
			t.Fatalf("Transitions order unstable at %d", i)
		}
	}

	// Every state can get back to idle.
	for _, s := range behavior.States {
		if !reachesIdle(s, edges) {
			t.Errorf("state %s cannot return to idle", s)
		}
	}
}

func reachesIdle(s behavior.State, edges []behavior.Edge) bool {
	seen := map[behavior.State]bool{s: true}
	queue := []behavior.State{s}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == behavior.Idle {
			return true
		}
		for _, e := range edges {
			if e.From == cur && !seen[e.To] {
				seen[e.To] = true
				queue = append(queue, e.To)
			}
		}
	}
	return false
}

func TestEventForPool(t *testing.T) {
	t.Parallel()

	if e, ok := behavior.EventForPool(types.PoolTaunt); !ok || e != behavior.Insult {
		t.Errorf("taunt -> (%s, %v)", e, ok)
	}
	if e, ok := behavior.EventForPool(types.PoolReaction); !ok || e != behavior.Calm {
		t.Errorf("reaction -> (%s, %v), want calm", e, ok)
	}
	if _, ok := behavior.EventForPool(types.PoolLore); ok {
		t.Error("lore should have no behavioural event")
	}
}

func TestEventForGame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind types.GameEventKind
		want behavior.Event
		ok   bool
	}{
		{types.GameEventCombatStart, behavior.Attack, true},
		{types.GameEventDeath, behavior.Loss, true},
		{types.GameEventRescue, behavior.Rescue, true},
		{types.GameEventPurchase, "", false},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			t.Parallel()
			got, ok := behavior.EventForGame(tc.kind)
			if got != tc.want || ok != tc.ok {
				t.Errorf("EventForGame(%s) = (%s, %v), want (%s, %v)", tc.kind, got, ok, tc.want, tc.ok)
			}
		})
	}
}

// Fleeing is left through the events the dialogue layer actually emits.
func TestFleeingEscapes(t *testing.T) {
	t.Parallel()

	flee, ok := behavior.EventForGame(types.GameEventCombatStart)
	if !ok {
		t.Fatal("combat_start has no event")
	}
	s, _ := behavior.Transition(behavior.Idle, flee)
	if s != behavior.Fleeing {
		t.Fatalf("idle on combat_start = %s, want fleeing", s)
	}

	calm, _ := behavior.EventForPool(types.PoolReaction)
	if got, _ := behavior.Transition(s, calm); got != behavior.Idle {
		t.Errorf("fleeing on reaction = %s, want idle", got)
	}
	rescue, _ := behavior.EventForGame(types.GameEventRescue)
	if got, _ := behavior.Transition(s, rescue); got != behavior.Conversing {
		t.Errorf("fleeing on rescue = %s, want conversing", got)
	}
}
