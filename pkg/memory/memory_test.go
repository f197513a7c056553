package memory_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/memory"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	m := memory.New("boots", 0, -1)
	if m.Capacity != memory.DefaultCapacity || m.AgeWeight != memory.DefaultAgeWeight {
		t.Errorf("New defaults = (%d, %v)", m.Capacity, m.AgeWeight)
	}
}

func TestAddEventImmutable(t *testing.T) {
	t.Parallel()

	m := memory.New("boots", 5, 0.5)
	m2, ev := memory.AddEvent(m, memory.NewEvent(memory.KindGift, 40, "keith", 1))
	if ev.Evicted {
		t.Error("eviction below capacity")
	}
	if m.Len() != 0 || m2.Len() != 1 {
		t.Errorf("Len = %d/%d, want 0/1", m.Len(), m2.Len())
	}

	m3, _ := memory.AddEvent(m2, memory.NewEvent(memory.KindTrade, 10, "keith", 2))
	if m2.Len() != 1 || m3.Len() != 2 {
		t.Error("AddEvent shared backing storage with its input")
	}
}

func TestBoundedMemoryProperty(t *testing.T) {
	t.Parallel()

	const capacity = 16
	g := rng.New(31)
	m := memory.New("boots", capacity, 0.5)
	kinds := []memory.EventKind{
		memory.KindConversation, memory.KindConflict, memory.KindGift,
		memory.KindInsult, memory.KindRescue, memory.KindTrade,
	}

	var evicted []memory.Event
	for turn := int64(1); turn <= 500; turn++ {
		kind, _ := rng.Pick(g, kinds)
		e := memory.NewEvent(kind, float64(g.IntN(101)), "keith", turn)

		var ev memory.Eviction
		m, ev = memory.AddEvent(m, e)
		if m.Len() > capacity {
			t.Fatalf("turn %d: %d events exceed cap %d", turn, m.Len(), capacity)
		}
		if ev.Evicted {
			evicted = append(evicted, ev.Event)
		}

		// Retained events are never lower priority than any evicted one.
		for _, gone := range evicted {
			for _, kept := range m.Events {
				if m.Priority(kept, turn) < m.Priority(gone, turn)-1e-9 {
					t.Fatalf("turn %d: retained %+v (%.2f) below evicted %+v (%.2f)",
						turn, kept, m.Priority(kept, turn), gone, m.Priority(gone, turn))
				}
			}
		}
	}
	if len(evicted) != 500-capacity {
		t.Errorf("evicted %d events, want %d", len(evicted), 500-capacity)
	}
}

func TestAddEventDropsIncoming(t *testing.T) {
	t.Parallel()

	m := memory.New("boots", 2, 0)
	m, _ = memory.AddEvent(m, memory.NewEvent(memory.KindBetrayal, 90, "a", 1))
	m, _ = memory.AddEvent(m, memory.NewEvent(memory.KindRescue, 90, "b", 2))
	m, ev := memory.AddEvent(m, memory.NewEvent(memory.KindConversation, 5, "c", 3))

	if !ev.Evicted || !ev.Incoming {
		t.Errorf("eviction = %+v, want incoming event dropped", ev)
	}
	if m.Len() != 2 || m.Events[0].Counterpart != "a" || m.Events[1].Counterpart != "b" {
		t.Errorf("events = %+v", m.Events)
	}
}

func TestAddEventEvictsOldestOnTie(t *testing.T) {
	t.Parallel()

	m := memory.New("boots", 2, 0)
	m, _ = memory.AddEvent(m, memory.NewEvent(memory.KindTrade, 20, "a", 1))
	m, _ = memory.AddEvent(m, memory.NewEvent(memory.KindTrade, 20, "b", 2))
	m, ev := memory.AddEvent(m, memory.NewEvent(memory.KindTrade, 20, "c", 3))

	if ev.Event.Counterpart != "a" {
		t.Errorf("evicted %q, want oldest \"a\"", ev.Event.Counterpart)
	}
	if m.Events[0].Counterpart != "b" || m.Events[1].Counterpart != "c" {
		t.Errorf("order not preserved: %+v", m.Events)
	}
}

func TestOpinion(t *testing.T) {
	t.Parallel()

	m := memory.New("boots", 50, 0.5)
	if got := memory.Opinion(m, "keith"); got != 0 {
		t.Errorf("empty opinion = %v", got)
	}

	m, _ = memory.AddEvent(m, memory.NewEvent(memory.KindGift, 50, "keith", 1))
	m, _ = memory.AddEvent(m, memory.NewEvent(memory.KindInsult, 40, "mr-kevin", 1))
	if got := memory.Opinion(m, "keith"); math.Abs(got-35) > 1e-9 {
		t.Errorf("opinion of keith = %v, want 35", got)
	}
	if got := memory.Opinion(m, "mr-kevin"); math.Abs(got+20) > 1e-9 {
		t.Errorf("opinion of mr-kevin = %v, want -20", got)
	}

	// An old gift counts less than a fresh insult.
	m, _ = memory.AddEvent(m, memory.NewEvent(memory.KindInsult, 70, "keith", 51))
	if got := memory.Opinion(m, "keith"); got >= 0 {
		t.Errorf("opinion after recent insult = %v, want negative", got)
	}

	many := memory.New("boots", 50, 0.5)
	for i := int64(0); i < 10; i++ {
		many, _ = memory.AddEvent(many, memory.NewEvent(memory.KindRescue, 100, "hero", i))
	}
	if got := memory.Opinion(many, "hero"); got != 100 {
		t.Errorf("opinion = %v, want clamp at 100", got)
	}
}

func TestUpdateOpinion(t *testing.T) {
	t.Parallel()

	m := memory.New("boots", 50, 0.5)
	m, _ = memory.UpdateOpinion(m, "keith", -30, 4)
	if got := memory.Opinion(m, "keith"); got != -30 {
		t.Errorf("opinion = %v, want -30", got)
	}
	m, _ = memory.UpdateOpinion(m, "keith", 50, 4)
	if got := memory.Opinion(m, "keith"); got != 20 {
		t.Errorf("opinion = %v, want 20", got)
	}
	if m.Events[0].Kind != memory.KindImpression {
		t.Errorf("kind = %q, want impression", m.Events[0].Kind)
	}
}

func TestHasTraumaBond(t *testing.T) {
	t.Parallel()

	build := func(events ...memory.Event) memory.Memory {
		m := memory.New("boots", 50, 0.5)
		for _, e := range events {
			m, _ = memory.AddEvent(m, e)
		}
		return m
	}
	conflicts := func(n int, who string) []memory.Event {
		var out []memory.Event
		for i := 0; i < n; i++ {
			out = append(out, memory.NewEvent(memory.KindConflict, 50, types.NPCID(who), int64(i+1)))
		}
		return out
	}

	t.Run("ten conflicts then rescue", func(t *testing.T) {
		t.Parallel()
		m := build(append(conflicts(10, "keith"), memory.NewEvent(memory.KindRescue, 80, "keith", 11))...)
		if !memory.HasTraumaBond(m, "keith") {
			t.Error("HasTraumaBond = false, want true")
		}
	})

	t.Run("rescue before conflicts", func(t *testing.T) {
		t.Parallel()
		m := build(append([]memory.Event{memory.NewEvent(memory.KindRescue, 80, "keith", 0)}, conflicts(10, "keith")...)...)
		if memory.HasTraumaBond(m, "keith") {
			t.Error("positive-then-negative should not bond")
		}
	})

	t.Run("different counterpart", func(t *testing.T) {
		t.Parallel()
		m := build(append(conflicts(10, "keith"), memory.NewEvent(memory.KindRescue, 80, "mr-kevin", 11))...)
		if memory.HasTraumaBond(m, "keith") || memory.HasTraumaBond(m, "mr-kevin") {
			t.Error("bond across counterparts")
		}
	})

	t.Run("too few conflicts", func(t *testing.T) {
		t.Parallel()
		m := build(append(conflicts(2, "keith"), memory.NewEvent(memory.KindRescue, 80, "keith", 11))...)
		if memory.HasTraumaBond(m, "keith") {
			t.Error("two conflicts should not bond")
		}
	})

	t.Run("weak rescue", func(t *testing.T) {
		t.Parallel()
		m := build(append(conflicts(5, "keith"), memory.NewEvent(memory.KindRescue, 20, "keith", 11))...)
		if memory.HasTraumaBond(m, "keith") {
			t.Error("low-magnitude rescue should not bond")
		}
	})
}

func TestMostMemorable(t *testing.T) {
	t.Parallel()

	if _, ok := memory.MostMemorable(memory.New("boots", 5, 0)); ok {
		t.Error("empty memory has a memorable event")
	}

	m := memory.New("boots", 10, 0.5)
	m, _ = memory.AddEvent(m, memory.NewEvent(memory.KindBetrayal, 60, "a", 1))
	m, _ = memory.AddEvent(m, memory.NewEvent(memory.KindConversation, 100, "b", 2))
	m, _ = memory.AddEvent(m, memory.NewEvent(memory.KindRescue, 60, "c", 3))

	got, ok := memory.MostMemorable(m)
	if !ok || got.Counterpart != "c" {
		t.Errorf("MostMemorable = %+v, want rescue by c (tie goes to most recent)", got)
	}
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	run := func() (memory.Memory, float64, bool) {
		g := rng.New(5)
		m := memory.New("boots", 12, 0.5)
		kinds := []memory.EventKind{memory.KindConflict, memory.KindRescue, memory.KindGift, memory.KindInsult}
		for i := int64(0); i < 80; i++ {
			k, _ := rng.Pick(g, kinds)
			m, _ = memory.AddEvent(m, memory.NewEvent(k, float64(g.IntN(100)), "keith", i))
		}
		return m, memory.Opinion(m, "keith"), memory.HasTraumaBond(m, "keith")
	}

	m1, o1, b1 := run()
	m2, o2, b2 := run()
	if diff := cmp.Diff(m1, m2); diff != "" {
		t.Errorf("memory diverged:\n%s", diff)
	}
	if o1 != o2 || b1 != b2 {
		t.Errorf("derived values diverged: (%v, %v) vs (%v, %v)", o1, b1, o2, b2)
	}
}
