package social_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

func rel(stats map[types.StatKey]float64) social.Relationship {
	r := social.Neutral("keith", "mr-kevin")
	for k, v := range stats {
		r.Stats[k.Index()] = v
	}
	return r
}

func TestModifyStat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		start       float64
		key         types.StatKey
		delta       float64
		wantAfter   float64
		wantApplied float64
		wantClamped bool
	}{
		{name: "in range", start: 10, key: types.StatTrust, delta: 5, wantAfter: 15, wantApplied: 5},
		{name: "clamp upper", start: 95, key: types.StatTrust, delta: 20, wantAfter: 100, wantApplied: 5, wantClamped: true},
		{name: "clamp lower", start: -90, key: types.StatAffection, delta: -50, wantAfter: -100, wantApplied: -10, wantClamped: true},
		{name: "zero floor stat", start: 5, key: types.StatFear, delta: -20, wantAfter: 0, wantApplied: -5, wantClamped: true},
		{name: "no-op still recorded", start: 0, key: types.StatTension, delta: 0, wantAfter: 0, wantApplied: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := rel(map[types.StatKey]float64{tt.key: tt.start})
			got, ev := social.ModifyStat(r, tt.key, tt.delta, "test", 3)

			if got.Get(tt.key) != tt.wantAfter {
				t.Errorf("after = %v, want %v", got.Get(tt.key), tt.wantAfter)
			}
			if ev.Applied != tt.wantApplied {
				t.Errorf("Applied = %v, want %v", ev.Applied, tt.wantApplied)
			}
			if ev.Clamped != tt.wantClamped {
				t.Errorf("Clamped = %v, want %v", ev.Clamped, tt.wantClamped)
			}
			if ev.Requested != tt.delta || ev.Before != tt.start || ev.After != tt.wantAfter {
				t.Errorf("event = %+v", ev)
			}
			if ev.Owner != "keith" || ev.Other != "mr-kevin" || ev.Turn != 3 || ev.Reason != "test" {
				t.Errorf("event identity = %+v", ev)
			}
			// Original untouched.
			if r.Get(tt.key) != tt.start {
				t.Error("ModifyStat mutated its input")
			}
		})
	}
}

func TestModifyStatUnknownKey(t *testing.T) {
	t.Parallel()

	r := social.Neutral("a", "b")
	got, ev := social.ModifyStat(r, "charisma", 10, "typo", 1)
	if got != r {
		t.Error("unknown key changed the relationship")
	}
	if ev.Applied != 0 || !ev.Clamped {
		t.Errorf("unknown key event = %+v, want zero applied and clamped", ev)
	}
}

func TestModifyStatNonFinite(t *testing.T) {
	t.Parallel()

	start, _ := social.ModifyStat(social.Neutral("a", "b"), types.StatTrust, 40, "seed", 1)
	for _, delta := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		got, ev := social.ModifyStat(start, types.StatTrust, delta, "corrupt", 2)
		if got != start {
			t.Errorf("delta %v changed the relationship: %+v", delta, got)
		}
		if ev.Before != 40 || ev.After != 40 || ev.Applied != 0 || !ev.Clamped {
			t.Errorf("delta %v event = %+v, want 40 -> 40, zero applied, clamped", delta, ev)
		}
	}

	got, changes := social.ApplyDeltas(start, []social.StatDelta{
		{Stat: types.StatTrust, Delta: math.NaN()},
		{Stat: types.StatAffection, Delta: 5},
	}, "mixed", 3)
	if got.Get(types.StatTrust) != 40 || got.Get(types.StatAffection) != 5 {
		t.Errorf("trust = %v, affection = %v, want 40 and 5", got.Get(types.StatTrust), got.Get(types.StatAffection))
	}
	if len(changes) != 2 || !changes[0].Clamped || changes[1].Clamped {
		t.Errorf("changes = %+v, want the NaN delta reported as clamped", changes)
	}
}

func TestStatClampingProperty(t *testing.T) {
	t.Parallel()

	g := rng.New(1234)
	r := social.Neutral("a", "b")
	for i := 0; i < 5000; i++ {
		key := types.StatKeys[g.IntN(len(types.StatKeys))]
		delta := float64(g.Range(-250, 250))
		r, _ = social.ModifyStat(r, key, delta, "fuzz", int64(i))
		for _, k := range types.StatKeys {
			lo, hi := k.Bounds()
			if v := r.Get(k); v < lo || v > hi {
				t.Fatalf("step %d: %s = %v outside [%v, %v]", i, k, v, lo, hi)
			}
		}
	}
}

func TestApplyDeltasDeterminism(t *testing.T) {
	t.Parallel()

	run := func() (social.Relationship, []types.ObservedStatChange) {
		g := rng.New(77)
		r := social.Neutral("a", "b")
		var all []types.ObservedStatChange
		for i := 0; i < 200; i++ {
			deltas := []social.StatDelta{
				{Stat: types.StatTrust, Delta: float64(g.Range(-10, 10))},
				{Stat: types.StatTension, Delta: float64(g.Range(-10, 10))},
			}
			var ch []types.ObservedStatChange
			r, ch = social.ApplyDeltas(r, deltas, "round", int64(i))
			all = append(all, ch...)
		}
		return r, all
	}

	r1, c1 := run()
	r2, c2 := run()
	if diff := cmp.Diff(r1, r2); diff != "" {
		t.Errorf("relationship diverged:\n%s", diff)
	}
	if diff := cmp.Diff(c1, c2); diff != "" {
		t.Errorf("change log diverged:\n%s", diff)
	}
}

func TestDeriveMood(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		stats map[types.StatKey]float64
		inter  int
		player bool
		sit    social.Situation
		want   types.Mood
	}{
		{name: "stranger is curious", want: types.MoodCurious},
		{name: "acquaintance is neutral", inter: 3, stats: map[types.StatKey]float64{types.StatFamiliarity: 20}, want: types.MoodNeutral},
		{name: "fearful", inter: 1, stats: map[types.StatKey]float64{types.StatFear: 70, types.StatTension: 30}, want: types.MoodFearful},
		{name: "angry", inter: 1, stats: map[types.StatKey]float64{types.StatTension: 100, types.StatAffection: -60}, want: types.MoodAngry},
		{name: "annoyed", inter: 1, stats: map[types.StatKey]float64{types.StatTension: 45, types.StatAffection: -10}, want: types.MoodAnnoyed},
		{name: "suspicious", inter: 1, stats: map[types.StatKey]float64{types.StatTrust: -40, types.StatAffection: 30}, want: types.MoodSuspicious},
		{name: "happy", inter: 1, stats: map[types.StatKey]float64{types.StatTrust: 60, types.StatAffection: 60, types.StatRespect: 40}, want: types.MoodHappy},
		{name: "friendly", inter: 1, stats: map[types.StatKey]float64{types.StatTrust: 30, types.StatAffection: 30}, want: types.MoodFriendly},
		{
			name:  "combat pushes tension to anger",
			inter: 1,
			stats: map[types.StatKey]float64{types.StatTension: 60, types.StatAffection: -60},
			sit:   social.Situation{InCombat: true},
			want:  types.MoodAngry,
		},
		{
			name:  "override wins",
			inter: 1,
			stats: map[types.StatKey]float64{types.StatFear: 100},
			sit:   social.Situation{Override: types.MoodHappy},
			want:  types.MoodHappy,
		},
		{
			name:   "good reputation warms the player",
			inter:  1,
			player: true,
			stats:  map[types.StatKey]float64{types.StatTrust: 20, types.StatAffection: 20},
			sit:    social.Situation{PlayerReputation: 50},
			want:   types.MoodFriendly,
		},
		{
			name:  "reputation ignored between npcs",
			inter: 1,
			stats: map[types.StatKey]float64{types.StatTrust: 20, types.StatAffection: 20},
			sit:   social.Situation{PlayerReputation: 50},
			want:  types.MoodNeutral,
		},
		{
			name:   "bad reputation sours the player",
			inter:  1,
			player: true,
			stats:  map[types.StatKey]float64{types.StatTrust: 30, types.StatAffection: 30},
			sit:    social.Situation{PlayerReputation: -100},
			want:   types.MoodNeutral,
		},
		{
			name:   "non-finite reputation ignored",
			inter:  1,
			player: true,
			stats:  map[types.StatKey]float64{types.StatTrust: 30, types.StatAffection: 30},
			sit:    social.Situation{PlayerReputation: math.NaN()},
			want:   types.MoodFriendly,
		},
		{
			name: "invalid override ignored",
			sit:  social.Situation{Override: "ecstatic"},
			want: types.MoodCurious,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := rel(tt.stats)
			r.Interactions = tt.inter
			if tt.player {
				r.Other = types.PlayerID
			}
			got := social.DeriveMood(r, tt.sit)
			if got != tt.want {
				t.Errorf("DeriveMood = %q, want %q", got, tt.want)
			}
			if again := social.DeriveMood(r, tt.sit); again != got {
				t.Errorf("DeriveMood not pure: %q then %q", got, again)
			}
		})
	}
}

func TestSituationFrom(t *testing.T) {
	t.Parallel()

	s := social.SituationFrom(types.SimulationContext{
		Events:       []types.GameEvent{{Kind: types.GameEventCombatStart}, {Kind: types.GameEventDeath}},
		MoodOverride: types.MoodFearful,
		Player:       types.PlayerStats{Reputation: 35},
	})
	want := social.Situation{Override: types.MoodFearful, InCombat: true, RecentDeath: true, PlayerReputation: 35}
	if s != want {
		t.Errorf("SituationFrom = %+v, want %+v", s, want)
	}
}

func TestPriceModifier(t *testing.T) {
	t.Parallel()

	if got := social.PriceModifier(social.Neutral("a", "b")); got != 1 {
		t.Errorf("neutral price = %v, want 1", got)
	}
	friend := rel(map[types.StatKey]float64{types.StatTrust: 80, types.StatAffection: 80, types.StatRespect: 50})
	if got := social.PriceModifier(friend); got >= 1 {
		t.Errorf("friend price = %v, want discount", got)
	}
	enemy := rel(map[types.StatKey]float64{types.StatTension: 100, types.StatTrust: -100})
	if got := social.PriceModifier(enemy); got <= 1 {
		t.Errorf("enemy price = %v, want markup", got)
	}
	extreme := rel(map[types.StatKey]float64{types.StatTension: 100, types.StatTrust: -100, types.StatAffection: -100, types.StatDebt: 100})
	if got := social.PriceModifier(extreme); got > 2 {
		t.Errorf("price = %v exceeds cap", got)
	}
}

func TestDecay(t *testing.T) {
	t.Parallel()

	r := rel(map[types.StatKey]float64{types.StatTrust: 50, types.StatTension: 40, types.StatFamiliarity: 40})
	got, changes := social.Decay(r, 10, 0.1, 20)

	if v := got.Get(types.StatTrust); v <= 0 || v >= 50 {
		t.Errorf("trust after decay = %v, want in (0, 50)", v)
	}
	trustDrop := 50 - got.Get(types.StatTrust)
	famDrop := 40 - got.Get(types.StatFamiliarity)
	if famDrop >= trustDrop*40/50 {
		t.Errorf("familiarity decayed too fast: drop %v vs trust drop %v", famDrop, trustDrop)
	}
	if len(changes) != 3 {
		t.Errorf("len(changes) = %d, want 3", len(changes))
	}
	for _, c := range changes {
		if c.Reason != "decay" || c.Turn != 20 {
			t.Errorf("change = %+v", c)
		}
	}

	same, none := social.Decay(r, 0, 0.1, 1)
	if same != r || none != nil {
		t.Error("zero-turn decay changed the relationship")
	}
}

func TestLedger(t *testing.T) {
	t.Parallel()

	var l social.Ledger
	if l.Has("a", "b") {
		t.Fatal("empty ledger reports a relationship")
	}
	if got := l.Get("a", "b"); got != social.Neutral("a", "b") {
		t.Errorf("Get on empty ledger = %+v, want neutral", got)
	}

	r, _ := social.ModifyStat(l.Get("a", "b"), types.StatTrust, 10, "test", 1)
	l2 := l.With(r)
	if l.Has("a", "b") {
		t.Error("With mutated the original ledger")
	}
	if l2.Get("a", "b").Get(types.StatTrust) != 10 {
		t.Error("With did not store the relationship")
	}

	l3 := l2.With(social.Neutral("c", "a")).With(social.Neutral("a", "c"))
	all := l3.All()
	var order []string
	for _, rel := range all {
		order = append(order, string(rel.Owner)+">"+string(rel.Other))
	}
	want := []string{"a>b", "a>c", "c>a"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("All order (-want +got):\n%s", diff)
	}
	if l2.Len() != 1 || l3.Len() != 3 {
		t.Errorf("Len = %d/%d, want 1/3", l2.Len(), l3.Len())
	}

	rebuilt := social.NewLedger(all...)
	if diff := cmp.Diff(all, rebuilt.All()); diff != "" {
		t.Errorf("NewLedger round trip:\n%s", diff)
	}
}
