package rng_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
)

func draws(g *rng.Rng, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = g.Uint64()
	}
	return out
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	a := draws(rng.New(42), 64)
	b := draws(rng.New(42), 64)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different sequences (-a +b):\n%s", diff)
	}

	c := draws(rng.New(43), 64)
	if cmp.Equal(a, c) {
		t.Error("different seeds produced identical sequences")
	}
}

func TestNewFromString(t *testing.T) {
	t.Parallel()

	a := rng.NewFromString("meteor-run")
	b := rng.NewFromString("meteor-run")
	if a.Seed() != b.Seed() {
		t.Fatalf("seed phrase hashed differently: %d vs %d", a.Seed(), b.Seed())
	}
	if a.Float64() != b.Float64() {
		t.Error("seed phrase streams diverged")
	}
}

func TestNamespaceIndependence(t *testing.T) {
	t.Parallel()

	// Draw dialogue then combat on one generator, combat then dialogue on
	// another; each namespace must see the same sequence either way.
	g1 := rng.New(7)
	d1 := draws(g1.Namespace("dialogue"), 8)
	c1 := draws(g1.Namespace("combat"), 8)

	g2 := rng.New(7)
	c2 := draws(g2.Namespace("combat"), 8)
	d2 := draws(g2.Namespace("dialogue"), 8)

	if diff := cmp.Diff(d1, d2); diff != "" {
		t.Errorf("dialogue stream depends on call order (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(c1, c2); diff != "" {
		t.Errorf("combat stream depends on call order (-first +second):\n%s", diff)
	}
	if cmp.Equal(d1, c1) {
		t.Error("namespaces share a stream")
	}
}

func TestNamespaceContinues(t *testing.T) {
	t.Parallel()

	g := rng.New(9)
	first := g.Namespace("ns").Uint64()
	second := g.Namespace("ns").Uint64()

	ref := rng.New(9).Namespace("ns")
	if ref.Uint64() != first || ref.Uint64() != second {
		t.Error("namespace did not continue its stream across calls")
	}
}

func TestNamespaceDoesNotPerturbBase(t *testing.T) {
	t.Parallel()

	a := rng.New(11)
	_ = draws(a.Namespace("noise"), 10)
	b := rng.New(11)
	if a.Uint64() != b.Uint64() {
		t.Error("drawing from a namespace advanced the base stream")
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	g := rng.New(5)
	g.Namespace("x").Uint64()
	c := g.Clone()

	want := draws(g, 16)
	got := draws(c, 16)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("clone diverged from original (-orig +clone):\n%s", diff)
	}
	if g.Namespace("x").Uint64() != c.Namespace("x").Uint64() {
		t.Error("cloned sub-stream diverged")
	}

	// Advancing the clone must not move the original.
	h := rng.New(5)
	hc := h.Clone()
	hc.Uint64()
	hc.Uint64()
	if h.Uint64() != rng.New(5).Uint64() {
		t.Error("clone shares state with original")
	}
}

func TestStateRestore(t *testing.T) {
	t.Parallel()

	g := rng.New(99)
	draws(g, 10)
	state, err := g.State()
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	want := draws(g, 10)

	r, err := rng.Restore(99, state)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if diff := cmp.Diff(want, draws(r, 10)); diff != "" {
		t.Errorf("restored stream diverged (-want +got):\n%s", diff)
	}

	if _, err := rng.Restore(1, []byte("garbage")); err == nil {
		t.Error("Restore accepted malformed state")
	}
}

func TestBoundedDraws(t *testing.T) {
	t.Parallel()

	g := rng.New(1)
	for i := 0; i < 1000; i++ {
		if v := g.IntN(6); v < 0 || v >= 6 {
			t.Fatalf("IntN(6) = %d", v)
		}
		if v := g.Range(3, -2); v < -2 || v > 3 {
			t.Fatalf("Range(3, -2) = %d", v)
		}
		if f := g.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64() = %v", f)
		}
	}
	if g.IntN(0) != 0 || g.IntN(-4) != 0 {
		t.Error("IntN with non-positive n should return 0")
	}
	if g.Chance(0) || !g.Chance(1) {
		t.Error("Chance did not honour certain outcomes")
	}
}

func TestWeightedChoice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		items  []rng.Weighted[string]
		want   string
		wantOK bool
	}{
		{name: "empty", items: nil, want: "", wantOK: false},
		{
			name:   "zero total returns first",
			items:  []rng.Weighted[string]{{Item: "a", Weight: 0}, {Item: "b", Weight: 0}},
			want:   "a",
			wantOK: true,
		},
		{
			name:   "negative weights count as zero",
			items:  []rng.Weighted[string]{{Item: "a", Weight: -5}, {Item: "b", Weight: 1}},
			want:   "b",
			wantOK: true,
		},
		{
			name:   "non-finite weights count as zero",
			items:  []rng.Weighted[string]{{Item: "a", Weight: math.NaN()}, {Item: "b", Weight: math.Inf(1)}, {Item: "c", Weight: 2}},
			want:   "c",
			wantOK: true,
		},
		{
			name:   "single positive",
			items:  []rng.Weighted[string]{{Item: "a", Weight: 0}, {Item: "b", Weight: 0}, {Item: "c", Weight: 3}},
			want:   "c",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := rng.WeightedChoice(rng.New(3), tt.items)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("WeightedChoice = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestWeightedChoiceDistribution(t *testing.T) {
	t.Parallel()

	g := rng.New(2024)
	items := []rng.Weighted[int]{{Item: 0, Weight: 1}, {Item: 1, Weight: 3}}
	var counts [2]int
	for i := 0; i < 4000; i++ {
		v, _ := rng.WeightedChoice(g, items)
		counts[v]++
	}
	ratio := float64(counts[1]) / float64(counts[0])
	if ratio < 2.5 || ratio > 3.5 {
		t.Errorf("weight ratio = %.2f, want about 3", ratio)
	}
}

func TestShuffle(t *testing.T) {
	t.Parallel()

	in := []int{1, 2, 3, 4, 5, 6, 7, 8}
	orig := append([]int(nil), in...)

	a := rng.Shuffle(rng.New(8), in)
	b := rng.Shuffle(rng.New(8), in)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("shuffle not deterministic:\n%s", diff)
	}
	if diff := cmp.Diff(orig, in); diff != "" {
		t.Errorf("shuffle mutated input:\n%s", diff)
	}
	if len(a) != len(in) {
		t.Fatalf("len = %d, want %d", len(a), len(in))
	}
	seen := map[int]bool{}
	for _, v := range a {
		seen[v] = true
	}
	if len(seen) != len(in) {
		t.Error("shuffle lost elements")
	}
}

func TestPick(t *testing.T) {
	t.Parallel()

	if _, ok := rng.Pick[int](rng.New(1), nil); ok {
		t.Error("Pick on empty slice reported ok")
	}
	v, ok := rng.Pick(rng.New(1), []string{"only"})
	if !ok || v != "only" {
		t.Errorf("Pick = (%q, %v)", v, ok)
	}
}

func TestFork(t *testing.T) {
	t.Parallel()

	g, ref := rng.New(17), rng.New(17)
	f := g.Fork()
	ref.Uint64()
	for range 100 {
		f.Float64()
		f.Namespace("search").Uint64()
	}
	if diff := cmp.Diff(draws(ref, 8), draws(g, 8)); diff != "" {
		t.Errorf("parent moved by more than one draw (-want +got):\n%s", diff)
	}

	a, b := rng.New(5).Fork(), rng.New(5).Fork()
	if diff := cmp.Diff(draws(a, 8), draws(b, 8)); diff != "" {
		t.Errorf("forks of equal parents differ (-a +b):\n%s", diff)
	}
}
