// Package rng provides the deterministic random source shared by every
// simulation component.
//
// A generator is created from a seed and exposes uniform, bounded and weighted
// draws. Independent sub-streams are derived with [Rng.Namespace] so that, for
// example, search rollouts and ambient pair selection never perturb each other
// regardless of the order in which they are invoked. For a fixed seed and call
// sequence every output is reproducible across runs and platforms.
//
// An Rng is not safe for concurrent use. Clone it for independent consumers.
package rng

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// streamIncrement is the second PCG seed word for base streams.
const streamIncrement = 0x9e3779b97f4a7c15

// Rng is a seeded generator with lazily created namespaced sub-streams.
type Rng struct {
	seed    uint64
	src     *rand.PCG
	r       *rand.Rand
	streams map[string]*Rng
}

// New creates a generator for seed.
func New(seed uint64) *Rng {
	return newRng(seed, rand.NewPCG(seed, streamIncrement))
}

// NewFromString creates a generator from a seed phrase such as a run name.
func NewFromString(phrase string) *Rng {
	return New(xxhash.Sum64String(phrase))
}

func newRng(seed uint64, src *rand.PCG) *Rng {
	return &Rng{seed: seed, src: src, r: rand.New(src)}
}

// Seed returns the seed the generator was created with.
func (g *Rng) Seed() uint64 { return g.seed }

// Float64 returns a uniform draw in [0, 1).
func (g *Rng) Float64() float64 { return g.r.Float64() }

// Uint64 returns a uniform 64-bit draw.
func (g *Rng) Uint64() uint64 { return g.r.Uint64() }

// IntN returns a uniform draw in [0, n). It returns 0 when n <= 0.
func (g *Rng) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return g.r.IntN(n)
}

// Range returns a uniform draw in [lo, hi]. Reversed bounds are swapped.
func (g *Rng) Range(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + g.IntN(hi-lo+1)
}

// Chance returns true with probability p. p is clamped to [0, 1].
func (g *Rng) Chance(p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	return g.r.Float64() < p
}

// Namespace returns the sub-stream for ns. The sub-stream is seeded from
// hash(seed, ns) and persists across calls: asking for the same namespace
// twice continues the same sequence.
func (g *Rng) Namespace(ns string) *Rng {
	if s, ok := g.streams[ns]; ok {
		return s
	}
	if g.streams == nil {
		g.streams = make(map[string]*Rng)
	}
	seed := namespaceSeed(g.seed, ns)
	s := newRng(seed, rand.NewPCG(seed, g.seed^streamIncrement))
	g.streams[ns] = s
	return s
}

func namespaceSeed(seed uint64, ns string) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(ns)
	return d.Sum64()
}

// Fork returns a fresh generator seeded from one draw of g. g advances by
// exactly one draw however much the fork is used afterwards, so callers can
// hand a fork to work whose appetite for randomness varies.
func (g *Rng) Fork() *Rng {
	return New(g.Uint64())
}

// Clone returns an independent copy of the generator and all of its
// sub-streams. Draws on the clone never affect the original.
func (g *Rng) Clone() *Rng {
	src := *g.src
	c := newRng(g.seed, &src)
	if len(g.streams) > 0 {
		c.streams = make(map[string]*Rng, len(g.streams))
		for ns, s := range g.streams {
			c.streams[ns] = s.Clone()
		}
	}
	return c
}

// State returns the cursor of the base stream. Sub-streams are not included;
// they are re-derived from the seed on restore.
func (g *Rng) State() ([]byte, error) {
	b, err := g.src.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("rng: marshal state: %w", err)
	}
	return b, nil
}

// Restore creates a generator for seed positioned at a cursor previously
// returned by [Rng.State].
func Restore(seed uint64, state []byte) (*Rng, error) {
	g := New(seed)
	if len(state) == 0 {
		return g, nil
	}
	if err := g.src.UnmarshalBinary(state); err != nil {
		return nil, fmt.Errorf("rng: restore state: %w", err)
	}
	return g, nil
}

// Weighted pairs an item with its selection weight.
type Weighted[T any] struct {
	Item   T
	Weight float64
}

// Pick returns a uniformly chosen element of items. It returns the zero value
// and false when items is empty.
func Pick[T any](g *Rng, items []T) (T, bool) {
	if len(items) == 0 {
		var zero T
		return zero, false
	}
	return items[g.IntN(len(items))], true
}

// WeightedChoice draws one item with probability proportional to its weight.
// Negative and non-finite weights count as zero. An empty list returns the
// zero value and false; a list whose total weight is zero returns the first
// item.
func WeightedChoice[T any](g *Rng, items []Weighted[T]) (T, bool) {
	if len(items) == 0 {
		var zero T
		return zero, false
	}
	var total float64
	for _, it := range items {
		total += usable(it.Weight)
	}
	if total <= 0 || math.IsInf(total, 0) {
		return items[0].Item, true
	}
	x := g.Float64() * total
	for _, it := range items {
		w := usable(it.Weight)
		if w == 0 {
			continue
		}
		if x < w {
			return it.Item, true
		}
		x -= w
	}
	// Floating point residue: fall back to the last positive entry.
	for i := len(items) - 1; i >= 0; i-- {
		if usable(items[i].Weight) > 0 {
			return items[i].Item, true
		}
	}
	return items[0].Item, true
}

func usable(w float64) float64 {
	if w > 0 && !math.IsInf(w, 0) {
		return w
	}
	return 0
}

// Shuffle returns a shuffled copy of items. The input is left untouched.
func Shuffle[T any](g *Rng, items []T) []T {
	out := slices.Clone(items)
	for i := len(out) - 1; i > 0; i-- {
		j := g.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
