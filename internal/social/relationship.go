// Package social implements the relationship model: bounded per-pair stats,
// mood derivation and the commerce price modifier.
//
// Relationships are immutable values. Every mutation goes through [ModifyStat],
// [ApplyDeltas] or [Decay], which return a new value together with the
// [types.ObservedStatChange] records describing what happened, including
// clamping. There is no way to change a stat silently.
package social

import (
	"math"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// Stats is the fixed stat vector of a relationship, indexed by
// [types.StatKey.Index]. It is an array so that copies never alias.
type Stats [7]float64

// Get returns the value of key. Unknown keys read as zero.
func (s Stats) Get(key types.StatKey) float64 {
	i := key.Index()
	if i < 0 {
		return 0
	}
	return s[i]
}

// Relationship is one NPC's view of another.
type Relationship struct {
	Owner types.NPCID
	Other types.NPCID
	Stats Stats

	// Interactions counts completed conversational turns between the pair.
	Interactions int

	// LastTurn is the turn of the most recent mutation.
	LastTurn int64
}

// Neutral returns the relationship used when owner has never met other.
func Neutral(owner, other types.NPCID) Relationship {
	return Relationship{Owner: owner, Other: other}
}

// Get is shorthand for r.Stats.Get(key).
func (r Relationship) Get(key types.StatKey) float64 { return r.Stats.Get(key) }

// StatDelta is a requested change to one stat.
type StatDelta struct {
	Stat  types.StatKey `yaml:"stat" json:"stat"`
	Delta float64       `yaml:"delta" json:"delta"`
}

// ModifyStat returns r with key changed by delta, clamped to the stat's bounds,
// and the change record. Unknown keys and non-finite deltas leave r untouched
// and still produce a record with Applied zero.
func ModifyStat(r Relationship, key types.StatKey, delta float64, reason string, turn int64) (Relationship, types.ObservedStatChange) {
	ev := types.ObservedStatChange{
		Owner:     r.Owner,
		Other:     r.Other,
		Stat:      key,
		Requested: delta,
		Reason:    reason,
		Turn:      turn,
	}
	i := key.Index()
	if i < 0 {
		ev.Clamped = delta != 0
		return r, ev
	}

	before := r.Stats[i]
	if !isFinite(delta) {
		ev.Before, ev.After = before, before
		ev.Clamped = true
		return r, ev
	}

	lo, hi := key.Bounds()
	after := clamp(before+delta, lo, hi)

	r.Stats[i] = after
	if turn > r.LastTurn {
		r.LastTurn = turn
	}

	ev.Before = before
	ev.After = after
	ev.Applied = after - before
	ev.Clamped = after != before+delta
	return r, ev
}

// Sanitize returns r with every stat brought inside its bounds. NaN becomes
// zero and infinities land on the nearer bound. It is meant for relationships read from storage, which
// never went through [ModifyStat].
func Sanitize(r Relationship) Relationship {
	for i, key := range types.StatKeys {
		v := r.Stats[i]
		if math.IsNaN(v) {
			r.Stats[i] = 0
			continue
		}
		lo, hi := key.Bounds()
		r.Stats[i] = clamp(v, lo, hi)
	}
	return r
}

// ApplyDeltas applies deltas in order and returns one change per delta.
func ApplyDeltas(r Relationship, deltas []StatDelta, reason string, turn int64) (Relationship, []types.ObservedStatChange) {
	changes := make([]types.ObservedStatChange, 0, len(deltas))
	for _, d := range deltas {
		var ev types.ObservedStatChange
		r, ev = ModifyStat(r, d.Stat, d.Delta, reason, turn)
		changes = append(changes, ev)
	}
	return r, changes
}

// RecordInteraction returns r with its interaction counter advanced.
func RecordInteraction(r Relationship, turn int64) Relationship {
	r.Interactions++
	if turn > r.LastTurn {
		r.LastTurn = turn
	}
	return r
}

// Decay moves every stat towards zero by a factor of (1-rate)^turns.
// Familiarity fades at half the rate. Only stats that actually move produce a
// change record.
func Decay(r Relationship, turns int, rate float64, turn int64) (Relationship, []types.ObservedStatChange) {
	if turns <= 0 || rate <= 0 {
		return r, nil
	}
	rate = min(rate, 1)

	var changes []types.ObservedStatChange
	for i, key := range types.StatKeys {
		cur := r.Stats[i]
		if cur == 0 {
			continue
		}
		k := rate
		if key == types.StatFamiliarity {
			k = rate / 2
		}
		next := cur * math.Pow(1-k, float64(turns))
		if math.Abs(next) < 0.01 {
			next = 0
		}
		if next == cur {
			continue
		}
		var ev types.ObservedStatChange
		r, ev = ModifyStat(r, key, next-cur, "decay", turn)
		changes = append(changes, ev)
	}
	return r, changes
}

// PriceModifier returns the multiplier the owner applies to prices quoted to
// the other party. Trusted, liked and respected customers pay less; tension and
// outstanding debt raise the price.
func PriceModifier(r Relationship) float64 {
	m := 1.0 -
		0.002*r.Get(types.StatTrust) -
		0.0015*r.Get(types.StatAffection) -
		0.001*r.Get(types.StatRespect) +
		0.003*r.Get(types.StatTension) +
		0.002*r.Get(types.StatDebt)
	return clamp(m, 0.5, 2.0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
