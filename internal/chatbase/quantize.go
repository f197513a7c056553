package chatbase

import (
	"fmt"
	"strings"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// MoodBucket groups moods by emotional register.
type MoodBucket string

const (
	MoodPositive MoodBucket = "positive"
	MoodNeutral  MoodBucket = "neutral"
	MoodNegative MoodBucket = "negative"
	MoodVolatile MoodBucket = "volatile"
)

// RelationshipBucket groups the mean of affection and respect.
type RelationshipBucket string

const (
	RelHostile RelationshipBucket = "hostile"
	RelCold    RelationshipBucket = "cold"
	RelNeutral RelationshipBucket = "neutral"
	RelWarm    RelationshipBucket = "warm"
	RelClose   RelationshipBucket = "close"
)

// TrustBucket groups trust.
type TrustBucket string

const (
	TrustLow  TrustBucket = "low"
	TrustMid  TrustBucket = "mid"
	TrustHigh TrustBucket = "high"
)

// FamiliarityBucket groups familiarity.
type FamiliarityBucket string

const (
	FamStranger     FamiliarityBucket = "stranger"
	FamAcquaintance FamiliarityBucket = "acquaintance"
	FamFamiliar     FamiliarityBucket = "familiar"
	FamIntimate     FamiliarityBucket = "intimate"
)

// TensionBucket groups tension.
type TensionBucket string

const (
	TensionCalm     TensionBucket = "calm"
	TensionTense    TensionBucket = "tense"
	TensionVolatile TensionBucket = "volatile"
)

// DepthBucket groups the number of turns spent on the current topic.
type DepthBucket string

const (
	DepthOpening   DepthBucket = "opening"
	DepthShallow   DepthBucket = "shallow"
	DepthDeep      DepthBucket = "deep"
	DepthExhausted DepthBucket = "exhausted"
)

// QuantizeMood maps a mood to its bucket.
func QuantizeMood(m types.Mood) MoodBucket {
	switch m {
	case types.MoodHappy, types.MoodFriendly:
		return MoodPositive
	case types.MoodAnnoyed, types.MoodSuspicious:
		return MoodNegative
	case types.MoodAngry, types.MoodFearful:
		return MoodVolatile
	default:
		return MoodNeutral
	}
}

// QuantizeRelationship buckets the mean of affection and respect.
func QuantizeRelationship(r social.Relationship) RelationshipBucket {
	v := (r.Get(types.StatAffection) + r.Get(types.StatRespect)) / 2
	switch {
	case v < -50:
		return RelHostile
	case v < -15:
		return RelCold
	case v < 15:
		return RelNeutral
	case v < 50:
		return RelWarm
	default:
		return RelClose
	}
}

// QuantizeTrust buckets trust.
func QuantizeTrust(v float64) TrustBucket {
	switch {
	case v < -20:
		return TrustLow
	case v <= 30:
		return TrustMid
	default:
		return TrustHigh
	}
}

// QuantizeFamiliarity buckets familiarity.
func QuantizeFamiliarity(v float64) FamiliarityBucket {
	switch {
	case v < 10:
		return FamStranger
	case v < 40:
		return FamAcquaintance
	case v < 75:
		return FamFamiliar
	default:
		return FamIntimate
	}
}

// QuantizeTension buckets tension.
func QuantizeTension(v float64) TensionBucket {
	switch {
	case v < 25:
		return TensionCalm
	case v < 60:
		return TensionTense
	default:
		return TensionVolatile
	}
}

// QuantizeDepth buckets topic depth.
func QuantizeDepth(depth int) DepthBucket {
	switch {
	case depth <= 0:
		return DepthOpening
	case depth <= 2:
		return DepthShallow
	case depth <= 5:
		return DepthDeep
	default:
		return DepthExhausted
	}
}

// ContextKey is the quantized conversational situation. It is comparable and
// used directly as a map key.
type ContextKey struct {
	Pool         types.Pool
	Mood         MoodBucket
	Relationship RelationshipBucket
	Trust        TrustBucket
	Familiarity  FamiliarityBucket
	Tension      TensionBucket
	Depth        DepthBucket
}

// Quantize reduces the live situation to a ContextKey.
func Quantize(pool types.Pool, mood types.Mood, r social.Relationship, depth int) ContextKey {
	return ContextKey{
		Pool:         pool,
		Mood:         QuantizeMood(mood),
		Relationship: QuantizeRelationship(r),
		Trust:        QuantizeTrust(r.Get(types.StatTrust)),
		Familiarity:  QuantizeFamiliarity(r.Get(types.StatFamiliarity)),
		Tension:      QuantizeTension(r.Get(types.StatTension)),
		Depth:        QuantizeDepth(depth),
	}
}

// String returns the pipe-separated form used in chatbase files, e.g.
// "greeting|neutral|neutral|mid|stranger|calm|opening".
func (k ContextKey) String() string {
	return strings.Join([]string{
		string(k.Pool), string(k.Mood), string(k.Relationship), string(k.Trust),
		string(k.Familiarity), string(k.Tension), string(k.Depth),
	}, "|")
}

// MarshalText implements encoding.TextMarshaler.
func (k ContextKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ContextKey) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey parses the pipe-separated key form and validates every bucket.
func ParseKey(s string) (ContextKey, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 7 {
		return ContextKey{}, fmt.Errorf("chatbase: key %q: want 7 fields, got %d", s, len(parts))
	}
	k := ContextKey{
		Pool:         types.Pool(parts[0]),
		Mood:         MoodBucket(parts[1]),
		Relationship: RelationshipBucket(parts[2]),
		Trust:        TrustBucket(parts[3]),
		Familiarity:  FamiliarityBucket(parts[4]),
		Tension:      TensionBucket(parts[5]),
		Depth:        DepthBucket(parts[6]),
	}
	if err := k.Validate(); err != nil {
		return ContextKey{}, fmt.Errorf("chatbase: key %q: %w", s, err)
	}
	return k, nil
}

// Validate reports the first bucket that is not a known value.
func (k ContextKey) Validate() error {
	checks := []struct {
		name  string
		value string
		ok    bool
	}{
		{"pool", string(k.Pool), k.Pool.IsValid()},
		{"mood", string(k.Mood), oneOf(k.Mood, MoodPositive, MoodNeutral, MoodNegative, MoodVolatile)},
		{"relationship", string(k.Relationship), oneOf(k.Relationship, RelHostile, RelCold, RelNeutral, RelWarm, RelClose)},
		{"trust", string(k.Trust), oneOf(k.Trust, TrustLow, TrustMid, TrustHigh)},
		{"familiarity", string(k.Familiarity), oneOf(k.Familiarity, FamStranger, FamAcquaintance, FamFamiliar, FamIntimate)},
		{"tension", string(k.Tension), oneOf(k.Tension, TensionCalm, TensionTense, TensionVolatile)},
		{"depth", string(k.Depth), oneOf(k.Depth, DepthOpening, DepthShallow, DepthDeep, DepthExhausted)},
	}
	for _, c := range checks {
		if !c.ok {
			return fmt.Errorf("unknown %s bucket %q", c.name, c.value)
		}
	}
	return nil
}

func oneOf[T comparable](v T, set ...T) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
