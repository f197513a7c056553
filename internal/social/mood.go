package social

import "github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"

// Situation is the non-relationship input to mood derivation.
type Situation struct {
	// Override forces the mood when it is a valid mood. Scripted events use it.
	Override types.Mood

	InCombat       bool
	RecentPurchase bool
	RecentDeath    bool

	// PlayerReputation is the player's standing, -100..100. It only colours
	// moods towards the player.
	PlayerReputation float64
}

// SituationFrom builds a Situation from the game-layer context.
func SituationFrom(ctx types.SimulationContext) Situation {
	return Situation{
		Override:       ctx.MoodOverride,
		InCombat:       ctx.HasEvent(types.GameEventCombatStart),
		RecentPurchase: ctx.HasEvent(types.GameEventPurchase),
		RecentDeath:    ctx.HasEvent(types.GameEventDeath),

		PlayerReputation: ctx.Player.Reputation,
	}
}

// Mood thresholds over valence (-100..100) and arousal (0..100).
const (
	fearThreshold       = 60
	angerArousal        = 60
	angerValence        = -20
	annoyanceTension    = 40
	suspicionTrust      = -30
	happyValence        = 50
	friendlyValence     = 20
	curiousFamiliarity  = 10
	combatArousalBoost  = 25
	purchaseValenceGain = 10
	deathValenceLoss    = 15
	reputationWeight    = 0.2
)

// Valence is the weighted pleasantness of a relationship.
func Valence(r Relationship, s Situation) float64 {
	v := 0.4*r.Get(types.StatAffection) + 0.35*r.Get(types.StatTrust) + 0.25*r.Get(types.StatRespect)
	if s.RecentPurchase {
		v += purchaseValenceGain
	}
	if s.RecentDeath {
		v -= deathValenceLoss
	}
	if r.Other == types.PlayerID {
		v += reputationWeight * clampReputation(s.PlayerReputation)
	}
	return v
}

// Arousal is the weighted agitation of a relationship.
func Arousal(r Relationship, s Situation) float64 {
	a := 0.6*r.Get(types.StatTension) + 0.4*r.Get(types.StatFear)
	if s.InCombat {
		a += combatArousalBoost
	}
	return a
}

// DeriveMood computes the owner's mood towards the other party. It is a pure
// function of the stats and the situation; rules are checked in order and the
// first match wins.
func DeriveMood(r Relationship, s Situation) types.Mood {
	if s.Override.IsValid() {
		return s.Override
	}

	fear := r.Get(types.StatFear)
	tension := r.Get(types.StatTension)
	valence := Valence(r, s)
	arousal := Arousal(r, s)

	switch {
	case fear >= fearThreshold && fear >= tension:
		return types.MoodFearful
	case arousal >= angerArousal && valence <= angerValence:
		return types.MoodAngry
	case tension >= annoyanceTension && valence < 0:
		return types.MoodAnnoyed
	case r.Get(types.StatTrust) <= suspicionTrust:
		return types.MoodSuspicious
	case valence >= happyValence:
		return types.MoodHappy
	case valence >= friendlyValence:
		return types.MoodFriendly
	case r.Interactions == 0 && r.Get(types.StatFamiliarity) < curiousFamiliarity:
		return types.MoodCurious
	default:
		return types.MoodNeutral
	}
}

func clampReputation(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return clamp(v, -100, 100)
}
