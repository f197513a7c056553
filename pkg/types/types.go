// Package types defines the shared types used across the NPC dialogue packages.
//
// These types form the lingua franca between the relationship model, the memory
// model, the response selector and the simulation loop. They are intentionally
// minimal: each package defines its own domain types, but cross-cutting data
// structures live here to avoid circular imports.
package types

// NPCID is the stable slug identifying an NPC (e.g. "stitch-up-girl").
type NPCID string

// PlayerID is the reserved identity of the player character. Relationships and
// memories about the player are keyed by it like any other counterpart.
const PlayerID NPCID = "player"

// Category is the social role of an NPC. The set is closed.
type Category string

const (
	CategoryWanderer Category = "wanderer"
	CategoryTraveler Category = "traveler"
	CategoryMerchant Category = "merchant"
	CategoryPantheon Category = "pantheon"
	CategoryGuardian Category = "guardian"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryWanderer, CategoryTraveler, CategoryMerchant, CategoryPantheon, CategoryGuardian:
		return true
	}
	return false
}

// NPCIdentity describes who an NPC is. It is immutable after creation.
type NPCIdentity struct {
	// ID is the stable slug used as the key everywhere else.
	ID NPCID

	// Category is the NPC's social role.
	Category Category

	// DisplayName is the human-readable name shown by the presentation layer.
	DisplayName string
}

// Mood is the derived emotional state of an NPC towards a counterpart.
type Mood string

const (
	MoodNeutral    Mood = "neutral"
	MoodHappy      Mood = "happy"
	MoodFriendly   Mood = "friendly"
	MoodCurious    Mood = "curious"
	MoodAnnoyed    Mood = "annoyed"
	MoodAngry      Mood = "angry"
	MoodFearful    Mood = "fearful"
	MoodSuspicious Mood = "suspicious"
)

// Moods lists every mood in a stable order.
var Moods = []Mood{
	MoodNeutral, MoodHappy, MoodFriendly, MoodCurious,
	MoodAnnoyed, MoodAngry, MoodFearful, MoodSuspicious,
}

// IsValid reports whether m is a known mood.
func (m Mood) IsValid() bool {
	for _, v := range Moods {
		if m == v {
			return true
		}
	}
	return false
}

// StatKey names one of the fixed relationship stats.
type StatKey string

const (
	StatTrust       StatKey = "trust"
	StatAffection   StatKey = "affection"
	StatRespect     StatKey = "respect"
	StatFear        StatKey = "fear"
	StatTension     StatKey = "tension"
	StatFamiliarity StatKey = "familiarity"
	StatDebt        StatKey = "debt"
)

// StatKeys lists every stat in storage order. The index of a key in this slice
// is its position in a stat vector.
var StatKeys = []StatKey{
	StatTrust, StatAffection, StatRespect, StatFear, StatTension, StatFamiliarity, StatDebt,
}

// Index returns the position of k in [StatKeys], or -1 for an unknown key.
func (k StatKey) Index() int {
	for i, v := range StatKeys {
		if k == v {
			return i
		}
	}
	return -1
}

// Bounds returns the inclusive range a stat is clamped to.
func (k StatKey) Bounds() (lo, hi float64) {
	switch k {
	case StatFear, StatTension, StatFamiliarity:
		return 0, 100
	default:
		return -100, 100
	}
}

// Pool is the conversational purpose of a response template. The set is closed.
type Pool string

const (
	PoolGreeting Pool = "greeting"
	PoolFarewell Pool = "farewell"
	PoolTaunt    Pool = "taunt"
	PoolThreat   Pool = "threat"
	PoolGossip   Pool = "gossip"
	PoolLore     Pool = "lore"
	PoolTrade    Pool = "trade"
	PoolHint     Pool = "hint"
	PoolReaction Pool = "reaction"
	PoolIdle     Pool = "idle"
)

// Pools lists every pool in a stable order.
var Pools = []Pool{
	PoolGreeting, PoolFarewell, PoolTaunt, PoolThreat, PoolGossip,
	PoolLore, PoolTrade, PoolHint, PoolReaction, PoolIdle,
}

// IsValid reports whether p is a known pool.
func (p Pool) IsValid() bool {
	for _, v := range Pools {
		if p == v {
			return true
		}
	}
	return false
}

// Objective is what an NPC is trying to achieve in a conversation.
type Objective string

const (
	ObjectiveNone               Objective = "none"
	ObjectiveBuildTrust         Objective = "build_trust"
	ObjectiveProvokeConflict    Objective = "provoke_conflict"
	ObjectiveExtractInformation Objective = "extract_information"
	ObjectiveEndConversation    Objective = "end_conversation"
	ObjectiveIntimidate         Objective = "intimidate"
	ObjectiveMakeSale           Objective = "make_sale"
)

// IsValid reports whether o is a known objective. The empty objective is
// treated as ObjectiveNone and is valid.
func (o Objective) IsValid() bool {
	switch o {
	case "", ObjectiveNone, ObjectiveBuildTrust, ObjectiveProvokeConflict, ObjectiveExtractInformation,
		ObjectiveEndConversation, ObjectiveIntimidate, ObjectiveMakeSale:
		return true
	}
	return false
}

// Active reports whether o is a real goal rather than none.
func (o Objective) Active() bool { return o != "" && o != ObjectiveNone }

// GameEventKind is a discrete event forwarded by the game bridge.
type GameEventKind string

const (
	GameEventCombatStart GameEventKind = "combat_start"
	GameEventPurchase    GameEventKind = "purchase"
	GameEventDeath       GameEventKind = "death"
	GameEventRescue      GameEventKind = "rescue"
)

// GameEvent is a situational input from the game layer.
type GameEvent struct {
	Kind GameEventKind

	// Turn is the simulation turn at which the event happened.
	Turn int64
}

// PlayerStats holds the player attributes relevant to pricing and mood.
type PlayerStats struct {
	Level      int
	Gold       int
	Reputation float64
}

// SimulationContext is the situational input supplied with every turn.
type SimulationContext struct {
	// Domain is the world area the conversation happens in.
	Domain string

	// Turn is the caller's notion of the current time. Zero means "use the
	// world turn".
	Turn int64

	Player PlayerStats

	// Events are recent game events relevant to the speaker.
	Events []GameEvent

	// MoodOverride forces the derived mood when set to a valid mood.
	MoodOverride Mood
}

// HasEvent reports whether ctx carries an event of the given kind.
func (ctx SimulationContext) HasEvent(kind GameEventKind) bool {
	for _, e := range ctx.Events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// ObservedStatChange records one stat mutation for the relationship dashboard.
// Every mutation produces one, including clamped and no-op mutations.
type ObservedStatChange struct {
	Owner NPCID
	Other NPCID
	Stat  StatKey

	Before float64
	After  float64

	// Requested is the delta the caller asked for.
	Requested float64

	// Applied is After - Before.
	Applied float64

	// Clamped is true when Applied differs from Requested because of bounds.
	Clamped bool

	Reason string
	Turn   int64
}

// SelectionSource identifies which stage of the fallback chain produced a response.
type SelectionSource string

const (
	SourceChatbase SelectionSource = "chatbase"
	SourceSearch   SelectionSource = "search"
	SourceRandom   SelectionSource = "random"
	SourceGeneric  SelectionSource = "generic"
)

// InteractionTurn is the output of one conversational turn.
type InteractionTurn struct {
	Turn     int64
	Speaker  NPCID
	Listener NPCID

	// Intent is the detected player intent, empty for NPC-initiated turns.
	Intent string

	Pool Pool

	// ResponseID references the authored line owned by the content layer.
	ResponseID string

	Source     SelectionSource
	Confidence float64

	PreviousMood Mood
	Mood         Mood

	Changes []ObservedStatChange
}
