// Package memory implements the per-NPC episodic memory used by the dialogue
// pipeline.
//
// A [Memory] is an append-ordered, capacity-bounded sequence of [Event]s. When
// it is full, adding an event evicts the one with the lowest priority, where
// priority combines how salient the event was with how long ago it happened.
// Opinions and trauma bonds are never stored: they are recomputed from the
// retained events on every call, so identical event sequences always produce
// identical answers.
//
// Memory is an immutable value. Every operation returns a new Memory and
// leaves its input valid for any other reader.
package memory

import (
	"math"
	"slices"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// Defaults applied by [New] when given zero values.
const (
	DefaultCapacity  = 50
	DefaultAgeWeight = 0.5
)

// opinionHalfLife is the age in turns at which an event counts half as much
// towards an opinion as the newest event.
const opinionHalfLife = 25.0

// EventKind is the closed set of remembered event kinds.
type EventKind string

const (
	KindConversation EventKind = "conversation"
	KindConflict     EventKind = "conflict"
	KindGift         EventKind = "gift"
	KindBetrayal     EventKind = "betrayal"
	KindRescue       EventKind = "rescue"
	KindInsult       EventKind = "insult"
	KindCompliment   EventKind = "compliment"
	KindTrade        EventKind = "trade"
	KindThreat       EventKind = "threat"
	KindHelp         EventKind = "help"
	KindImpression   EventKind = "impression"
)

var kindValence = map[EventKind]float64{
	KindConversation: 0.1,
	KindConflict:     -0.8,
	KindGift:         0.7,
	KindBetrayal:     -1,
	KindRescue:       1,
	KindInsult:       -0.5,
	KindCompliment:   0.5,
	KindTrade:        0.2,
	KindThreat:       -0.7,
	KindHelp:         0.6,
	KindImpression:   0,
}

// IsValid reports whether k is a known event kind.
func (k EventKind) IsValid() bool {
	_, ok := kindValence[k]
	return ok
}

// Valence returns the default pleasantness of k in [-1, 1].
func (k EventKind) Valence() float64 { return kindValence[k] }

// Event is one remembered happening.
type Event struct {
	Turn int64
	Kind EventKind

	// Magnitude is how intense the event was, 0..100.
	Magnitude float64

	// Valence is how pleasant the event was for the owner, -1..1.
	Valence float64

	// Counterpart is the other party, empty when there was none.
	Counterpart types.NPCID

	Note string
}

// NewEvent builds an event whose valence is the default for kind.
func NewEvent(kind EventKind, magnitude float64, counterpart types.NPCID, turn int64) Event {
	return Event{
		Turn:        turn,
		Kind:        kind,
		Magnitude:   math.Max(0, math.Min(100, magnitude)),
		Valence:     kind.Valence(),
		Counterpart: counterpart,
	}
}

// Salience is how memorable the event is regardless of age.
func (e Event) Salience() float64 {
	return e.Magnitude * (0.5 + math.Abs(e.Valence))
}

// Memory is the bounded event log of one NPC.
type Memory struct {
	Owner     types.NPCID
	Capacity  int
	AgeWeight float64
	Events    []Event
}

// New creates an empty memory. Non-positive capacity and negative age weight
// fall back to the package defaults.
func New(owner types.NPCID, capacity int, ageWeight float64) Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ageWeight < 0 {
		ageWeight = DefaultAgeWeight
	}
	return Memory{Owner: owner, Capacity: capacity, AgeWeight: ageWeight}
}

// Len returns the number of retained events.
func (m Memory) Len() int { return len(m.Events) }

// rank orders events for eviction. Ageing lowers every event's priority by the
// same amount per turn, so comparing salience + AgeWeight*Turn is equivalent to
// comparing priorities at any single point in time.
func (m Memory) rank(e Event) float64 {
	return e.Salience() + m.AgeWeight*float64(e.Turn)
}

// Priority returns the eviction priority of e as seen at turn now.
func (m Memory) Priority(e Event, now int64) float64 {
	return e.Salience() - m.AgeWeight*float64(now-e.Turn)
}

// Eviction reports what [AddEvent] had to drop.
type Eviction struct {
	// Evicted is true when an event was dropped.
	Evicted bool

	Event Event

	// Incoming is true when the dropped event was the one being added.
	Incoming bool
}

// AddEvent appends e and enforces the capacity by dropping the lowest-priority
// event, which may be e itself. Ties are broken by dropping the oldest.
func AddEvent(m Memory, e Event) (Memory, Eviction) {
	if m.Capacity <= 0 {
		m.Capacity = DefaultCapacity
	}
	events := make([]Event, 0, min(len(m.Events)+1, m.Capacity+1))
	events = append(events, m.Events...)
	events = append(events, e)

	var ev Eviction
	for len(events) > m.Capacity {
		victim := 0
		for i := 1; i < len(events); i++ {
			if m.rank(events[i]) < m.rank(events[victim]) {
				victim = i
			}
		}
		ev = Eviction{Evicted: true, Event: events[victim], Incoming: victim == len(events)-1}
		events = slices.Delete(events, victim, victim+1)
	}

	m.Events = events
	return m, ev
}

// About returns the retained events involving counterpart, oldest first.
func About(m Memory, counterpart types.NPCID) []Event {
	var out []Event
	for _, e := range m.Events {
		if e.Counterpart == counterpart {
			out = append(out, e)
		}
	}
	return out
}

// Recent returns up to n of the newest events, oldest first.
func Recent(m Memory, n int) []Event {
	if n <= 0 {
		return nil
	}
	if n > len(m.Events) {
		n = len(m.Events)
	}
	return slices.Clone(m.Events[len(m.Events)-n:])
}

// Opinion returns the owner's opinion of counterpart in [-100, 100]. It is a
// recency-weighted sum of valence times magnitude over the events involving
// counterpart, with the newest such event at full weight.
func Opinion(m Memory, counterpart types.NPCID) float64 {
	about := About(m, counterpart)
	if len(about) == 0 {
		return 0
	}
	var latest int64
	for _, e := range about {
		latest = max(latest, e.Turn)
	}
	var sum float64
	for _, e := range about {
		age := float64(latest - e.Turn)
		w := math.Pow(0.5, age/opinionHalfLife)
		sum += e.Valence * e.Magnitude * w
	}
	return math.Max(-100, math.Min(100, sum))
}

// UpdateOpinion records an explicit impression of counterpart. Positive delta
// improves the opinion and negative delta worsens it; the magnitude of the
// recorded event is |delta|.
func UpdateOpinion(m Memory, counterpart types.NPCID, delta float64, turn int64) (Memory, Eviction) {
	e := NewEvent(KindImpression, math.Abs(delta), counterpart, turn)
	switch {
	case delta > 0:
		e.Valence = 1
	case delta < 0:
		e.Valence = -1
	}
	return AddEvent(m, e)
}

// Trauma bond thresholds.
const (
	traumaMinNegatives      = 3
	traumaNegativeMagnitude = 30
	traumaPositiveMagnitude = 50
	traumaPositiveValence   = 0.5
)

// HasTraumaBond reports whether the owner's history with counterpart contains
// repeated high-magnitude negative events followed by a strongly positive one,
// such as a long rivalry ended by a rescue.
func HasTraumaBond(m Memory, counterpart types.NPCID) bool {
	negatives := 0
	for _, e := range m.Events {
		if e.Counterpart != counterpart {
			continue
		}
		switch {
		case e.Valence < 0 && e.Magnitude >= traumaNegativeMagnitude:
			negatives++
		case e.Valence >= traumaPositiveValence && e.Magnitude >= traumaPositiveMagnitude:
			if negatives >= traumaMinNegatives {
				return true
			}
		}
	}
	return false
}

// MostMemorable returns the event with the highest |valence| * magnitude. Ties
// go to the most recent. ok is false for an empty memory.
func MostMemorable(m Memory) (best Event, ok bool) {
	bestScore := -1.0
	for _, e := range m.Events {
		s := math.Abs(e.Valence) * e.Magnitude
		if s >= bestScore {
			best, bestScore, ok = e, s, true
		}
	}
	return best, ok
}
