// Package search implements bounded Monte-Carlo tree search over
// conversational moves.
//
// The search operates exclusively on [Snapshot] values: self-contained,
// cheaply cloneable copies of the state needed to simulate further turns. The
// live world is never touched. Every call builds a fresh tree and discards it
// on return, and every call terminates within its [Budget].
package search

import (
	"maps"
	"slices"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/conversation"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// Participant is one side of a simulated conversation.
type Participant struct {
	ID        types.NPCID
	Objective types.Objective
	Behavior  behavior.State
}

// Pair addresses a directed relationship.
type Pair struct {
	Owner types.NPCID
	Other types.NPCID
}

// Snapshot is the state of a hypothetical conversation.
type Snapshot struct {
	Participants []Participant

	// Relationships holds every directed relationship between participants.
	Relationships map[Pair]social.Relationship

	Thread conversation.Thread

	// Turn is the simulated turn number.
	Turn int64

	// Next is the index in Participants of whoever speaks next.
	Next int

	// Rng is the random cursor carried with the snapshot.
	Rng *rng.Rng
}

// NewSnapshot builds a snapshot. rel is consulted once per ordered pair of
// participants; its results are copied, so later changes to the source do not
// leak in.
func NewSnapshot(parts []Participant, rel func(owner, other types.NPCID) social.Relationship, thread conversation.Thread, turn int64, next int, r *rng.Rng) Snapshot {
	s := Snapshot{
		Participants:  slices.Clone(parts),
		Relationships: make(map[Pair]social.Relationship, len(parts)*(len(parts)-1)),
		Thread:        thread.Clone(),
		Turn:          turn,
		Next:          next,
	}
	if r != nil {
		s.Rng = r.Clone()
	}
	for _, a := range parts {
		for _, b := range parts {
			if a.ID != b.ID {
				s.Relationships[Pair{a.ID, b.ID}] = rel(a.ID, b.ID)
			}
		}
	}
	return s
}

// Clone returns a snapshot sharing no mutable state with s.
func (s Snapshot) Clone() Snapshot {
	c := s
	c.Participants = slices.Clone(s.Participants)
	c.Relationships = maps.Clone(s.Relationships)
	c.Thread = s.Thread.Clone()
	if s.Rng != nil {
		c.Rng = s.Rng.Clone()
	}
	return c
}

// Relationship returns owner's view of other, neutral when absent.
func (s Snapshot) Relationship(owner, other types.NPCID) social.Relationship {
	if r, ok := s.Relationships[Pair{owner, other}]; ok {
		return r
	}
	return social.Neutral(owner, other)
}

// Speaker returns the participant whose turn it is.
func (s Snapshot) Speaker() Participant {
	if len(s.Participants) == 0 {
		return Participant{}
	}
	return s.Participants[s.Next%len(s.Participants)]
}

// Listener returns the participant after the speaker.
func (s Snapshot) Listener() Participant {
	if len(s.Participants) == 0 {
		return Participant{}
	}
	return s.Participants[(s.Next+1)%len(s.Participants)]
}

// Move is one candidate utterance.
type Move struct {
	// ID references the template the move would speak.
	ID string

	Pool types.Pool

	// Effects change the listener's view of the speaker.
	Effects []social.StatDelta

	// Topic switches the thread when not empty.
	Topic string

	// Ends finishes the conversation.
	Ends bool
}

// Simulate returns the snapshot after the next speaker plays m. s is not
// modified.
func Simulate(s Snapshot, m Move) Snapshot {
	c := s.Clone()
	if len(c.Participants) < 2 {
		c.Turn++
		return c
	}
	si := c.Next % len(c.Participants)
	li := (si + 1) % len(c.Participants)
	speaker, listener := c.Participants[si], c.Participants[li]

	view := c.Relationship(listener.ID, speaker.ID)
	view, _ = social.ApplyDeltas(view, m.Effects, "simulated", c.Turn)
	view, _ = social.ModifyStat(view, types.StatFamiliarity, 1, "simulated", c.Turn)
	c.Relationships[Pair{listener.ID, speaker.ID}] = social.RecordInteraction(view, c.Turn)

	back := c.Relationship(speaker.ID, listener.ID)
	back, _ = social.ModifyStat(back, types.StatFamiliarity, 1, "simulated", c.Turn)
	c.Relationships[Pair{speaker.ID, listener.ID}] = social.RecordInteraction(back, c.Turn)

	if ev, ok := behavior.EventForPool(m.Pool); ok {
		c.Participants[li].Behavior, _ = behavior.Transition(listener.Behavior, ev)
	}

	if m.Topic != "" {
		c.Thread = conversation.SwitchTopic(c.Thread, m.Topic)
	}
	c.Thread = conversation.Advance(c.Thread)
	if m.Ends {
		c.Thread = conversation.End(c.Thread)
	}

	c.Next = li
	c.Turn++
	return c
}

// MoveGenerator proposes the candidate moves for whoever speaks next in a
// snapshot. Implementations must return moves in a deterministic order.
type MoveGenerator interface {
	Moves(s Snapshot) []Move
}

// MoveFunc adapts a function to [MoveGenerator].
type MoveFunc func(s Snapshot) []Move

// Moves calls f(s).
func (f MoveFunc) Moves(s Snapshot) []Move { return f(s) }
