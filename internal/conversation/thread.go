// Package conversation tracks the topical state of an ongoing exchange
// between two parties.
package conversation

import (
	"maps"
	"slices"

	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

const (
	// HistoryLimit bounds the number of past topics remembered.
	HistoryLimit = 8

	// ExhaustionLimit is the number of turns after which a topic is considered
	// talked out.
	ExhaustionLimit = 5
)

// DefaultTopic is the topic of a fresh thread.
const DefaultTopic = "smalltalk"

// Thread is the state of one conversation. It is a value: the mutating
// functions return a new Thread and never touch the maps of their input.
type Thread struct {
	Topic string

	// History holds previous topics, oldest first, at most HistoryLimit long.
	History []string

	// Depth is the number of turns spent on the current topic.
	Depth int

	// Affinity is each participant's interest in the current topic, -1..1.
	Affinity map[types.NPCID]float64

	// Exhaustion counts turns spent per topic across the whole thread.
	Exhaustion map[string]int

	// Turns counts every turn in the thread.
	Turns int

	Ended bool
}

// New starts a thread on topic. An empty topic uses DefaultTopic.
func New(topic string) Thread {
	if topic == "" {
		topic = DefaultTopic
	}
	return Thread{Topic: topic}
}

// Clone returns a copy that shares no maps or slices with t.
func (t Thread) Clone() Thread {
	t.History = slices.Clone(t.History)
	t.Affinity = maps.Clone(t.Affinity)
	t.Exhaustion = maps.Clone(t.Exhaustion)
	return t
}

// Advance records one more turn on the current topic.
func Advance(t Thread) Thread {
	t = t.Clone()
	t.Depth++
	t.Turns++
	if t.Exhaustion == nil {
		t.Exhaustion = make(map[string]int)
	}
	t.Exhaustion[t.Topic]++
	return t
}

// SwitchTopic moves the thread to topic, pushing the current one onto the
// history. Switching to the current topic is a no-op.
func SwitchTopic(t Thread, topic string) Thread {
	if topic == "" || topic == t.Topic {
		return t
	}
	t = t.Clone()
	t.History = append(t.History, t.Topic)
	if len(t.History) > HistoryLimit {
		t.History = t.History[len(t.History)-HistoryLimit:]
	}
	t.Topic = topic
	t.Depth = 0
	t.Affinity = nil
	return t
}

// SetAffinity records how interested id is in the current topic. Values are
// clamped to -1..1.
func SetAffinity(t Thread, id types.NPCID, v float64) Thread {
	t = t.Clone()
	if t.Affinity == nil {
		t.Affinity = make(map[types.NPCID]float64)
	}
	t.Affinity[id] = max(-1, min(1, v))
	return t
}

// End marks the thread finished.
func End(t Thread) Thread {
	t = t.Clone()
	t.Ended = true
	return t
}

// IsExhausted reports whether topic has been discussed for ExhaustionLimit
// turns or more.
func (t Thread) IsExhausted(topic string) bool {
	return t.Exhaustion[topic] >= ExhaustionLimit
}

// Discussed reports whether topic is the current topic or in the history.
func (t Thread) Discussed(topic string) bool {
	return t.Topic == topic || slices.Contains(t.History, topic)
}
