package conversation_test

import (
	"testing"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/conversation"
)

func TestAdvanceAndExhaustion(t *testing.T) {
	t.Parallel()

	th := conversation.New("")
	if th.Topic != conversation.DefaultTopic {
		t.Fatalf("Topic = %q, want default", th.Topic)
	}
	for i := 0; i < conversation.ExhaustionLimit; i++ {
		if th.IsExhausted(th.Topic) {
			t.Fatalf("exhausted after %d turns", i)
		}
		th = conversation.Advance(th)
	}
	if !th.IsExhausted(conversation.DefaultTopic) {
		t.Error("topic not exhausted at the limit")
	}
	if th.Depth != conversation.ExhaustionLimit || th.Turns != conversation.ExhaustionLimit {
		t.Errorf("Depth/Turns = %d/%d", th.Depth, th.Turns)
	}
}

func TestSwitchTopic(t *testing.T) {
	t.Parallel()

	th := conversation.Advance(conversation.New("weather"))
	th = conversation.SetAffinity(th, "keith", 0.5)
	th2 := conversation.SwitchTopic(th, "meteors")

	if th2.Topic != "meteors" || th2.Depth != 0 || th2.Affinity != nil {
		t.Errorf("after switch: %+v", th2)
	}
	if !th2.Discussed("weather") || th2.Discussed("dice") {
		t.Error("Discussed disagrees with history")
	}
	if th.Topic != "weather" || th.Affinity["keith"] != 0.5 {
		t.Error("SwitchTopic mutated its input")
	}
	if same := conversation.SwitchTopic(th2, "meteors"); same.Depth != th2.Depth || len(same.History) != 1 {
		t.Error("switching to the current topic changed the thread")
	}

	for i := 0; i < 20; i++ {
		th2 = conversation.SwitchTopic(th2, string(rune('a'+i)))
	}
	if len(th2.History) != conversation.HistoryLimit {
		t.Errorf("history len = %d, want %d", len(th2.History), conversation.HistoryLimit)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	t.Parallel()

	th := conversation.Advance(conversation.New("dice"))
	th = conversation.SetAffinity(th, "keith", 2)
	if th.Affinity["keith"] != 1 {
		t.Errorf("affinity = %v, want clamp to 1", th.Affinity["keith"])
	}

	c := th.Clone()
	c.Exhaustion["dice"] = 99
	c.Affinity["keith"] = -1
	if th.Exhaustion["dice"] != 1 || th.Affinity["keith"] != 1 {
		t.Error("clone aliases the original maps")
	}

	ended := conversation.End(th)
	if th.Ended || !ended.Ended {
		t.Error("End mutated its input or did not end")
	}
}
