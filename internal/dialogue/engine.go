// Package dialogue runs single conversational turns against a [world.World].
//
// The [Engine] wraps the response selector with everything a turn does to the
// world: relationship effects, memories, behavioural transitions, the
// conversation thread and the turn counter. Every entry point returns a new
// World and an [types.InteractionTurn] describing what happened; the input
// World is never modified.
package dialogue

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/conversation"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/intent"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/npc"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/observe"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/selector"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/world"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/memory"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// playerIdentity is assumed for [types.PlayerID], which never appears in a roster.
var playerIdentity = types.NPCIdentity{ID: types.PlayerID, Category: types.CategoryTraveler, DisplayName: "Player"}

// Option configures an [Engine].
type Option func(*Engine)

// WithMetrics sets the metrics the engine records to. The default is
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine executes conversational turns. It holds no per-conversation state and
// is safe for concurrent use as long as the selector is.
type Engine struct {
	registry *npc.Registry
	detector *intent.Detector
	selector *selector.Selector
	metrics  *observe.Metrics
}

// New returns an engine. A nil detector uses [intent.NewDetector] defaults.
func New(registry *npc.Registry, detector *intent.Detector, sel *selector.Selector, opts ...Option) *Engine {
	if detector == nil {
		detector = intent.NewDetector()
	}
	if registry == nil {
		registry, _ = npc.NewRegistry()
	}
	e := &Engine{
		registry: registry,
		detector: detector,
		selector: sel,
	}
	for _, o := range opts {
		o(e)
	}
	if e.metrics == nil {
		e.metrics = observe.DefaultMetrics()
	}
	return e
}

// Registry returns the roster the engine resolves identities from.
func (e *Engine) Registry() *npc.Registry { return e.registry }

// PlayerInput is one message from the player to an NPC.
type PlayerInput struct {
	NPC     types.NPCID
	Text    string
	Context types.SimulationContext
}

// Exchange describes one NPC-initiated turn.
type Exchange struct {
	Speaker  types.NPCID
	Listener types.NPCID
	Pool     types.Pool

	// Intent is the detected player intent the speaker answers, if any.
	Intent  string
	Context types.SimulationContext
}

// Respond classifies the player's text, lets it colour the NPC's view of the
// player and answers with a line from the matching pool.
func (e *Engine) Respond(ctx context.Context, w world.World, in PlayerInput, r *rng.Rng) (world.World, types.InteractionTurn) {
	res := e.detector.Detect(in.Text)
	e.metrics.RecordIntent(ctx, string(res.Intent))

	turn := turnOf(w, in.Context)
	view := w.Relationship(in.NPC, types.PlayerID)
	view, changes := social.ApplyDeltas(view, Impact(res.Intent), "player "+string(res.Intent), turn)
	w = w.WithRelationship(view)

	if imp, ok := intentImpressions[res.Intent]; ok {
		var ev memory.Eviction
		w, ev = w.Remember(in.NPC, imp.event(types.PlayerID, turn))
		e.recordEviction(ctx, ev)
	}

	w, it := e.Exchange(ctx, w, Exchange{
		Speaker:  in.NPC,
		Listener: types.PlayerID,
		Pool:     res.Pool,
		Intent:   string(res.Intent),
		Context:  in.Context,
	}, r)
	it.Changes = append(changes, it.Changes...)
	return w, it
}

// Exchange runs one turn in which x.Speaker addresses x.Listener with a line
// from x.Pool. It always produces a turn; unknown speakers are treated as
// wanderers and answered from the generic templates when nothing else applies.
func (e *Engine) Exchange(ctx context.Context, w world.World, x Exchange, r *rng.Rng) (world.World, types.InteractionTurn) {
	turn := turnOf(w, x.Context)
	ctx, span := observe.StartSpan(ctx, observe.SpanExchange, observe.TurnAttrs(x.Speaker, x.Listener, turn)...)
	defer span.End()
	start := time.Now()

	speaker := e.definition(x.Speaker)
	listener := e.definition(x.Listener)
	situation := social.SituationFrom(x.Context)

	forward := w.Relationship(x.Speaker, x.Listener)
	reverse := w.Relationship(x.Listener, x.Speaker)
	prevMood := social.DeriveMood(forward, situation)
	thread := w.Thread(x.Speaker, x.Listener)

	sel := e.selector.Select(ctx, selector.Request{
		Speaker:           speaker.Identity(),
		Listener:          listener.Identity(),
		Pool:              x.Pool,
		Mood:              prevMood,
		Behavior:          w.Behavior(x.Speaker),
		ListenerBehavior:  w.Behavior(x.Listener),
		Relationship:      forward,
		Reverse:           reverse,
		Objective:         speaker.Objective,
		ListenerObjective: listener.Objective,
		Thread:            thread,
		Turn:              turn,
		Domain:            x.Context.Domain,
		Intent:            x.Intent,
	}, r)
	tmpl := sel.Template
	reason := "template " + tmpl.ID

	// The listener's view of the speaker takes the line's effects.
	reverse, changes := social.ApplyDeltas(reverse, tmpl.Effects, reason, turn)
	var ch types.ObservedStatChange
	reverse, ch = social.ModifyStat(reverse, types.StatFamiliarity, 1, "conversation", turn)
	changes = append(changes, ch)
	forward, ch = social.ModifyStat(forward, types.StatFamiliarity, 1, "conversation", turn)
	changes = append(changes, ch)
	forward = social.RecordInteraction(forward, turn)
	reverse = social.RecordInteraction(reverse, turn)
	w = w.WithRelationship(forward).WithRelationship(reverse)

	imp := poolMemory(tmpl.Pool)
	for _, p := range [][2]types.NPCID{{x.Speaker, x.Listener}, {x.Listener, x.Speaker}} {
		var ev memory.Eviction
		w, ev = w.Remember(p[0], imp.event(p[1], turn))
		e.recordEviction(ctx, ev)
	}

	w = e.applyGameEvents(ctx, w, x, turn)
	w = applyBehavior(w, x.Speaker, x.Listener, tmpl.Pool)
	w = w.WithThread(x.Speaker, x.Listener, advanceThread(thread, tmpl, speaker))
	w = w.Advance()

	it := types.InteractionTurn{
		Turn:         turn,
		Speaker:      x.Speaker,
		Listener:     x.Listener,
		Intent:       x.Intent,
		Pool:         x.Pool,
		ResponseID:   tmpl.ID,
		Source:       sel.Source,
		Confidence:   sel.Confidence,
		PreviousMood: prevMood,
		Mood:         social.DeriveMood(forward, situation),
		Changes:      changes,
	}

	e.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("source", string(sel.Source)), observe.Attr("pool", string(x.Pool))))
	span.SetAttributes(
		attribute.String("dialogue.response", tmpl.ID),
		attribute.String("dialogue.mood", string(it.Mood)),
	)
	observe.Logger(ctx).Debug("dialogue turn",
		slog.Int64("turn", turn),
		slog.String("speaker", string(x.Speaker)),
		slog.String("listener", string(x.Listener)),
		slog.String("response", tmpl.ID),
		slog.String("mood", string(it.Mood)),
	)
	return w, it
}

// definition resolves id against the roster. The player and unknown ids get
// a neutral stand-in.
func (e *Engine) definition(id types.NPCID) npc.Definition {
	if id == types.PlayerID {
		return npc.Definition{ID: id, Name: playerIdentity.DisplayName, Category: playerIdentity.Category}
	}
	return e.registry.Lookup(id)
}

func (e *Engine) recordEviction(ctx context.Context, ev memory.Eviction) {
	if ev.Evicted {
		e.metrics.MemoryEvictions.Add(ctx, 1)
	}
}

// turnOf returns the caller's turn when set and the world turn otherwise.
func turnOf(w world.World, sc types.SimulationContext) int64 {
	if sc.Turn > 0 {
		return sc.Turn
	}
	return w.Turn
}

// applyBehavior moves the listener through the event implied by pool. Greetings,
// farewells and trades are mutual, so the speaker moves too. A reaction calms
// the listener, which is the way out of hostility and flight short of a rescue.
func applyBehavior(w world.World, speaker, listener types.NPCID, pool types.Pool) world.World {
	ev, ok := behavior.EventForPool(pool)
	if !ok {
		return w
	}
	if next, ok := behavior.Transition(w.Behavior(listener), ev); ok {
		w = w.WithBehavior(listener, next)
	}
	switch ev {
	case behavior.Greet, behavior.Farewell, behavior.Trade:
		if next, ok := behavior.Transition(w.Behavior(speaker), ev); ok {
			w = w.WithBehavior(speaker, next)
		}
	}
	return w
}

// rescueMagnitude is how strongly a rescue is remembered.
const rescueMagnitude = 60

// applyGameEvents feeds the game events of the current turn to both
// participants. Events stamped with an earlier or later turn are history and
// are ignored. A rescue is also remembered by every NPC present, with the
// other party as the rescuer.
func (e *Engine) applyGameEvents(ctx context.Context, w world.World, x Exchange, turn int64) world.World {
	for _, ge := range x.Context.Events {
		if ge.Turn != 0 && ge.Turn != turn {
			continue
		}
		ev, ok := behavior.EventForGame(ge.Kind)
		if !ok {
			continue
		}
		for _, p := range [][2]types.NPCID{{x.Speaker, x.Listener}, {x.Listener, x.Speaker}} {
			if p[0] == types.PlayerID {
				continue
			}
			if next, ok := behavior.Transition(w.Behavior(p[0]), ev); ok {
				w = w.WithBehavior(p[0], next)
			}
			if ge.Kind == types.GameEventRescue {
				var evict memory.Eviction
				w, evict = w.Remember(p[0], memory.NewEvent(memory.KindRescue, rescueMagnitude, p[1], turn))
				e.recordEviction(ctx, evict)
			}
		}
	}
	return w
}

func advanceThread(t conversation.Thread, tmpl selector.Template, speaker npc.Definition) conversation.Thread {
	t = conversation.SwitchTopic(t, tmpl.Topic)
	t = conversation.Advance(t)
	affinity := -0.25
	if slices.Contains(speaker.Topics, t.Topic) {
		affinity = 1
	}
	t = conversation.SetAffinity(t, speaker.ID, affinity)
	if tmpl.EndsConversation {
		t = conversation.End(t)
	}
	return t
}
