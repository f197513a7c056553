// Package ambient runs NPC-to-NPC conversation with no player present.
//
// Each [Loop.Tick] picks a speaker and listener, lets them exchange one line
// through the dialogue engine and keeps the turn as a [Storyline] when it was
// interesting. Gossip between NPCs spreads beliefs about the player, so NPCs
// form an opinion of the player before ever meeting them.
//
// The loop holds configuration only. Everything it produces lives in the
// [State] it is handed and returns, so a simulation can be restarted from any
// persisted State.
package ambient

import (
	"context"
	"time"

	"github.com/ojrac/opensimplex-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/dialogue"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/npc"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/observe"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/world"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// Defaults for a [Loop].
const (
	DefaultInterestThreshold = 1.0
	DefaultSwingThreshold    = 8.0
	DefaultMaxStorylines     = 64
)

// State is everything the loop reads and writes.
type State struct {
	World     world.World
	Chronicle Chronicle
}

// TickResult describes one tick.
type TickResult struct {
	// Idle is true when fewer than two NPCs were available to talk.
	Idle bool

	Turn types.InteractionTurn

	// Storyline is set when the turn was retained.
	Storyline *Storyline

	// Rumour is true when the turn spread a belief about the player.
	Rumour bool

	// Decay holds the stat changes made by relationship decay before the
	// exchange, with reason "decay".
	Decay []types.ObservedStatChange
}

// Option configures a [Loop].
type Option func(*Loop)

// WithInterestThreshold sets the interest score a turn needs to become a
// storyline.
func WithInterestThreshold(v float64) Option {
	return func(l *Loop) {
		if v > 0 {
			l.interestThreshold = v
		}
	}
}

// WithSwingThreshold sets the total stat movement that makes a turn
// interesting on its own.
func WithSwingThreshold(v float64) Option {
	return func(l *Loop) {
		if v > 0 {
			l.swingThreshold = v
		}
	}
}

// WithMaxStorylines bounds the retained storylines. The oldest are dropped.
func WithMaxStorylines(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxStorylines = n
		}
	}
}

// WithSeed seeds the restlessness noise field.
func WithSeed(seed int64) Option {
	return func(l *Loop) { l.noise = opensimplex.NewNormalized(seed) }
}

// WithDecay lets every relationship fade by rate once every `every` turns.
// Zero disables decay.
func WithDecay(rate float64, every int) Option {
	return func(l *Loop) {
		l.decayRate = rate
		l.decayEvery = every
	}
}

// WithMetrics sets the metrics the loop records to.
func WithMetrics(m *observe.Metrics) Option {
	return func(l *Loop) { l.metrics = m }
}

// Loop drives ambient conversation.
type Loop struct {
	engine   *dialogue.Engine
	registry *npc.Registry

	interestThreshold float64
	swingThreshold    float64
	maxStorylines     int
	decayRate         float64
	decayEvery        int

	noise   opensimplex.Noise
	metrics *observe.Metrics
}

// New returns a loop over the NPCs of registry.
func New(engine *dialogue.Engine, registry *npc.Registry, opts ...Option) *Loop {
	l := &Loop{
		engine:            engine,
		registry:          registry,
		interestThreshold: DefaultInterestThreshold,
		swingThreshold:    DefaultSwingThreshold,
		maxStorylines:     DefaultMaxStorylines,
	}
	for _, o := range opts {
		o(l)
	}
	if l.noise == nil {
		l.noise = opensimplex.NewNormalized(0)
	}
	if l.metrics == nil {
		l.metrics = observe.DefaultMetrics()
	}
	return l
}

// Tune returns a copy of l with new thresholds. Zero values keep the current
// setting.
func (l *Loop) Tune(interest, swing float64, maxStorylines int) *Loop {
	c := *l
	WithInterestThreshold(interest)(&c)
	WithSwingThreshold(swing)(&c)
	WithMaxStorylines(maxStorylines)(&c)
	return &c
}

// Tick advances the simulation by one conversational turn. Each tick draws
// once from r and feeds pair choice, pool choice and the exchange from
// separate sub-streams of that draw.
func (l *Loop) Tick(ctx context.Context, s State, r *rng.Rng) (State, TickResult) {
	ctx, span := observe.StartSpan(ctx, observe.SpanTick, observe.TickAttrs(s.World.Turn, l.registry.Len())...)
	defer span.End()

	tick := r.Fork()
	var decayed []types.ObservedStatChange
	s.World, decayed = l.decay(s.World)

	speaker, listener, ok := l.pickPair(s.World, tick.Namespace("ambient.pair"))
	if !ok {
		span.SetAttributes(attribute.Bool("ambient.idle", true))
		return s, TickResult{Idle: true, Decay: decayed}
	}
	def := l.registry.Lookup(speaker)
	pool := choosePool(s.World, def, listener, s.Chronicle, tick.Namespace("ambient.pool"))

	before := s.World
	w, it := l.engine.Exchange(ctx, before, dialogue.Exchange{
		Speaker:  speaker,
		Listener: listener,
		Pool:     pool,
	}, tick.Namespace("dialogue"))
	s.World = w
	l.metrics.AmbientTicks.Add(ctx, 1)

	res := TickResult{Turn: it, Decay: decayed}
	if it.Pool == types.PoolGossip {
		s.Chronicle, res.Rumour = spreadRumour(s.Chronicle, w, speaker, listener, it.Turn)
	}

	a := l.assess(before, w, it, def.Objective)
	if a.interest >= l.interestThreshold {
		st := Storyline{
			ID:       storylineID(it.Turn, speaker, listener),
			Turn:     it.Turn,
			Speaker:  speaker,
			Listener: listener,
			Pool:     it.Pool,
			Response: it.ResponseID,
			Reasons:  a.reasons,
			Interest: a.interest,
			Swing:    a.swing,
			Kinds:    a.kinds,
		}
		s.Chronicle = s.Chronicle.withStoryline(st, l.maxStorylines)
		res.Storyline = &st
		l.metrics.Storylines.Add(ctx, 1)
		observe.Logger(ctx).Info("storyline recorded",
			"id", st.ID,
			"turn", st.Turn,
			"speaker", speaker,
			"listener", listener,
			"interest", st.Interest,
		)
	}

	span.SetAttributes(
		attribute.String("ambient.speaker", string(speaker)),
		attribute.String("ambient.listener", string(listener)),
		attribute.String("ambient.pool", string(pool)),
	)
	return s, res
}

// decay fades every relationship when the turn is due and returns the
// resulting stat changes.
func (l *Loop) decay(w world.World) (world.World, []types.ObservedStatChange) {
	if l.decayEvery <= 0 || l.decayRate <= 0 || w.Turn == 0 || w.Turn%int64(l.decayEvery) != 0 {
		return w, nil
	}
	var all []types.ObservedStatChange
	for _, rel := range w.Ledger.All() {
		next, changes := social.Decay(rel, l.decayEvery, l.decayRate, w.Turn)
		if len(changes) > 0 {
			w = w.WithRelationship(next)
			all = append(all, changes...)
		}
	}
	return w, all
}

// Budget bounds a [Loop.Run]. Zero fields do not bound.
type Budget struct {
	MaxTicks int
	Deadline time.Time
}

// StopReason says why a run ended.
type StopReason string

const (
	StopTicks     StopReason = "ticks"
	StopDeadline  StopReason = "deadline"
	StopCancelled StopReason = "cancelled"
	StopIdle      StopReason = "idle"
)

// Report summarises a run.
type Report struct {
	Ticks      int
	Storylines int
	Rumours    int
	Reason     StopReason
	Elapsed    time.Duration
}

// Run ticks until the budget is spent, ctx is done, or no pair can talk. A run
// without MaxTicks or Deadline runs until ctx is done.
func (l *Loop) Run(ctx context.Context, s State, r *rng.Rng, b Budget) (State, Report) {
	start := time.Now()
	var rep Report
	for {
		switch {
		case b.MaxTicks > 0 && rep.Ticks >= b.MaxTicks:
			rep.Reason = StopTicks
		case !b.Deadline.IsZero() && !time.Now().Before(b.Deadline):
			rep.Reason = StopDeadline
		case ctx.Err() != nil:
			rep.Reason = StopCancelled
		}
		if rep.Reason != "" {
			break
		}

		var res TickResult
		s, res = l.Tick(ctx, s, r)
		if res.Idle {
			rep.Reason = StopIdle
			break
		}
		rep.Ticks++
		if res.Storyline != nil {
			rep.Storylines++
		}
		if res.Rumour {
			rep.Rumours++
		}
	}
	rep.Elapsed = time.Since(start)
	return s, rep
}
