// Package selector chooses a concrete response template for a conversational
// turn.
//
// Selection runs a fixed fallback chain. Authored templates are first
// filtered by their applicability conditions. The precomputed chatbase is
// consulted next and its hit is used when its confidence clears the
// threshold. High-stakes situations (an active objective, or tension above
// the threshold) are handed to the conversation search. Otherwise a weighted
// random choice is made, down-weighting templates the speaker used recently.
// When nothing applies the generic template of the pool is returned, so
// [Selector.Select] never comes back empty-handed.
//
// Selection has no effect on relationships or memories; the dialogue engine
// applies the chosen template's consequences.
package selector

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/chatbase"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/conversation"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/observe"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/search"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

const (
	defaultConfidenceThreshold = 0.6
	defaultTensionThreshold    = 60
)

// Tunables are the selector settings that may change while running.
type Tunables struct {
	// ConfidenceThreshold is the minimum chatbase confidence accepted.
	ConfidenceThreshold float64

	// TensionThreshold marks a situation as high-stakes.
	TensionThreshold float64

	// DiversityPenalty multiplies a template's weight once per recent use.
	DiversityPenalty float64

	// Budget bounds each conversation search. Its Deadline is ignored; use
	// SearchTimeout instead.
	Budget search.Budget

	// SearchTimeout adds a wall-clock bound to each search when positive.
	SearchTimeout time.Duration
}

// DefaultTunables returns the settings used when no option overrides them.
func DefaultTunables() Tunables {
	return Tunables{
		ConfidenceThreshold: defaultConfidenceThreshold,
		TensionThreshold:    defaultTensionThreshold,
		DiversityPenalty:    defaultDiversityPenalty,
		Budget:              search.DefaultBudget(),
	}
}

// Option configures a [Selector].
type Option func(*Selector)

// WithConfidenceThreshold sets the minimum chatbase confidence.
func WithConfidenceThreshold(v float64) Option {
	return func(s *Selector) { s.initial.ConfidenceThreshold = v }
}

// WithTensionThreshold sets the tension at which search is used.
func WithTensionThreshold(v float64) Option {
	return func(s *Selector) { s.initial.TensionThreshold = v }
}

// WithSearchBudget sets the budget of every conversation search. A positive
// timeout also bounds each search by wall-clock time, at the cost of
// reproducibility.
func WithSearchBudget(b search.Budget, timeout time.Duration) Option {
	return func(s *Selector) {
		s.initial.Budget = b
		s.initial.SearchTimeout = timeout
	}
}

// WithDiversity sets the usage window per NPC and the weight penalty applied
// per recent use. A zero window disables diversity weighting.
func WithDiversity(window int, penalty float64) Option {
	return func(s *Selector) {
		s.window = window
		s.initial.DiversityPenalty = penalty
	}
}

// WithMetrics sets the metrics recorder. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Selector) { s.metrics = m }
}

// Selector picks response templates. It is safe for concurrent use.
type Selector struct {
	lib   *Library
	index *chatbase.Index
	usage *UsageTracker

	metrics *observe.Metrics
	window  int
	initial Tunables
	tun     atomic.Pointer[Tunables]
}

// New returns a selector over lib. A nil index behaves like an empty chatbase.
func New(lib *Library, index *chatbase.Index, opts ...Option) *Selector {
	s := &Selector{
		lib:     lib,
		index:   index,
		window:  defaultDiversityWindow,
		initial: DefaultTunables(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.index == nil {
		s.index = chatbase.Empty()
	}
	s.usage = NewUsageTracker(s.window)
	t := s.initial
	s.tun.Store(&t)
	return s
}

// Library returns the template library.
func (s *Selector) Library() *Library { return s.lib }

// Usage returns the usage tracker.
func (s *Selector) Usage() *UsageTracker { return s.usage }

// Tunables returns the current settings.
func (s *Selector) Tunables() Tunables { return *s.tun.Load() }

// Tune replaces the current settings. Selections already running keep the
// settings they started with.
func (s *Selector) Tune(t Tunables) { s.tun.Store(&t) }

// Request describes the turn to select a response for.
type Request struct {
	Speaker  types.NPCIdentity
	Listener types.NPCIdentity

	Pool types.Pool

	// Mood is the speaker's mood towards the listener.
	Mood types.Mood

	Behavior         behavior.State
	ListenerBehavior behavior.State

	// Relationship is the speaker's view of the listener; Reverse is the
	// listener's view of the speaker.
	Relationship social.Relationship
	Reverse      social.Relationship

	Objective         types.Objective
	ListenerObjective types.Objective

	Thread conversation.Thread
	Turn   int64
	Domain string
	Intent string
}

func (req Request) candidate() Candidate {
	return Candidate{
		NPC:          req.Speaker.ID,
		Category:     req.Speaker.Category,
		Mood:         req.Mood,
		Behavior:     req.Behavior,
		Relationship: req.Relationship,
	}
}

// Selection is the outcome of [Selector.Select].
type Selection struct {
	Template   Template
	Source     types.SelectionSource
	Confidence float64

	// Key is the quantized situation used for the chatbase lookup.
	Key chatbase.ContextKey

	// Search is set when the conversation search was consulted.
	Search *search.Result
}

// Select picks a template for req. It always returns a selection. r advances
// by one draw; the chatbase lookup, the search and the weighted fallback each
// use their own sub-stream of it.
func (s *Selector) Select(ctx context.Context, req Request, r *rng.Rng) Selection {
	ctx, span := observe.StartSpan(ctx, observe.SpanSelect)
	defer span.End()

	tun := s.Tunables()
	sel := s.choose(ctx, req, r.Fork(), tun)

	s.usage.Record(req.Speaker.ID, sel.Template.ID)
	s.metrics.RecordSelection(ctx, string(sel.Source))
	span.SetAttributes(
		attribute.String("selection.source", string(sel.Source)),
		attribute.String("selection.template", sel.Template.ID),
	)
	observe.Logger(ctx).Debug("response selected",
		"speaker", req.Speaker.ID,
		"listener", req.Listener.ID,
		"pool", req.Pool,
		"template", sel.Template.ID,
		"source", sel.Source,
		"confidence", sel.Confidence,
	)
	return sel
}

func (s *Selector) choose(ctx context.Context, req Request, r *rng.Rng, tun Tunables) Selection {
	key := chatbase.Quantize(req.Pool, req.Mood, req.Relationship, req.Thread.Depth)

	var candidates []Template
	c := req.candidate()
	for _, t := range s.lib.Pool(req.Pool) {
		if Applicable(t, c) {
			candidates = append(candidates, t)
		}
	}

	if sel, ok := s.fromChatbase(ctx, req, key, r.Namespace("chatbase"), tun); ok {
		return sel
	}

	if len(candidates) > 0 && s.highStakes(req, tun) {
		res := s.search(ctx, req, candidates, r.Namespace("search"), tun)
		if res.OK {
			if t, ok := s.lib.Template(res.Move.ID); ok {
				return Selection{Template: t, Source: types.SourceSearch, Confidence: res.Score, Key: key, Search: &res}
			}
		}
	}

	if len(candidates) > 0 {
		weighted := make([]rng.Weighted[Template], len(candidates))
		var total float64
		for i, t := range candidates {
			w := t.weight() * math.Pow(tun.DiversityPenalty, float64(s.usage.Count(req.Speaker.ID, t.ID)))
			weighted[i] = rng.Weighted[Template]{Item: t, Weight: w}
			total += w
		}
		if t, ok := rng.WeightedChoice(r.Namespace("random"), weighted); ok {
			conf := 1 / float64(len(candidates))
			if total > 0 {
				conf = weightOf(weighted, t.ID) / total
			}
			return Selection{Template: t, Source: types.SourceRandom, Confidence: conf, Key: key}
		}
	}

	return Selection{Template: s.lib.Generic(req.Pool), Source: types.SourceGeneric, Key: key}
}

func weightOf(ws []rng.Weighted[Template], id string) float64 {
	for _, w := range ws {
		if w.Item.ID == id {
			return w.Weight
		}
	}
	return 0
}

func (s *Selector) fromChatbase(ctx context.Context, req Request, key chatbase.ContextKey, r *rng.Rng, tun Tunables) (Selection, bool) {
	hit, ok := s.index.Lookup(req.Speaker.ID, key, chatbase.LookupContext{
		Turn:     req.Turn,
		Domain:   req.Domain,
		Intent:   req.Intent,
		Behavior: req.Behavior,
	}, r)
	switch {
	case !ok:
		s.metrics.RecordChatbaseLookup(ctx, "miss")
		return Selection{}, false
	case hit.Confidence < tun.ConfidenceThreshold:
		s.metrics.RecordChatbaseLookup(ctx, "low_confidence")
		return Selection{}, false
	}
	s.metrics.RecordChatbaseLookup(ctx, "hit")

	t, known := s.lib.Template(hit.ResponseID)
	if !known {
		// Lines authored only in the chatbase carry no effects.
		t = Template{ID: hit.ResponseID, Pool: req.Pool}
	}
	return Selection{Template: t, Source: types.SourceChatbase, Confidence: hit.Confidence, Key: key}, true
}

func (s *Selector) highStakes(req Request, tun Tunables) bool {
	return req.Objective.Active() || req.Relationship.Get(types.StatTension) >= tun.TensionThreshold
}

func (s *Selector) search(ctx context.Context, req Request, candidates []Template, r *rng.Rng, tun Tunables) search.Result {
	ctx, span := observe.StartSpan(ctx, observe.SpanSearch, observe.SearchAttrs(len(candidates), tun.Budget.MaxIterations)...)
	defer span.End()

	parts := []search.Participant{
		{ID: req.Speaker.ID, Objective: req.Objective, Behavior: req.Behavior},
		{ID: req.Listener.ID, Objective: req.ListenerObjective, Behavior: req.ListenerBehavior},
	}
	rel := func(owner, other types.NPCID) social.Relationship {
		if owner == req.Speaker.ID {
			return req.Relationship
		}
		return req.Reverse
	}
	root := search.NewSnapshot(parts, rel, req.Thread, req.Turn, 0, r)
	gen := newTemplateMoves(s.lib, req, candidates)

	b := tun.Budget
	b.Deadline = time.Time{}
	if tun.SearchTimeout > 0 {
		b.Deadline = time.Now().Add(tun.SearchTimeout)
	}
	res := search.Search(root, gen, b, r)
	s.metrics.RecordSearch(ctx, res.Elapsed.Seconds(), res.Iterations, string(res.Reason))
	span.SetAttributes(
		attribute.Int("search.iterations", res.Iterations),
		attribute.String("search.reason", string(res.Reason)),
	)
	return res
}
