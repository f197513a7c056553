package selector

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/behavior"
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/social"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// GenericPrefix starts the id of every built-in generic template.
const GenericPrefix = "generic."

// GenericFallbackID is the template used when nothing else applies, including
// for unknown pools.
const GenericFallbackID = GenericPrefix + "fallback"

// ErrDuplicateTemplate is returned when two templates share an id.
var ErrDuplicateTemplate = errors.New("selector: duplicate template id")

// StatRange bounds one stat of the speaker's relationship with the listener.
// Nil bounds are open.
type StatRange struct {
	Stat types.StatKey `yaml:"stat"`
	Min  *float64      `yaml:"min,omitempty"`
	Max  *float64      `yaml:"max,omitempty"`
}

// Contains reports whether r satisfies the range.
func (sr StatRange) Contains(r social.Relationship) bool {
	v := r.Get(sr.Stat)
	if sr.Min != nil && v < *sr.Min {
		return false
	}
	if sr.Max != nil && v > *sr.Max {
		return false
	}
	return true
}

// Conditions restrict when a template may be spoken. Empty lists do not
// restrict.
type Conditions struct {
	Moods     []types.Mood     `yaml:"moods,omitempty"`
	Behaviors []behavior.State `yaml:"behaviors,omitempty"`
	Stats     []StatRange      `yaml:"stats,omitempty"`
}

// Template is an authored response. The line itself lives in the content
// layer; the selector only deals in ids and effects.
//
// Example:
//
//	- id: stitch-up-girl.greeting.warm
//	  pool: greeting
//	  npcs: [stitch-up-girl]
//	  conditions:
//	    moods: [happy, friendly]
//	    stats:
//	      - {stat: trust, min: 20}
//	  weight: 2
//	  effects:
//	    - {stat: affection, delta: 2}
type Template struct {
	ID   string     `yaml:"id"`
	Pool types.Pool `yaml:"pool"`

	// NPCs restricts the template to these speakers.
	NPCs []types.NPCID `yaml:"npcs,omitempty"`

	// Categories restricts the template to speakers of these categories.
	Categories []types.Category `yaml:"categories,omitempty"`

	Conditions Conditions `yaml:"conditions,omitempty"`

	// Weight is the base weight for random selection. Zero means 1.
	Weight float64 `yaml:"weight,omitempty"`

	// Effects change the listener's view of the speaker.
	Effects []social.StatDelta `yaml:"effects,omitempty"`

	// Topic moves the conversation to a new topic when set.
	Topic string `yaml:"topic,omitempty"`

	EndsConversation bool `yaml:"ends_conversation,omitempty"`
}

// IsGeneric reports whether t is one of the built-in fallbacks.
func (t Template) IsGeneric() bool { return strings.HasPrefix(t.ID, GenericPrefix) }

func (t Template) weight() float64 {
	if t.Weight <= 0 {
		return 1
	}
	return t.Weight
}

// Candidate describes the speaker side of a selection for the applicability
// filter.
type Candidate struct {
	NPC      types.NPCID
	Category types.Category
	Mood     types.Mood
	Behavior behavior.State

	// Relationship is the speaker's view of the listener.
	Relationship social.Relationship
}

// Applicable reports whether t may be spoken by c.
func Applicable(t Template, c Candidate) bool {
	if len(t.NPCs) > 0 && !slices.Contains(t.NPCs, c.NPC) {
		return false
	}
	if len(t.Categories) > 0 && !slices.Contains(t.Categories, c.Category) {
		return false
	}
	if len(t.Conditions.Moods) > 0 && !slices.Contains(t.Conditions.Moods, c.Mood) {
		return false
	}
	if len(t.Conditions.Behaviors) > 0 && !slices.Contains(t.Conditions.Behaviors, c.Behavior) {
		return false
	}
	for _, sr := range t.Conditions.Stats {
		if !sr.Contains(c.Relationship) {
			return false
		}
	}
	return true
}

// Validate checks a template for required fields and known enum values.
func Validate(t Template) error {
	var errs []error

	if t.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if !t.Pool.IsValid() {
		errs = append(errs, fmt.Errorf("pool %q is not a recognised pool", t.Pool))
	}
	if t.Weight < 0 || math.IsNaN(t.Weight) || math.IsInf(t.Weight, 0) {
		errs = append(errs, fmt.Errorf("weight %v must be a finite, non-negative number", t.Weight))
	}
	for _, c := range t.Categories {
		if !c.IsValid() {
			errs = append(errs, fmt.Errorf("category %q is not a recognised category", c))
		}
	}
	for _, m := range t.Conditions.Moods {
		if !m.IsValid() {
			errs = append(errs, fmt.Errorf("mood %q is not a recognised mood", m))
		}
	}
	for _, b := range t.Conditions.Behaviors {
		if !b.IsValid() {
			errs = append(errs, fmt.Errorf("behavior %q is not a recognised state", b))
		}
	}
	for i, sr := range t.Conditions.Stats {
		if sr.Stat.Index() < 0 {
			errs = append(errs, fmt.Errorf("stats[%d]: unknown stat %q", i, sr.Stat))
		}
		for _, bound := range []*float64{sr.Min, sr.Max} {
			if bound != nil && math.IsNaN(*bound) {
				errs = append(errs, fmt.Errorf("stats[%d]: bound must be a number", i))
			}
		}
		if sr.Min != nil && sr.Max != nil && *sr.Min > *sr.Max {
			errs = append(errs, fmt.Errorf("stats[%d]: min %v exceeds max %v", i, *sr.Min, *sr.Max))
		}
	}
	for i, e := range t.Effects {
		if e.Stat.Index() < 0 {
			errs = append(errs, fmt.Errorf("effects[%d]: unknown stat %q", i, e.Stat))
		}
		if math.IsNaN(e.Delta) || math.IsInf(e.Delta, 0) {
			errs = append(errs, fmt.Errorf("effects[%d]: delta %v must be finite", i, e.Delta))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// Library is the immutable set of templates known to the selector. It always
// contains a generic template for every pool.
type Library struct {
	byID   map[string]Template
	byPool map[types.Pool][]Template
}

// NewLibrary validates templates and returns a library holding them together
// with the generic fallbacks. A template whose id collides with a built-in
// generic replaces it.
func NewLibrary(templates ...Template) (*Library, error) {
	lib := &Library{
		byID:   make(map[string]Template, len(templates)+len(types.Pools)+1),
		byPool: make(map[types.Pool][]Template),
	}

	var errs []error
	for _, t := range templates {
		if err := Validate(t); err != nil {
			errs = append(errs, fmt.Errorf("template %q: %w", t.ID, err))
			continue
		}
		if _, dup := lib.byID[t.ID]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateTemplate, t.ID))
			continue
		}
		lib.byID[t.ID] = t
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, g := range genericTemplates() {
		if _, ok := lib.byID[g.ID]; !ok {
			lib.byID[g.ID] = g
		}
	}
	for _, t := range lib.byID {
		if !t.IsGeneric() {
			lib.byPool[t.Pool] = append(lib.byPool[t.Pool], t)
		}
	}
	for p := range lib.byPool {
		slices.SortFunc(lib.byPool[p], func(a, b Template) int { return strings.Compare(a.ID, b.ID) })
	}
	return lib, nil
}

func genericTemplates() []Template {
	out := make([]Template, 0, len(types.Pools)+1)
	for _, p := range types.Pools {
		out = append(out, Template{
			ID:               GenericPrefix + string(p),
			Pool:             p,
			EndsConversation: p == types.PoolFarewell,
		})
	}
	return append(out, Template{ID: GenericFallbackID, Pool: types.PoolIdle})
}

// Pool returns the authored templates of p sorted by id. Generic templates are
// not included.
func (l *Library) Pool(p types.Pool) []Template {
	return slices.Clone(l.byPool[p])
}

// Template returns the template with the given id.
func (l *Library) Template(id string) (Template, bool) {
	t, ok := l.byID[id]
	return t, ok
}

// Generic returns the generic template for p, or the catch-all fallback.
func (l *Library) Generic(p types.Pool) Template {
	if t, ok := l.byID[GenericPrefix+string(p)]; ok && p.IsValid() {
		return t
	}
	return l.byID[GenericFallbackID]
}

// Len returns the number of authored templates.
func (l *Library) Len() int {
	n := 0
	for _, ts := range l.byPool {
		n += len(ts)
	}
	return n
}

// LibraryFile is the top-level structure of a template YAML file.
type LibraryFile struct {
	Templates []Template `yaml:"templates"`
}

// LoadLibraryFile reads and parses a template YAML file from disk.
func LoadLibraryFile(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("selector: open template file %q: %w", path, err)
	}
	defer f.Close()

	lib, err := LoadLibrary(f)
	if err != nil {
		return nil, fmt.Errorf("selector: parse template file %q: %w", path, err)
	}
	return lib, nil
}

// LoadLibrary parses template YAML from an [io.Reader] and builds a library.
func LoadLibrary(r io.Reader) (*Library, error) {
	var lf LibraryFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("selector: decode template yaml: %w", err)
	}
	return NewLibrary(lf.Templates...)
}
