package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Defaults for [NewDetector].
const (
	DefaultMaxInputBytes = 512
	DefaultMaxRun        = 12
	DefaultMaxTokens     = 64
)

// Option is a functional option for configuring a [Detector].
type Option func(*Detector)

// WithMaxInputBytes sets the input length above which every message is
// classified as Unknown without being examined. Default: 512.
func WithMaxInputBytes(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxInputBytes = n
		}
	}
}

// WithMaxRun sets the longest run of one repeated character tolerated before a
// message is treated as adversarial noise. Default: 12.
func WithMaxRun(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxRun = n
		}
	}
}

// WithMaxTokens caps the number of tokens examined. Default: 64.
func WithMaxTokens(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxTokens = n
		}
	}
}

// WithFuzzy enables or disables misspelling-tolerant keyword matching.
// Default: enabled.
func WithFuzzy(enabled bool) Option {
	return func(d *Detector) {
		d.fuzzy = enabled
	}
}

// Detector classifies messages. It is read-only after construction and safe
// for concurrent use.
type Detector struct {
	maxInputBytes int
	maxRun        int
	maxTokens     int
	fuzzy         bool

	lx      *lexicon
	matcher *fuzzyMatcher
}

// NewDetector returns a Detector configured with opts.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		maxInputBytes: DefaultMaxInputBytes,
		maxRun:        DefaultMaxRun,
		maxTokens:     DefaultMaxTokens,
		fuzzy:         true,
		lx:            defaultLexicon,
	}
	for _, o := range opts {
		o(d)
	}
	if d.fuzzy {
		d.matcher = newFuzzyMatcher(d.lx.vocabulary)
	}
	return d
}

// Detect classifies text. It never fails: malformed, oversized or
// unrecognised input yields [Unknown].
//
// Classification order:
//
//  1. Input longer than the byte cap → Unknown.
//  2. Input containing a run of one character longer than the run cap → Unknown.
//  3. Unicode normalisation (NFKC) and case folding.
//  4. Tokenisation into at most the token cap of words.
//  5. Phrase lookup over token n-grams, keyword lookup per token, and fuzzy
//     keyword matching for unrecognised tokens.
//  6. A trailing question mark adds weight to Question.
//  7. The highest score wins; ties go to the more hostile intent.
func (d *Detector) Detect(text string) Result {
	if len(text) == 0 || len(text) > d.maxInputBytes {
		return unknown()
	}
	if !utf8.ValidString(text) || longestRun(text) > d.maxRun {
		return unknown()
	}

	folded := cases.Fold().String(norm.NFKC.String(text))
	tokens := tokenize(folded, d.maxTokens)
	if len(tokens) == 0 {
		return unknown()
	}

	scores := make(map[Intent]float64)
	matched := make(map[Intent][]string)
	add := func(h []hit, label string, scale float64) {
		for _, x := range h {
			scores[x.intent] += x.weight * scale
			matched[x.intent] = append(matched[x.intent], label)
		}
	}

	for n := 2; n <= d.lx.maxPhrase; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			p := strings.Join(tokens[i:i+n], " ")
			if h, ok := d.lx.phrases[p]; ok {
				add(h, p, 1)
			}
		}
	}
	for _, tok := range tokens {
		if h, ok := d.lx.words[tok]; ok {
			add(h, tok, 1)
			continue
		}
		if d.matcher == nil {
			continue
		}
		if kw, score, ok := d.matcher.match(tok); ok {
			add(d.lx.words[kw], kw, fuzzyWeight*score)
		}
	}
	if strings.HasSuffix(strings.TrimSpace(folded), "?") {
		scores[Question] += questionMark
		matched[Question] = append(matched[Question], "?")
	}

	var (
		best  = Unknown
		total float64
	)
	for _, in := range priority {
		s := scores[in]
		total += s
		if s > scores[best] || (s > 0 && s == scores[best] && rank(in) > rank(best)) {
			best = in
		}
	}
	if best == Unknown || total == 0 {
		return unknown()
	}
	return Result{
		Intent:     best,
		Pool:       best.Pool(),
		Confidence: scores[best] / total,
		Matched:    matched[best],
	}
}

// longestRun returns the length of the longest run of one repeated rune,
// ignoring spaces.
func longestRun(s string) int {
	var (
		prev    rune = -1
		run     int
		longest int
	)
	for _, r := range s {
		if r == prev && r != ' ' {
			run++
		} else {
			run = 1
		}
		prev = r
		longest = max(longest, run)
	}
	return longest
}

// tokenize splits s into words of letters and digits. Apostrophes inside a
// word are dropped so that "what's" becomes "whats". At most limit tokens are
// returned.
func tokenize(s string, limit int) []string {
	var (
		tokens []string
		b      strings.Builder
	)
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range s {
		if len(tokens) >= limit {
			return tokens
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
		default:
			flush()
		}
	}
	flush()
	if len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens
}
