package intent

import "github.com/antzucaro/matchr"

const (
	defaultPhoneticThreshold = 0.80
	defaultFuzzyThreshold    = 0.90

	fuzzyMinLen = 4
	fuzzyMaxLen = 16
)

// fuzzyMatcher maps a misspelled token to the closest lexicon keyword.
//
// Matching proceeds in two stages. Double Metaphone codes of the token are
// compared against the precomputed codes of every keyword; keywords that share
// a code are phonetic candidates and are accepted above the phonetic
// threshold. When no phonetic candidate qualifies, pure Jaro-Winkler
// similarity is tested against the higher fuzzy threshold.
//
// Tokens outside [fuzzyMinLen, fuzzyMaxLen] are never matched, so the cost per
// token is bounded by the (fixed) vocabulary size times a constant.
type fuzzyMatcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64

	vocabulary []string
	codes      []codePair
}

type codePair struct{ primary, secondary string }

func newFuzzyMatcher(vocabulary []string) *fuzzyMatcher {
	m := &fuzzyMatcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
		vocabulary:        vocabulary,
		codes:             make([]codePair, len(vocabulary)),
	}
	for i, w := range vocabulary {
		p, s := matchr.DoubleMetaphone(w)
		m.codes[i] = codePair{p, s}
	}
	return m
}

// match returns the keyword closest to token and its similarity.
func (m *fuzzyMatcher) match(token string) (keyword string, score float64, ok bool) {
	if len(token) < fuzzyMinLen || len(token) > fuzzyMaxLen {
		return "", 0, false
	}
	tp, ts := matchr.DoubleMetaphone(token)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)
	for i, w := range m.vocabulary {
		if len(w) < fuzzyMinLen {
			continue
		}
		jw := matchr.JaroWinkler(token, w, false)
		if overlaps(tp, ts, m.codes[i]) {
			if jw >= m.phoneticThreshold && (!bestPhonetic || jw > bestScore) {
				best, bestScore, bestPhonetic = w, jw, true
			}
		} else if !bestPhonetic && jw >= m.fuzzyThreshold && jw > bestScore {
			best, bestScore = w, jw
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, bestScore, true
}

func overlaps(p, s string, c codePair) bool {
	for _, a := range [2]string{p, s} {
		if a == "" {
			continue
		}
		if a == c.primary || a == c.secondary {
			return true
		}
	}
	return false
}
