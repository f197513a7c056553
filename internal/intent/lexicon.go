package intent

import "strings"

// Match weights.
const (
	keywordWeight  = 1.0
	phraseWeight   = 2.0
	questionWeight = 0.5
	fuzzyWeight    = 0.6
	questionMark   = 1.0
)

var keywords = map[Intent][]string{
	Greeting: {"hello", "hi", "hey", "greetings", "howdy", "hail", "yo", "morning", "evening", "salutations"},
	Farewell: {"bye", "goodbye", "farewell", "later", "cya", "leaving", "adieu"},
	Insult: {
		"idiot", "fool", "stupid", "ugly", "loser", "pathetic", "worthless",
		"moron", "coward", "trash", "useless", "clown", "dumb",
	},
	Threat:     {"kill", "die", "destroy", "hurt", "crush", "burn", "murder", "threaten", "smash", "dead"},
	Compliment: {"great", "amazing", "wonderful", "beautiful", "brilliant", "awesome", "impressive", "nice", "clever", "thanks", "thank"},
	Request:    {"please", "help", "need", "give", "lend", "show", "teach"},
	Trade:      {"buy", "sell", "trade", "price", "cost", "gold", "coin", "coins", "wares", "shop", "deal", "offer", "barter"},
	Gossip:     {"rumor", "rumour", "rumors", "heard", "gossip", "news", "secret", "secrets", "whisper"},
	Apology:    {"sorry", "apologize", "apologise", "forgive", "regret", "apologies"},
}

var questionWords = []string{"what", "why", "how", "where", "who", "when", "which"}

var phrases = map[Intent][]string{
	Greeting:   {"good morning", "good evening", "well met", "how are you", "good day"},
	Farewell:   {"see you", "see ya", "take care", "so long", "i must go", "until next time"},
	Insult:     {"shut up", "get lost", "you suck"},
	Threat:     {"you will pay", "watch your back", "i will end you", "or else"},
	Compliment: {"well done", "good job", "thank you", "nice work"},
	Request:    {"can you", "could you", "would you", "i need", "help me"},
	Trade:      {"how much", "what do you sell", "for sale"},
	Gossip:     {"did you hear", "have you heard", "whats new", "any news"},
	Apology:    {"my bad", "forgive me", "my apologies", "i apologize"},
}

// hit is one lexicon entry.
type hit struct {
	intent Intent
	weight float64
}

// lexicon is the lookup form of the tables above. It is read-only after
// construction and shared by every Detector.
type lexicon struct {
	words     map[string][]hit
	phrases   map[string][]hit
	maxPhrase int

	// vocabulary lists every keyword once, sorted by intent table order, for
	// the fuzzy matcher.
	vocabulary []string
}

func buildLexicon() *lexicon {
	lx := &lexicon{
		words:   make(map[string][]hit),
		phrases: make(map[string][]hit),
	}
	for _, in := range priority {
		for _, w := range keywords[in] {
			lx.words[w] = append(lx.words[w], hit{intent: in, weight: keywordWeight})
			lx.vocabulary = append(lx.vocabulary, w)
		}
		for _, p := range phrases[in] {
			lx.phrases[p] = append(lx.phrases[p], hit{intent: in, weight: phraseWeight})
			lx.maxPhrase = max(lx.maxPhrase, len(strings.Fields(p)))
		}
	}
	for _, w := range questionWords {
		lx.words[w] = append(lx.words[w], hit{intent: Question, weight: questionWeight})
	}
	return lx
}

var defaultLexicon = buildLexicon()
