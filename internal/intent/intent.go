// Package intent classifies free-text player input into a coarse intent that
// selects a response template pool.
//
// Classification uses a single-pass tokenizer and map lookups over fixed
// keyword and phrase tables. No regular expressions are involved, so the work
// done for any input is linear in its length and bounded by the configured
// input cap. Input that is too long, dominated by repeated characters, or
// simply not recognised classifies as [Unknown].
package intent

import "github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"

// Intent is a coarse classification of a player message.
type Intent string

const (
	Greeting   Intent = "greeting"
	Farewell   Intent = "farewell"
	Insult     Intent = "insult"
	Threat     Intent = "threat"
	Compliment Intent = "compliment"
	Question   Intent = "question"
	Request    Intent = "request"
	Trade      Intent = "trade"
	Gossip     Intent = "gossip"
	Apology    Intent = "apology"
	Unknown    Intent = "unknown"
)

// priority orders intents for tie-breaking, highest first. Hostile intents win
// ties so that "hello, idiot" is not answered as a friendly greeting.
var priority = []Intent{
	Threat, Insult, Apology, Farewell, Greeting, Trade, Request, Gossip, Compliment, Question,
}

func rank(i Intent) int {
	for n, p := range priority {
		if p == i {
			return len(priority) - n
		}
	}
	return 0
}

// Pool returns the template pool an NPC answers this intent from.
func (i Intent) Pool() types.Pool {
	switch i {
	case Greeting:
		return types.PoolGreeting
	case Farewell:
		return types.PoolFarewell
	case Insult:
		return types.PoolTaunt
	case Threat:
		return types.PoolThreat
	case Compliment, Apology:
		return types.PoolReaction
	case Question:
		return types.PoolLore
	case Request:
		return types.PoolHint
	case Trade:
		return types.PoolTrade
	case Gossip:
		return types.PoolGossip
	default:
		return types.PoolIdle
	}
}

// Result is the outcome of classifying one message.
type Result struct {
	Intent Intent
	Pool   types.Pool

	// Confidence is the share of the total match score held by the winning
	// intent, 0..1. It is zero for Unknown.
	Confidence float64

	// Matched lists the keywords and phrases that contributed to the winner.
	Matched []string
}

func unknown() Result {
	return Result{Intent: Unknown, Pool: Unknown.Pool()}
}
