package selector

import (
	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/search"
	"github.com/frogmud/NEVERDIEGUY26-sub001/pkg/types"
)

// maxBranch caps the moves offered per simulated turn.
const maxBranch = 8

// templateMoves offers the filtered candidates at the root and, deeper in the
// tree, each participant's replies from the requested pool plus reactions and
// farewells. Deeper turns skip mood and stat conditions.
type templateMoves struct {
	rootTurn int64
	root     []search.Move
	replies  map[types.NPCID][]search.Move
}

func newTemplateMoves(lib *Library, req Request, candidates []Template) templateMoves {
	g := templateMoves{
		rootTurn: req.Turn,
		replies:  make(map[types.NPCID][]search.Move, 2),
	}
	for _, t := range candidates {
		if len(g.root) == maxBranch {
			break
		}
		g.root = append(g.root, moveFor(t))
	}

	pools := []types.Pool{req.Pool}
	for _, p := range []types.Pool{types.PoolReaction, types.PoolFarewell} {
		if p != req.Pool {
			pools = append(pools, p)
		}
	}
	for _, who := range []types.NPCIdentity{req.Speaker, req.Listener} {
		c := Candidate{NPC: who.ID, Category: who.Category}
		var moves []search.Move
	collect:
		for _, p := range pools {
			for _, t := range lib.Pool(p) {
				if len(moves) == maxBranch {
					break collect
				}
				if speakable(t, c) {
					moves = append(moves, moveFor(t))
				}
			}
		}
		if len(moves) == 0 {
			moves = append(moves, moveFor(lib.Generic(types.PoolReaction)))
		}
		g.replies[who.ID] = moves
	}
	return g
}

// Moves implements [search.MoveGenerator].
func (g templateMoves) Moves(s search.Snapshot) []search.Move {
	if s.Turn == g.rootTurn {
		return g.root
	}
	return g.replies[s.Speaker().ID]
}

// speakable checks only who may say t.
func speakable(t Template, c Candidate) bool {
	return Applicable(Template{NPCs: t.NPCs, Categories: t.Categories}, c)
}

func moveFor(t Template) search.Move {
	return search.Move{
		ID:      t.ID,
		Pool:    t.Pool,
		Effects: t.Effects,
		Topic:   t.Topic,
		Ends:    t.EndsConversation,
	}
}
