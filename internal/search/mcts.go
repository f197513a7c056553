package search

import (
	"math"
	"slices"
	"time"

	"github.com/frogmud/NEVERDIEGUY26-sub001/internal/rng"
)

// Budget bounds a search. The first bound reached stops it.
type Budget struct {
	// MaxIterations caps select/expand/rollout/backpropagate cycles.
	MaxIterations int

	// MaxExpansions caps the number of tree nodes created.
	MaxExpansions int

	// MaxTurns caps how many turns past the root any simulation looks.
	MaxTurns int

	// Deadline stops the search at a wall-clock instant. The zero value
	// disables it, which keeps results reproducible.
	Deadline time.Time
}

// DefaultBudget returns the budget used when a field is left zero.
func DefaultBudget() Budget {
	return Budget{MaxIterations: 200, MaxExpansions: 400, MaxTurns: 6}
}

func (b Budget) withDefaults() Budget {
	d := DefaultBudget()
	if b.MaxIterations <= 0 {
		b.MaxIterations = d.MaxIterations
	}
	if b.MaxExpansions <= 0 {
		b.MaxExpansions = d.MaxExpansions
	}
	if b.MaxTurns <= 0 {
		b.MaxTurns = d.MaxTurns
	}
	return b
}

// StopReason records why a search ended.
type StopReason string

const (
	StopNoMoves    StopReason = "no_moves"
	StopSingleMove StopReason = "single_move"
	StopIterations StopReason = "iterations"
	StopExpansions StopReason = "expansions"
	StopDeadline   StopReason = "deadline"
	StopExhausted  StopReason = "tree_exhausted"
)

// Result is the outcome of a search.
type Result struct {
	// Move is the chosen move. It is only meaningful when OK is true.
	Move Move
	OK   bool

	// Score is the mean reward observed for Move.
	Score float64

	Iterations int
	Expansions int
	Reason     StopReason
	Elapsed    time.Duration
}

// ucbExploration is the UCB1 exploration constant.
var ucbExploration = math.Sqrt2

type node struct {
	snap     Snapshot
	move     Move
	parent   *node
	children []*node
	untried  []Move
	visits   int
	depth    int

	// mover is the index of the participant who played move. total holds
	// that participant's accumulated reward, so every level of the tree is
	// judged against the objective of whoever chose it.
	mover int
	total float64

	// solved caches the exact per-participant outcome of a fully explored
	// subtree.
	solved []float64
}

func (n *node) mean() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.total / float64(n.visits)
}

func (n *node) terminal(maxTurns int) bool {
	return n.snap.Thread.Ended || n.depth >= maxTurns
}

// Search picks the move for root's next speaker that best serves that
// speaker's objective, assuming every later speaker in turn plays for its own
// objective. It always returns within b; when a bound is hit mid-search the
// best move found so far is returned. Ties between equally scored moves are
// broken with r.
func Search(root Snapshot, gen MoveGenerator, b Budget, r *rng.Rng) Result {
	start := time.Now()
	b = b.withDefaults()

	rootMoves := gen.Moves(root)
	switch len(rootMoves) {
	case 0:
		return Result{Reason: StopNoMoves, Elapsed: time.Since(start)}
	case 1:
		return Result{Move: rootMoves[0], OK: true, Score: 0.5, Reason: StopSingleMove, Elapsed: time.Since(start)}
	}

	tree := &node{snap: root, untried: slices.Clone(rootMoves), mover: -1}

	var (
		iterations int
		expansions int
		reason     StopReason
	)
	for {
		switch {
		case iterations >= b.MaxIterations:
			reason = StopIterations
		case expansions >= b.MaxExpansions:
			reason = StopExpansions
		case !b.Deadline.IsZero() && !time.Now().Before(b.Deadline):
			reason = StopDeadline
		case tree.fullyExplored(b.MaxTurns):
			reason = StopExhausted
		}
		if reason != "" {
			break
		}

		n := selectNode(tree, b.MaxTurns)
		if child := expand(n, gen, b.MaxTurns, r); child != nil {
			n = child
			expansions++
		}
		backpropagate(n, rewards(root, rollout(n, gen, b.MaxTurns, r)))
		iterations++
	}

	res := Result{Iterations: iterations, Expansions: expansions, Reason: reason}
	if reason == StopExhausted && len(tree.children) > 0 {
		best := bestSolved(tree, root, r)
		res.Move, res.Score, res.OK = best.move, best.solve(root)[best.mover], true
	} else if best, ok := bestChild(tree, r); ok {
		res.Move, res.Score, res.OK = best.move, best.mean(), true
	} else {
		// Abandoned before any child was visited: fall back to a random
		// candidate so the caller still gets a move.
		res.Move, res.OK = rootMoves[r.IntN(len(rootMoves))], true
		res.Score = 0.5
	}
	res.Elapsed = time.Since(start)
	return res
}

// fullyExplored reports whether every reachable node has been expanded, so
// further iterations could only repeat rollouts from leaves.
func (n *node) fullyExplored(maxTurns int) bool {
	if n.terminal(maxTurns) {
		return true
	}
	if len(n.untried) > 0 {
		return false
	}
	for _, c := range n.children {
		if !c.fullyExplored(maxTurns) {
			return false
		}
	}
	// A node whose generator offered nothing is a dead end, and so a leaf.
	return true
}

// selectNode descends from n by UCB1 until it reaches a node with untried
// moves or a terminal node.
func selectNode(n *node, maxTurns int) *node {
	for len(n.untried) == 0 && len(n.children) > 0 && !n.terminal(maxTurns) {
		n = bestUCB(n)
	}
	return n
}

func bestUCB(n *node) *node {
	var (
		best      *node
		bestScore = math.Inf(-1)
		logN      = math.Log(float64(max(n.visits, 1)))
	)
	for _, c := range n.children {
		score := math.Inf(1)
		if c.visits > 0 {
			score = c.mean() + ucbExploration*math.Sqrt(logN/float64(c.visits))
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

// expand adds one child for a random untried move of n. It returns nil when n
// is terminal or has nothing left to try.
func expand(n *node, gen MoveGenerator, maxTurns int, r *rng.Rng) *node {
	if len(n.untried) == 0 || n.terminal(maxTurns) {
		return nil
	}
	i := r.IntN(len(n.untried))
	m := n.untried[i]
	n.untried = slices.Delete(n.untried, i, i+1)

	child := &node{
		snap:   Simulate(n.snap, m),
		move:   m,
		parent: n,
		depth:  n.depth + 1,
		mover:  n.snap.Next % max(len(n.snap.Participants), 1),
	}
	if !child.terminal(maxTurns) {
		child.untried = slices.Clone(gen.Moves(child.snap))
	}
	n.children = append(n.children, child)
	return child
}

// rollout plays random moves from n until the conversation ends, the turn cap
// is reached, or no move is available.
func rollout(n *node, gen MoveGenerator, maxTurns int, r *rng.Rng) Snapshot {
	s := n.snap
	for depth := n.depth; depth < maxTurns && !s.Thread.Ended; depth++ {
		moves := gen.Moves(s)
		if len(moves) == 0 {
			break
		}
		s = Simulate(s, moves[r.IntN(len(moves))])
	}
	return s
}

// rewards scores s for every participant of root.
func rewards(root, s Snapshot) []float64 {
	out := make([]float64, max(len(root.Participants), 1))
	for i := range out {
		out[i] = Score(root, s, i)
	}
	return out
}

// backpropagate credits each node on the path to the root with the reward of
// the participant who moved into it.
func backpropagate(n *node, reward []float64) {
	for ; n != nil; n = n.parent {
		n.visits++
		if n.mover >= 0 && n.mover < len(reward) {
			n.total += reward[n.mover]
		}
	}
}

// solve returns the exact outcome of a fully explored subtree: at every node
// the speaker picks the child that is best for itself, and leaves are scored
// as they stand. Ties go to the earliest expanded child.
func (n *node) solve(root Snapshot) []float64 {
	if n.solved != nil {
		return n.solved
	}
	if len(n.children) == 0 {
		n.solved = rewards(root, n.snap)
		return n.solved
	}
	chooser := n.snap.Next % max(len(n.snap.Participants), 1)
	var best []float64
	for _, c := range n.children {
		v := c.solve(root)
		if best == nil || v[chooser] > best[chooser] {
			best = v
		}
	}
	n.solved = best
	return best
}

// bestSolved returns the root child with the best exact outcome for the root
// speaker, breaking ties with r.
func bestSolved(tree *node, root Snapshot, r *rng.Rng) *node {
	var (
		best      []*node
		bestScore = math.Inf(-1)
	)
	for _, c := range tree.children {
		switch v := c.solve(root)[c.mover]; {
		case v > bestScore:
			best, bestScore = []*node{c}, v
		case v == bestScore:
			best = append(best, c)
		}
	}
	return best[r.IntN(len(best))]
}

// bestChild returns the visited root child with the highest mean reward for
// the root speaker,
// breaking exact ties with r.
func bestChild(root *node, r *rng.Rng) (*node, bool) {
	var (
		best      []*node
		bestScore = math.Inf(-1)
	)
	for _, c := range root.children {
		if c.visits == 0 {
			continue
		}
		switch m := c.mean(); {
		case m > bestScore:
			best, bestScore = []*node{c}, m
		case m == bestScore:
			best = append(best, c)
		}
	}
	if len(best) == 0 {
		return nil, false
	}
	return best[r.IntN(len(best))], true
}
