package searcher

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"mcts/game"
)

// node is one game state reached from the search root. States are not
// stored: they are rebuilt by replaying edge moves while descending, so a
// node carries only its incoming move, the player to move, and statistics.
//
// rewards accumulates outcomes from the perspective of the player who moved
// into the node (the parent's player), so selection at a node compares its
// children's values directly. The root, which nobody moved into, uses its
// own player's perspective; its value never drives selection.
type node struct {
	sync.RWMutex
	parent     *node
	move       game.Move // nil for the root
	player     string    // player to move at this node's state
	unexplored []game.Move
	explored   []game.Move
	children   []*node // children[i] is reached by explored[i]
	terminal   bool
	rewards    float64
	visits     float64
}

func newNode(parent *node, move game.Move, state game.State) *node {
	n := &node{
		parent: parent,
		move:   move,
		player: state.Player(),
	}
	if state.Terminal() {
		n.terminal = true
	} else {
		n.unexplored = state.LegalMoves()
	}
	return n
}

// SelectOrExpand advances one ply: a terminal node returns itself, a node
// with unexplored moves expands the first of them, and a fully expanded node
// selects the max-UCT child. The returned child carries a virtual loss until
// its backup.
func (n *node) SelectOrExpand(state game.State, cSquared float64) (child *node, childState game.State, selected bool, err error) {
	n.Lock()
	defer n.Unlock()

	if n.terminal {
		return n, state, false, nil
	}

	if len(n.unexplored) > 0 {
		child, childState, err := n.expand(state)
		if err != nil {
			return nil, nil, false, err
		}
		child.applyLoss()
		return child, childState, false, nil
	}

	child = n.pickChild(cSquared)
	childState, err = state.Play(child.move)
	if err != nil {
		return nil, nil, false, errors.Wrap(err, "selection")
	}
	child.applyLoss()
	return child, childState, true, nil
}

func (n *node) expand(state game.State) (*node, game.State, error) {
	move := n.unexplored[0]
	childState, err := state.Play(move)
	if err != nil {
		return nil, nil, errors.Wrap(err, "expansion")
	}
	n.unexplored = n.unexplored[1:]
	n.explored = append(n.explored, move)
	child := newNode(n, move, childState)
	n.children = append(n.children, child)
	return child, childState, nil
}

func (n *node) pickChild(cSquared float64) *node {
	if n.visits == 0 {
		panic("node has children but no visits")
	}

	policy := newUCT(cSquared, n.visits)

	// Strict > keeps ties on the first child in insertion order
	best := n.children[0]
	maxScore := math.Inf(-1)
	for _, child := range n.children {
		if score := child.score(policy); score > maxScore {
			maxScore = score
			best = child
		}
	}
	return best
}

func (n *node) score(policy uct) float64 {
	n.RLock()
	defer n.RUnlock()

	return policy.evaluate(n.rewards, n.visits)
}

func (n *node) applyLoss() {
	n.Lock()
	defer n.Unlock()

	n.rewards += virtualLoss
	n.visits++
}

func (n *node) reverseLoss() {
	n.rewards -= virtualLoss
	n.visits--
}

// Backup records the simulation value at this node and returns the parent
// for the caller to continue the walk; nil from the root. value maps a
// player id to the simulated reward from that player's perspective.
func (n *node) Backup(value func(player string) float64) *node {
	n.Lock()
	defer n.Unlock()

	if n.parent == nil { // Root node: no virtual loss to reverse
		n.rewards += value(n.player)
		n.visits++
		return nil
	}

	n.reverseLoss()
	n.rewards += value(n.parent.player)
	n.visits++

	return n.parent
}

// bestChild implements the robust-child rule: most visits, ties broken by
// higher mean value, then insertion order.
func (n *node) bestChild() *node {
	var best *node
	maxVisits, maxMean := -1.0, math.Inf(-1)
	for _, child := range n.children {
		visits, mean := child.stats()
		if visits > maxVisits || (visits == maxVisits && mean > maxMean) {
			best, maxVisits, maxMean = child, visits, mean
		}
	}
	return best
}

func (n *node) stats() (visits float64, mean float64) {
	n.RLock()
	defer n.RUnlock()

	if n.visits == 0 {
		return 0, 0
	}
	return n.visits, n.rewards / n.visits
}

func (n *node) childByMove(move game.Move) *node {
	for i, m := range n.explored {
		if m == move {
			return n.children[i]
		}
	}
	return nil
}
