// Package searcher implements a generic Monte Carlo Tree Search engine with
// UCT selection for any game satisfying the game.State contract. A search
// runs a configured budget of {select-or-expand, rollout, backup} iterations
// from a root state, then picks the robust root child as the move to play.
//
// The driver is sequential by default, which makes a seeded search fully
// reproducible. With more than one goroutine it runs tree parallelization:
// workers share one tree, every node carries its own lock, and a virtual
// loss is applied down the selected path and reversed during backup, so the
// per-node statistics still sum up once the search completes.
package searcher

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"mcts/game"
)

// MaxCutoff disables the rollout depth cutoff.
const MaxCutoff = math.MaxInt

type phase int

const (
	idle phase = iota
	running
	done
)

func (p phase) String() string {
	switch p {
	case idle:
		return "idle"
	case running:
		return "running"
	case done:
		return "done"
	default:
		return "unknown"
	}
}

// ChildStat exposes one root child's statistics for analysis or debugging.
// MeanValue is from the perspective of the player to move at the root.
type ChildStat struct {
	Move      game.Move
	Visits    int
	MeanValue float64
}

type Option func(m *MCTS)

type MCTS struct {
	goroutines    int
	iterations    int
	hasIterations bool
	duration      time.Duration
	exploration   float64
	cSquared      float64
	cutoff        int
	evaluate      game.Evaluate
	policy        Policy
	seed          uint64
	hasSeed       bool
	collector     Collector

	mu     sync.Mutex
	phase  phase
	root   *node
	metric SearchMetric
}

// WithIterations caps the search at n iterations. Zero is a valid budget:
// the search expands nothing and best-move falls back to the single legal
// move, if there is exactly one.
func WithIterations(n int) Option {
	return func(m *MCTS) {
		m.iterations = n
		m.hasIterations = true
	}
}

// WithDuration caps the search by wall clock. The deadline is checked
// between iterations, never mid-iteration.
func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

// WithExplorationConstant sets the UCT exploration constant c. The default
// is sqrt(2).
func WithExplorationConstant(c float64) Option {
	return func(m *MCTS) {
		m.exploration = c
	}
}

// WithCutoff stops rollouts after depth moves and scores the reached state
// with evaluate instead of playing out to a terminal state.
func WithCutoff(depth int, evaluate game.Evaluate) Option {
	return func(m *MCTS) {
		if depth > 0 {
			m.cutoff = depth
		}
		m.evaluate = evaluate
	}
}

// WithRolloutPolicy replaces the uniformly random default rollout policy.
func WithRolloutPolicy(policy Policy) Option {
	return func(m *MCTS) {
		if policy != nil {
			m.policy = policy
		}
	}
}

// WithSeed fixes the rollout randomness source. Two searches with the same
// seed, configuration and root state produce identical statistics, provided
// the driver runs a single goroutine.
func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.seed = seed
		m.hasSeed = true
	}
}

// WithGoroutines sets the number of workers sharing the search tree.
func WithGoroutines(goroutines int) Option {
	return func(m *MCTS) {
		m.goroutines = goroutines
	}
}

// WithCollector replaces the default metrics collector, e.g. with
// NewNopCollector() to skip bookkeeping entirely.
func WithCollector(collector Collector) Option {
	return func(m *MCTS) {
		if collector != nil {
			m.collector = collector
		}
	}
}

func NewMCTS(options ...Option) (*MCTS, error) {
	m := &MCTS{ // Default values
		goroutines:  1,
		exploration: DefaultExploration,
		cutoff:      MaxCutoff,
		policy:      UniformRandom,
		seed:        uint64(time.Now().UnixNano()),
		collector:   NewCollector(),
	}
	for _, option := range options {
		option(m)
	}

	if !m.hasIterations && m.duration <= 0 {
		return nil, errors.Wrap(ErrConfiguration, "must specify search iterations or duration")
	}
	if m.hasIterations && m.iterations < 0 {
		return nil, errors.Wrapf(ErrConfiguration, "negative iterations %d", m.iterations)
	}
	if m.exploration < 0 {
		return nil, errors.Wrapf(ErrConfiguration, "negative exploration constant %f", m.exploration)
	}
	if m.goroutines < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "need at least one goroutine, got %d", m.goroutines)
	}
	if m.cutoff != MaxCutoff && m.evaluate == nil {
		return nil, errors.Wrap(ErrConfiguration, "rollout cutoff requires an evaluation function")
	}
	m.cSquared = m.exploration * m.exploration
	return m, nil
}

// Start runs a full search from state and transitions the driver to the
// done phase, where BestMove and RootStats are available. played lists the
// moves made since the previous search's root, in order; when the previous
// tree covers them, the matching subtree is reused instead of starting
// cold.
func (m *MCTS) Start(state game.State, played ...game.Move) error {
	m.mu.Lock()
	if m.phase == running {
		m.mu.Unlock()
		return errors.Wrapf(ErrInvalidState, "start while %s", running)
	}
	m.phase = running
	root := m.findRoot(state, played)
	reused := root != nil
	if root == nil {
		root = newNode(nil, nil, state)
	}
	m.root = root
	m.mu.Unlock()

	searchID := uuid.NewString()
	m.collector.Start(m.goroutines, m.cutoff)
	m.collector.SetTreeReuse(reused)
	log.Debug().
		Str("search", searchID).
		Str("player", state.Player()).
		Int("goroutines", m.goroutines).
		Bool("reused", reused).
		Msg("search started")

	err := m.run(state)

	m.mu.Lock()
	m.phase = done
	m.metric = m.collector.Complete()
	m.mu.Unlock()

	if err != nil {
		return err
	}
	log.Debug().
		Str("search", searchID).
		Int("iterations", m.metric.Iterations).
		Dur("duration", m.metric.Duration).
		Msg("search completed")
	return nil
}

func (m *MCTS) run(state game.State) error {
	var maxIterations int64 = -1
	if m.hasIterations {
		maxIterations = int64(m.iterations)
	}
	lim := newLimiter(maxIterations, m.duration)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < m.goroutines; i++ {
		rng := rand.New(rand.NewSource(m.seed + uint64(i)))
		g.Go(func() error {
			for ctx.Err() == nil && lim.next() {
				if err := m.simulate(state, rng); err != nil {
					return err
				}
				m.collector.AddIteration()
			}
			return nil
		})
	}
	return g.Wait()
}

// simulate runs one search iteration to completion.
func (m *MCTS) simulate(state game.State, rng *rand.Rand) error {
	leaf, leafState, err := m.selectThenExpand(state)
	if err != nil {
		return err
	}
	value, err := m.rollout(leafState, rng)
	if err != nil {
		return err
	}
	backup(leaf, value)
	return nil
}

func (m *MCTS) selectThenExpand(state game.State) (*node, game.State, error) {
	parent := m.root
	child, state, selected, err := parent.SelectOrExpand(state, m.cSquared)
	for err == nil && selected && child != parent {
		parent = child
		child, state, selected, err = parent.SelectOrExpand(state, m.cSquared)
	}
	if err != nil {
		return nil, nil, err
	}
	return child, state, nil
}

// rollout plays state to a terminal state (or the depth cutoff) under the
// rollout policy and returns the per-player value of the reached state. It
// never mutates the tree.
func (m *MCTS) rollout(state game.State, rng *rand.Rand) (func(player string) float64, error) {
	depth := 0
	moves := state.LegalMoves()
	for len(moves) > 0 && depth < m.cutoff {
		next, err := state.Play(m.policy(rng, state, moves))
		if err != nil {
			return nil, errors.Wrap(err, "rollout")
		}
		state = next
		moves = state.LegalMoves()
		depth++
	}

	if len(moves) == 0 { // Terminal state: exact outcome
		m.collector.AddFullPlayout()
		return state.Outcome, nil
	}

	// Cutoff state: estimate with the evaluation function
	cut := state
	return func(player string) float64 { return m.evaluate(cut, player) }, nil
}

func backup(leaf *node, value func(player string) float64) {
	node := leaf
	for node != nil {
		node = node.Backup(value)
	}
}

// BestMove returns the robust root child's incoming move: most visits, ties
// broken by higher mean value, then insertion order. With no statistics it
// falls back to the single legal move if there is exactly one, otherwise it
// fails with ErrNoIterations.
func (m *MCTS) BestMove() (game.Move, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != done {
		return nil, errors.Wrapf(ErrInvalidState, "best move while %s", m.phase)
	}
	if len(m.root.children) == 0 {
		if len(m.root.unexplored) == 1 {
			return m.root.unexplored[0], nil
		}
		return nil, errors.Wrapf(ErrNoIterations, "%d legal moves and no search statistics", len(m.root.unexplored))
	}
	return m.root.bestChild().move, nil
}

// FindMove runs a search from state and returns the chosen move. See Start
// for the meaning of played.
func (m *MCTS) FindMove(state game.State, played ...game.Move) (game.Move, error) {
	if err := m.Start(state, played...); err != nil {
		return nil, err
	}
	return m.BestMove()
}

// Reset discards the tree and returns the driver to the idle phase.
func (m *MCTS) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == running {
		return errors.Wrapf(ErrInvalidState, "reset while %s", m.phase)
	}
	m.phase = idle
	m.root = nil
	return nil
}

// RootStats returns the root children's statistics in insertion order.
func (m *MCTS) RootStats() []ChildStat {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.root == nil {
		return nil
	}
	stats := make([]ChildStat, 0, len(m.root.children))
	for _, child := range m.root.children {
		visits, mean := child.stats()
		stats = append(stats, ChildStat{
			Move:      child.move,
			Visits:    int(visits),
			MeanValue: mean,
		})
	}
	return stats
}

// Iterations returns the number of iterations the last search ran.
func (m *MCTS) Iterations() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.metric.Iterations
}

// Metrics returns the last search's summary.
func (m *MCTS) Metrics() SearchMetric {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.metric
}

// findRoot returns the previous tree's node reached by playing the given
// moves from the previous root, detached as the new root; nil when there is
// nothing to reuse. Unreachable subtrees are dropped with the old root.
func (m *MCTS) findRoot(state game.State, played []game.Move) *node {
	if m.root == nil || len(played) == 0 {
		return nil
	}
	node := m.root
	for _, move := range played {
		child := node.childByMove(move)
		if child == nil { // Move was never expanded
			return nil
		}
		node = child
	}
	if node.player != state.Player() {
		log.Warn().
			Str("expected", state.Player()).
			Str("found", node.player).
			Msg("reused subtree does not match the root state, rebuilding tree")
		return nil
	}
	node.parent = nil
	node.move = nil
	return node
}
