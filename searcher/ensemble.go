package searcher

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"mcts/game"
)

// Ensemble implements root parallelization: it searches size independent
// trees concurrently, each with its own seed and no shared mutable state,
// and merges the root statistics only after every member finishes. Unlike
// the shared-tree driver, a seeded ensemble stays reproducible at any size
// as long as each member runs a single goroutine.
type Ensemble struct {
	members []*MCTS
}

// NewEnsemble builds size drivers from the same options. Member i searches
// with seed+i, where seed comes from WithSeed or the clock.
func NewEnsemble(size int, options ...Option) (*Ensemble, error) {
	if size < 1 {
		return nil, errors.Wrapf(ErrConfiguration, "need at least one ensemble member, got %d", size)
	}

	members := make([]*MCTS, size)
	seed := uint64(time.Now().UnixNano())
	for i := range members {
		member, err := NewMCTS(options...)
		if err != nil {
			return nil, err
		}
		if !member.hasSeed {
			member.seed = seed
		}
		member.seed += uint64(i)
		members[i] = member
	}
	return &Ensemble{members: members}, nil
}

// FindMove searches all members concurrently and returns the robust move of
// the merged root statistics: most combined visits, ties broken by higher
// combined mean value, then expansion order.
func (e *Ensemble) FindMove(state game.State) (game.Move, error) {
	var g errgroup.Group
	for _, member := range e.members {
		member := member
		g.Go(func() error {
			return member.Start(state)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type stat struct {
		visits  float64
		rewards float64
	}
	var order []game.Move
	merged := map[game.Move]*stat{}
	for _, member := range e.members {
		for _, child := range member.RootStats() {
			s, ok := merged[child.Move]
			if !ok {
				s = &stat{}
				merged[child.Move] = s
				order = append(order, child.Move)
			}
			s.visits += float64(child.Visits)
			s.rewards += child.MeanValue * float64(child.Visits)
		}
	}

	if len(order) == 0 {
		// No member gathered statistics: defer to the first member for the
		// single-legal-move shortcut or the no-iterations failure.
		return e.members[0].BestMove()
	}

	var best game.Move
	maxVisits, maxMean := -1.0, 0.0
	for _, move := range order {
		s := merged[move]
		mean := 0.0
		if s.visits > 0 {
			mean = s.rewards / s.visits
		}
		if s.visits > maxVisits || (s.visits == maxVisits && mean > maxMean) {
			best, maxVisits, maxMean = move, s.visits, mean
		}
	}
	return best, nil
}
