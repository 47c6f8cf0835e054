package searcher

import (
	"math"

	"golang.org/x/exp/rand"

	"mcts/game"
)

// Hyperparameters for MCTS

// DefaultExploration is the UCT exploration constant c, commonly sqrt(2).
const DefaultExploration = math.Sqrt2

// Reward applied to a node on the selected path until its backup reverses
// it, discouraging other workers from piling onto the same line.
const virtualLoss = game.Loss

type uct struct {
	numerator float64
}

func newUCT(cSquared float64, n float64) uct {
	if n == 0 {
		panic("N cannot be 0")
	}
	return uct{numerator: cSquared * math.Log(n)}
}

func (u uct) evaluate(q float64, n float64) float64 {
	if n == 0 {
		panic("n cannot be 0")
	}
	// UCT = q/n + sqrt(c^2*ln(N)/n)
	return q/n + math.Sqrt(u.numerator/n)
}

// Policy picks the rollout move to play from state among the legal moves.
// moves is never empty.
type Policy func(rng *rand.Rand, state game.State, moves []game.Move) game.Move

// UniformRandom is the default rollout policy: a uniformly random choice
// among the legal moves.
func UniformRandom(rng *rand.Rand, _ game.State, moves []game.Move) game.Move {
	return moves[rng.Intn(len(moves))]
}
