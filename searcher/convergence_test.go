package searcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"mcts/game"
	"mcts/game/mnk"
)

// exactValue computes the game-theoretic value of state from the named
// player's perspective by exhaustive minimax. Small games only.
func exactValue(state game.State, player string) float64 {
	if state.Terminal() {
		return state.Outcome(player)
	}

	maximizing := state.Player() == player
	best := math.Inf(1)
	if maximizing {
		best = math.Inf(-1)
	}
	for _, move := range state.LegalMoves() {
		next, err := state.Play(move)
		if err != nil {
			panic(err)
		}
		value := exactValue(next, player)
		if maximizing {
			best = math.Max(best, value)
		} else {
			best = math.Min(best, value)
		}
	}
	return best
}

func playout(t *testing.T, state game.State, moves ...mnk.Move) game.State {
	t.Helper()
	for _, move := range moves {
		next, err := state.Play(move)
		require.NoError(t, err)
		state = next
	}
	return state
}

func TestConvergenceOnTicTacToe(t *testing.T) {
	if testing.Short() {
		t.Skip("exhaustive evaluation is slow")
	}

	t.Run("opening move preserves the draw", func(t *testing.T) {
		m, err := NewMCTS(WithIterations(5000), WithSeed(17))
		require.NoError(t, err)
		state := mnk.TicTacToe()

		move, err := m.FindMove(state)
		require.NoError(t, err)

		after, err := state.Play(move)
		require.NoError(t, err)
		require.GreaterOrEqual(t, exactValue(after, mnk.X), game.Draw,
			"Tic-tac-toe is a draw; the chosen move must never hand O a forced win")
	})

	t.Run("taking an immediate win", func(t *testing.T) {
		// X has two in a row on the top: (0,2) wins on the spot
		state := playout(t, mnk.TicTacToe(),
			mnk.Move{Row: 0, Col: 0}, // X
			mnk.Move{Row: 1, Col: 0}, // O
			mnk.Move{Row: 0, Col: 1}, // X
			mnk.Move{Row: 1, Col: 1}, // O
		)
		m, err := NewMCTS(WithIterations(2000), WithSeed(23))
		require.NoError(t, err)

		move, err := m.FindMove(state)

		require.NoError(t, err)
		require.Equal(t, mnk.Move{Row: 0, Col: 2}, move, "X should complete the row")
	})

	t.Run("blocking an immediate loss", func(t *testing.T) {
		// X threatens (0,2); any other O move is a forced loss, so the
		// losing lines' backed-up values must steer selection to the block
		state := playout(t, mnk.TicTacToe(),
			mnk.Move{Row: 0, Col: 0}, // X
			mnk.Move{Row: 2, Col: 2}, // O
			mnk.Move{Row: 0, Col: 1}, // X
		)
		m, err := NewMCTS(WithIterations(5000), WithSeed(29))
		require.NoError(t, err)

		move, err := m.FindMove(state)

		require.NoError(t, err)
		require.Equal(t, mnk.Move{Row: 0, Col: 2}, move, "O must block the top row")
	})
}
