// Package game defines the contract between the search engine and any
// two-player, perfect-information, turn-based game. The engine depends on
// nothing beyond this interface: it never inspects a board representation.
package game

import "github.com/pkg/errors"

// ErrInvalidMove reports a move that is not legal for the state it was
// applied to. Implementations return it (possibly wrapped) from Play.
var ErrInvalidMove = errors.New("game: invalid move")

// Outcome values on the reward scale shared by Outcome and Evaluate.
const (
	Win  = 1.0
	Draw = 0.0
	Loss = -Win
)

// Move identifies a transition between two states. The searcher treats
// moves as opaque edge labels and compares them with ==, so implementations
// must be comparable values.
type Move any

// State should be immutable - operations on State always return a new copy.
type State interface {
	// Player returns the id of the player to move.
	Player() string
	// LegalMoves returns every move applicable to the state. The result is
	// empty iff the state is terminal.
	LegalMoves() []Move
	// Play applies a legal move and returns the successor state, leaving
	// the receiver untouched. It fails with ErrInvalidMove if the move is
	// not legal for this state.
	Play(move Move) (State, error)
	// Terminal reports whether the game is over.
	Terminal() bool
	// Outcome returns the reward from the named player's perspective:
	// Win, Draw or Loss. Defined only for terminal states.
	Outcome(player string) float64
}

// Evaluate estimates a non-terminal state's value from the named player's
// perspective, on the same scale as Outcome. The searcher uses it to score
// rollouts stopped at a depth cutoff.
type Evaluate func(state State, player string) float64
