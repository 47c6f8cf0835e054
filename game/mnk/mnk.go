// Package mnk implements m,n,k-games: two players alternate claiming cells
// on an m-by-n board, and k claimed cells in a row (horizontally, vertically
// or diagonally) win. Tic-tac-toe is the 3,3,3 instance, gomoku the 15,15,5
// instance.
package mnk

import (
	"strings"

	"github.com/pkg/errors"

	"mcts/game"
)

// Player ids. X always moves first.
const (
	X = "X"
	O = "O"
)

// Move claims the cell at (Row, Col) for the player to move.
type Move struct {
	Row int
	Col int
}

// State is an immutable board position. All operations return a new copy.
type State struct {
	m, n, k int
	cells   []byte // row-major; 0 for empty, otherwise 'X' or 'O'
	toMove  string
	winner  string
	filled  int
}

// New returns the empty m-by-n board on which k in a row wins.
func New(m, n, k int) (*State, error) {
	if m < 1 || n < 1 || k < 1 {
		return nil, errors.Errorf("mnk: dimensions must be positive, got %d,%d,%d", m, n, k)
	}
	if k > m && k > n {
		return nil, errors.Errorf("mnk: %d in a row is impossible on a %dx%d board", k, m, n)
	}
	return &State{
		m:      m,
		n:      n,
		k:      k,
		cells:  make([]byte, m*n),
		toMove: X,
	}, nil
}

// TicTacToe returns the empty 3,3,3 board.
func TicTacToe() *State {
	s, err := New(3, 3, 3)
	if err != nil {
		panic(err)
	}
	return s
}

// Gomoku returns the empty 15,15,5 board.
func Gomoku() *State {
	s, err := New(15, 15, 5)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *State) Player() string {
	return s.toMove
}

func (s *State) LegalMoves() []game.Move {
	if s.Terminal() {
		return nil
	}
	moves := make([]game.Move, 0, s.m*s.n-s.filled)
	for i, cell := range s.cells {
		if cell == 0 {
			moves = append(moves, Move{Row: i / s.n, Col: i % s.n})
		}
	}
	return moves
}

func (s *State) Play(move game.Move) (game.State, error) {
	mv, ok := move.(Move)
	if !ok {
		return nil, errors.Wrapf(game.ErrInvalidMove, "unexpected move type %T", move)
	}
	if s.Terminal() {
		return nil, errors.Wrap(game.ErrInvalidMove, "game is over")
	}
	if mv.Row < 0 || mv.Row >= s.m || mv.Col < 0 || mv.Col >= s.n {
		return nil, errors.Wrapf(game.ErrInvalidMove, "cell (%d,%d) outside %dx%d board", mv.Row, mv.Col, s.m, s.n)
	}
	index := mv.Row*s.n + mv.Col
	if s.cells[index] != 0 {
		return nil, errors.Wrapf(game.ErrInvalidMove, "cell (%d,%d) is occupied", mv.Row, mv.Col)
	}

	next := &State{
		m:      s.m,
		n:      s.n,
		k:      s.k,
		cells:  append([]byte(nil), s.cells...),
		filled: s.filled + 1,
		winner: s.winner,
	}
	next.cells[index] = s.toMove[0]
	if next.connects(mv.Row, mv.Col) {
		next.winner = s.toMove
	}
	if s.toMove == X {
		next.toMove = O
	} else {
		next.toMove = X
	}
	return next, nil
}

func (s *State) Terminal() bool {
	return s.winner != "" || s.filled == s.m*s.n
}

func (s *State) Outcome(player string) float64 {
	switch s.winner {
	case "":
		return game.Draw
	case player:
		return game.Win
	default:
		return game.Loss
	}
}

// Winner returns the winning player's id, or "" for a draw or an unfinished
// game.
func (s *State) Winner() string {
	return s.winner
}

// connects reports whether the cell at (row, col) completes a k-in-a-row
// line through that cell.
func (s *State) connects(row, col int) bool {
	directions := [4][2]int{
		{0, 1},  // horizontal
		{1, 0},  // vertical
		{1, 1},  // diagonal
		{1, -1}, // anti-diagonal
	}
	sign := s.cells[row*s.n+col]
	for _, d := range directions {
		length := 1 + s.run(row, col, d[0], d[1], sign) + s.run(row, col, -d[0], -d[1], sign)
		if length >= s.k {
			return true
		}
	}
	return false
}

// run counts consecutive cells with the given sign from (row, col) exclusive
// in direction (dr, dc).
func (s *State) run(row, col, dr, dc int, sign byte) int {
	count := 0
	for r, c := row+dr, col+dc; r >= 0 && r < s.m && c >= 0 && c < s.n; r, c = r+dr, c+dc {
		if s.cells[r*s.n+c] != sign {
			break
		}
		count++
	}
	return count
}

func (s *State) String() string {
	var b strings.Builder
	for r := 0; r < s.m; r++ {
		for c := 0; c < s.n; c++ {
			if cell := s.cells[r*s.n+c]; cell == 0 {
				b.WriteByte('.')
			} else {
				b.WriteByte(cell)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
