package game

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration rejects a configuration at New or Restart.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidTurn rejects a human turn. The game state is left unchanged.
	ErrInvalidTurn = errors.New("invalid turn")

	// ErrGameOver rejects a turn after a winner has been recorded.
	ErrGameOver = fmt.Errorf("%w: game is over", ErrInvalidTurn)

	// ErrIllegalMove is returned when the strategist proposes a move outside
	// the legal range.
	ErrIllegalMove = errors.New("strategist proposed an illegal move")
)
