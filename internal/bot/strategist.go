// Package bot implements the automated player's move policies.
package bot

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/randutil"
)

var (
	// ErrUnknownDifficulty is returned for a difficulty with no policy.
	ErrUnknownDifficulty = errors.New("unknown difficulty")

	// ErrNoLegalMove is returned when the pile or the per-turn cap is zero.
	ErrNoLegalMove = errors.New("no legal move")
)

// Strategist chooses moves for the automated player. It satisfies
// game.Strategist.
type Strategist struct {
	src    randutil.Source
	logger *log.Logger
}

// New creates a Strategist drawing easy-mode moves from src.
func New(src randutil.Source) *Strategist {
	return NewWithLogger(src, log.New(io.Discard))
}

// NewWithLogger creates a Strategist that logs each decision.
func NewWithLogger(src randutil.Source, logger *log.Logger) *Strategist {
	if src == nil {
		panic("random source is required for the strategist")
	}
	return &Strategist{src: src, logger: logger.WithPrefix("bot")}
}

var _ game.Strategist = (*Strategist)(nil)

// ChooseMove returns a move in [1, min(maxPerTurn, remaining)] under the
// policy for d.
func (s *Strategist) ChooseMove(remaining, maxPerTurn uint32, d game.Difficulty) (uint32, error) {
	if remaining == 0 || maxPerTurn == 0 {
		return 0, fmt.Errorf("%w: remaining=%d maxPerTurn=%d", ErrNoLegalMove, remaining, maxPerTurn)
	}

	var (
		n   uint32
		err error
	)
	switch d {
	case game.Easy:
		n, err = EasyMove(s.src, remaining, maxPerTurn)
	case game.Hard:
		n = HardMove(remaining, maxPerTurn)
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownDifficulty, d)
	}
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Move chosen",
		"difficulty", d,
		"remaining", remaining,
		"maxPerTurn", maxPerTurn,
		"take", n,
		"losingPosition", IsLosingPosition(remaining, maxPerTurn))
	return n, nil
}

// EasyMove takes a uniformly random amount in [1, maxPerTurn] while more than
// maxPerTurn pebbles remain, and everything otherwise.
func EasyMove(src randutil.Source, remaining, maxPerTurn uint32) (uint32, error) {
	if maxPerTurn == 0 {
		return 0, ErrNoLegalMove
	}
	if remaining <= maxPerTurn {
		return remaining, nil
	}
	v, err := src.Uint32()
	if err != nil {
		return 0, fmt.Errorf("easy move: %w", err)
	}
	return v%maxPerTurn + 1, nil
}

// HardMove leaves the opponent a multiple of maxPerTurn+1 when possible. From
// a losing position it takes a single pebble.
func HardMove(remaining, maxPerTurn uint32) uint32 {
	r := remainder(remaining, maxPerTurn)
	if r == 0 {
		return 1
	}
	return r
}

// IsLosingPosition reports whether the player to move loses against perfect
// play.
func IsLosingPosition(remaining, maxPerTurn uint32) bool {
	return remainder(remaining, maxPerTurn) == 0
}

// remainder computes remaining mod (maxPerTurn+1) without overflowing when
// maxPerTurn is math.MaxUint32.
func remainder(remaining, maxPerTurn uint32) uint32 {
	return uint32(uint64(remaining) % (uint64(maxPerTurn) + 1))
}
