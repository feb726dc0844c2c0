package game

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/pebbles/internal/randutil"
)

// Strategist picks the automated player's move. Implementations must return
// n with 1 <= n <= min(maxPerTurn, remaining).
type Strategist interface {
	ChooseMove(remaining, maxPerTurn uint32, d Difficulty) (uint32, error)
}

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the logger used for game transitions.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger.WithPrefix("engine")
		}
	}
}

// Engine owns the state of a single game and applies actions to it.
type Engine struct {
	state      State
	strategist Strategist
	src        randutil.Source
	logger     *log.Logger

	opening *Event
	history []Move
}

// New validates cfg, draws the first player and, if the automated player
// goes first, applies its opening move. The strategist and source are
// required.
func New(cfg Config, strategist Strategist, src randutil.Source, opts ...Option) (*Engine, error) {
	if strategist == nil {
		panic("strategist is required for game creation")
	}
	if src == nil {
		panic("random source is required for game creation")
	}

	e := &Engine{
		strategist: strategist,
		src:        src,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.reset(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// State returns a snapshot of the current game.
func (e *Engine) State() State {
	return e.state.clone()
}

// History returns the moves applied since the game was last (re)started.
func (e *Engine) History() []Move {
	out := make([]Move, len(e.history))
	copy(out, e.history)
	return out
}

// OpeningEvent returns the automated player's opening move, if it went first.
func (e *Engine) OpeningEvent() (Event, bool) {
	if e.opening == nil {
		return Event{}, false
	}
	return *e.opening, true
}

// Turn applies a human move of n pebbles and, unless that ends the game,
// the automated reply. A rejected turn leaves the state untouched.
func (e *Engine) Turn(n uint32) (Event, error) {
	if e.state.Winner != nil {
		return Event{}, fmt.Errorf("%w: %s already won", ErrGameOver, *e.state.Winner)
	}
	if n < 1 {
		return Event{}, fmt.Errorf("%w: must take at least one pebble", ErrInvalidTurn)
	}
	if n > e.state.Config.MaxPebblesPerTurn {
		return Event{}, fmt.Errorf("%w: cannot take %d, at most %d per turn",
			ErrInvalidTurn, n, e.state.Config.MaxPebblesPerTurn)
	}
	if n > e.state.PebblesRemaining {
		return Event{}, fmt.Errorf("%w: cannot take %d, only %d remaining",
			ErrInvalidTurn, n, e.state.PebblesRemaining)
	}

	next := e.state.clone()
	next.PebblesRemaining -= n
	moves := []Move{{Player: Human, Count: n, Remaining: next.PebblesRemaining}}

	var ev Event
	if next.PebblesRemaining == 0 {
		winner := Human
		next.Winner = &winner
		ev = Won(Human)
	} else {
		reply, mv, err := e.automatedMove(&next)
		if err != nil {
			return Event{}, err
		}
		ev = reply
		moves = append(moves, mv)
	}

	e.state = next
	e.history = append(e.history, moves...)

	e.logger.Debug("Human turn applied",
		"took", n,
		"remaining", e.state.PebblesRemaining,
		"outcome", ev.String())
	if ev.Type == EventTypeWon {
		e.logger.Info("Game finished", "winner", ev.Winner, "moves", len(e.history))
	}

	return ev, nil
}

// GiveUp concedes the game to the automated player. It is accepted in any
// phase and overwrites an existing winner.
func (e *Engine) GiveUp() Event {
	winner := Automated
	e.state.Winner = &winner
	e.logger.Info("Human conceded", "remaining", e.state.PebblesRemaining)
	return Won(Automated)
}

// Restart replaces the game with a fresh one under cfg. On error the current
// game is kept as it was.
func (e *Engine) Restart(cfg Config) error {
	if err := e.reset(cfg); err != nil {
		return fmt.Errorf("restart: %w", err)
	}
	return nil
}

// reset builds the next state aside and commits it only once every draw and
// strategist call has succeeded.
func (e *Engine) reset(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	first, err := e.drawFirstPlayer()
	if err != nil {
		return err
	}

	next := State{
		Config:           cfg,
		PebblesRemaining: cfg.PebblesCount,
		FirstPlayer:      first,
	}

	var (
		history []Move
		opening *Event
	)
	if first == Automated {
		ev, mv, err := e.automatedMove(&next)
		if err != nil {
			return err
		}
		opening = &ev
		history = append(history, mv)
	}

	e.state = next
	e.history = history
	e.opening = opening

	e.logger.Info("Game started",
		"pebbles", cfg.PebblesCount,
		"maxPerTurn", cfg.MaxPebblesPerTurn,
		"difficulty", cfg.Difficulty,
		"firstPlayer", first,
		"remaining", next.PebblesRemaining)

	return nil
}

func (e *Engine) drawFirstPlayer() (Player, error) {
	v, err := e.src.Uint32()
	if err != nil {
		return 0, fmt.Errorf("draw first player: %w", err)
	}
	if v%2 == 0 {
		return Human, nil
	}
	return Automated, nil
}

// automatedMove asks the strategist for a move and applies it to s.
func (e *Engine) automatedMove(s *State) (Event, Move, error) {
	n, err := e.strategist.ChooseMove(s.PebblesRemaining, s.Config.MaxPebblesPerTurn, s.Config.Difficulty)
	if err != nil {
		return Event{}, Move{}, fmt.Errorf("automated move: %w", err)
	}
	if n < 1 || n > s.MaxTake() {
		return Event{}, Move{}, fmt.Errorf("%w: %d with %d remaining and cap %d",
			ErrIllegalMove, n, s.PebblesRemaining, s.Config.MaxPebblesPerTurn)
	}

	s.PebblesRemaining -= n
	mv := Move{Player: Automated, Count: n, Remaining: s.PebblesRemaining}

	e.logger.Debug("Automated move", "took", n, "remaining", s.PebblesRemaining, "difficulty", s.Config.Difficulty)

	if s.PebblesRemaining == 0 {
		winner := Automated
		s.Winner = &winner
		return Won(Automated), mv, nil
	}
	return CounterTurn(n), mv, nil
}
