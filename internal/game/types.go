package game

import (
	"fmt"
	"strings"
)

// Difficulty selects the automated player's move policy.
type Difficulty int

const (
	Easy Difficulty = iota
	Hard
)

// String returns the lowercase name used in config files and on the wire.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	default:
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
}

// ParseDifficulty parses "easy" or "hard", ignoring case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "hard":
		return Hard, nil
	default:
		return 0, fmt.Errorf("unknown difficulty %q", s)
	}
}

// Player identifies one of the two participants.
type Player int

const (
	Human Player = iota
	Automated
)

func (p Player) String() string {
	switch p {
	case Human:
		return "human"
	case Automated:
		return "automated"
	default:
		return fmt.Sprintf("player(%d)", int(p))
	}
}

// ParsePlayer parses "human" or "automated", ignoring case.
func ParsePlayer(s string) (Player, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "human":
		return Human, nil
	case "automated":
		return Automated, nil
	default:
		return 0, fmt.Errorf("unknown player %q", s)
	}
}

// Config fixes the rules of one game. It is immutable until a restart.
type Config struct {
	PebblesCount      uint32
	MaxPebblesPerTurn uint32
	Difficulty        Difficulty
}

// Validate reports ErrInvalidConfiguration when the pile is empty or the
// per-turn cap is zero or larger than the pile.
func (c Config) Validate() error {
	if c.PebblesCount == 0 {
		return fmt.Errorf("%w: pebbles count must be positive", ErrInvalidConfiguration)
	}
	if c.MaxPebblesPerTurn == 0 {
		return fmt.Errorf("%w: max pebbles per turn must be positive", ErrInvalidConfiguration)
	}
	if c.MaxPebblesPerTurn > c.PebblesCount {
		return fmt.Errorf("%w: max pebbles per turn %d exceeds pebbles count %d",
			ErrInvalidConfiguration, c.MaxPebblesPerTurn, c.PebblesCount)
	}
	if c.Difficulty != Easy && c.Difficulty != Hard {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, c.Difficulty)
	}
	return nil
}

// Phase is the coarse state of a game.
type Phase int

const (
	AwaitingHumanTurn Phase = iota
	Finished
)

func (p Phase) String() string {
	if p == Finished {
		return "finished"
	}
	return "awaiting_human_turn"
}

// State is a snapshot of a game. Values returned by Engine.State are copies
// and never alias engine internals.
type State struct {
	Config           Config
	PebblesRemaining uint32
	FirstPlayer      Player
	Winner           *Player
}

// Phase derives the game phase from the winner.
func (s State) Phase() Phase {
	if s.Winner != nil {
		return Finished
	}
	return AwaitingHumanTurn
}

// MaxTake is the largest legal human move in this state.
func (s State) MaxTake() uint32 {
	return min(s.Config.MaxPebblesPerTurn, s.PebblesRemaining)
}

func (s State) clone() State {
	out := s
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	return out
}
