package protocol

import (
	"fmt"

	"github.com/lox/pebbles/internal/game"
)

// ConfigFromData converts a wire config to a game.Config. Only the
// difficulty is checked here; the engine validates the counts.
func ConfigFromData(d GameConfigData) (game.Config, error) {
	diff, err := game.ParseDifficulty(d.Difficulty)
	if err != nil {
		return game.Config{}, fmt.Errorf("%w: %v", game.ErrInvalidConfiguration, err)
	}
	return game.Config{
		PebblesCount:      d.PebblesCount,
		MaxPebblesPerTurn: d.MaxPebblesPerTurn,
		Difficulty:        diff,
	}, nil
}

// ConfigData converts a game.Config to its wire form.
func ConfigData(cfg game.Config) GameConfigData {
	return GameConfigData{
		PebblesCount:      cfg.PebblesCount,
		MaxPebblesPerTurn: cfg.MaxPebblesPerTurn,
		Difficulty:        cfg.Difficulty.String(),
	}
}

// StateFromGame builds the state payload for a snapshot.
func StateFromGame(gameID string, s game.State, opening *game.Event) StateData {
	data := StateData{
		GameID:           gameID,
		Config:           ConfigData(s.Config),
		PebblesRemaining: s.PebblesRemaining,
		FirstPlayer:      s.FirstPlayer.String(),
		Phase:            s.Phase().String(),
	}
	if s.Winner != nil {
		data.Winner = s.Winner.String()
	}
	if opening != nil {
		data.Opening = &CounterTurnData{Count: openingCount(*opening, s)}
	}
	return data
}

// openingCount recovers how many pebbles the opening move took; a winning
// opening move is reported as a Won event with no count.
func openingCount(ev game.Event, s game.State) uint32 {
	if ev.Type == game.EventTypeCounterTurn {
		return ev.Count
	}
	return s.Config.PebblesCount - s.PebblesRemaining
}

// StateToGame converts a state payload back to a game.State.
func StateToGame(d StateData) (game.State, error) {
	cfg, err := ConfigFromData(d.Config)
	if err != nil {
		return game.State{}, err
	}
	first, err := game.ParsePlayer(d.FirstPlayer)
	if err != nil {
		return game.State{}, err
	}
	s := game.State{
		Config:           cfg,
		PebblesRemaining: d.PebblesRemaining,
		FirstPlayer:      first,
	}
	if d.Winner != "" {
		w, err := game.ParsePlayer(d.Winner)
		if err != nil {
			return game.State{}, err
		}
		s.Winner = &w
	}
	return s, nil
}

// EventMessage builds the reply message for an engine event.
func EventMessage(ev game.Event) (*Message, error) {
	switch ev.Type {
	case game.EventTypeCounterTurn:
		return NewMessage(TypeCounterTurn, CounterTurnData{Count: ev.Count})
	case game.EventTypeWon:
		return NewMessage(TypeWon, WonData{Winner: ev.Winner.String()})
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
}

// EventFromMessage decodes a counter_turn or won reply.
func EventFromMessage(m *Message) (game.Event, error) {
	switch m.Type {
	case TypeCounterTurn:
		var d CounterTurnData
		if err := m.Decode(&d); err != nil {
			return game.Event{}, err
		}
		return game.CounterTurn(d.Count), nil
	case TypeWon:
		var d WonData
		if err := m.Decode(&d); err != nil {
			return game.Event{}, err
		}
		p, err := game.ParsePlayer(d.Winner)
		if err != nil {
			return game.Event{}, err
		}
		return game.Won(p), nil
	default:
		return game.Event{}, fmt.Errorf("message %s is not an event", m.Type)
	}
}

// ErrorMessage builds an error reply for err.
func ErrorMessage(err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Code: CodeForError(err), Message: err.Error()})
}
