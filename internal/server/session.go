package server

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/protocol"
)

// EngineFactory creates the engine for an init request.
type EngineFactory func(cfg game.Config) (*game.Engine, error)

// IDFactory names a new game.
type IDFactory func() (string, error)

// Session holds the game owned by one connection. It processes one message
// at a time and is not safe for concurrent use.
type Session struct {
	engine    *game.Engine
	gameID    string
	newEngine EngineFactory
	newID     IDFactory
	stats     *Stats
	logger    *log.Logger
}

// NewSession creates a session with no game.
func NewSession(newEngine EngineFactory, newID IDFactory, stats *Stats, logger *log.Logger) *Session {
	if stats == nil {
		stats = &Stats{}
	}
	return &Session{
		newEngine: newEngine,
		newID:     newID,
		stats:     stats,
		logger:    logger.WithPrefix("session"),
	}
}

// GameID returns the current game's ID, empty before init.
func (s *Session) GameID() string {
	return s.gameID
}

// Handle applies a request and returns the reply. Every request gets exactly
// one reply; a rejected request leaves the game as it was.
func (s *Session) Handle(msg *protocol.Message) *protocol.Message {
	reply, err := s.dispatch(msg)
	if err != nil {
		s.stats.RecordRejected()
		s.logger.Warn("Request rejected", "type", msg.Type, "game", s.gameID, "error", err)
		reply = s.errorReply(err)
	}
	reply.RequestID = msg.RequestID
	return reply
}

func (s *Session) dispatch(msg *protocol.Message) (*protocol.Message, error) {
	switch msg.Type {
	case protocol.TypeInit:
		var data protocol.GameConfigData
		if err := msg.Decode(&data); err != nil {
			return nil, fmt.Errorf("%w: %v", protocol.ErrInvalidMessage, err)
		}
		return s.handleInit(data)

	case protocol.TypeTurn:
		var data protocol.TurnData
		if err := msg.Decode(&data); err != nil {
			return nil, fmt.Errorf("%w: %v", protocol.ErrInvalidMessage, err)
		}
		return s.handleTurn(data)

	case protocol.TypeGiveUp:
		return s.handleGiveUp()

	case protocol.TypeRestart:
		var data protocol.GameConfigData
		if err := msg.Decode(&data); err != nil {
			return nil, fmt.Errorf("%w: %v", protocol.ErrInvalidMessage, err)
		}
		return s.handleRestart(data)

	case protocol.TypeGetState:
		if s.engine == nil {
			return nil, protocol.ErrNoGame
		}
		return s.stateReply()

	default:
		return nil, fmt.Errorf("%w: %s", protocol.ErrUnknownMessageType, msg.Type)
	}
}

func (s *Session) handleInit(data protocol.GameConfigData) (*protocol.Message, error) {
	cfg, err := protocol.ConfigFromData(data)
	if err != nil {
		return nil, err
	}
	engine, err := s.newEngine(cfg)
	if err != nil {
		return nil, err
	}
	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	s.engine = engine
	s.gameID = id
	s.stats.RecordStart(engine.State())
	s.logger.Info("Game initialized", "game", id, "pebbles", cfg.PebblesCount,
		"maxPerTurn", cfg.MaxPebblesPerTurn, "difficulty", cfg.Difficulty)

	return s.stateReply()
}

func (s *Session) handleTurn(data protocol.TurnData) (*protocol.Message, error) {
	if s.engine == nil {
		return nil, protocol.ErrNoGame
	}
	ev, err := s.engine.Turn(data.Count)
	if err != nil {
		return nil, err
	}
	if ev.Type == game.EventTypeWon {
		s.stats.RecordWin(ev.Winner)
	}
	return protocol.EventMessage(ev)
}

func (s *Session) handleGiveUp() (*protocol.Message, error) {
	if s.engine == nil {
		return nil, protocol.ErrNoGame
	}
	ev := s.engine.GiveUp()
	s.stats.RecordConcession()
	return protocol.EventMessage(ev)
}

// handleRestart keeps the game ID: the same game value is reset in place.
func (s *Session) handleRestart(data protocol.GameConfigData) (*protocol.Message, error) {
	if s.engine == nil {
		return nil, protocol.ErrNoGame
	}
	cfg, err := protocol.ConfigFromData(data)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Restart(cfg); err != nil {
		return nil, err
	}
	s.stats.RecordStart(s.engine.State())
	s.logger.Info("Game restarted", "game", s.gameID, "pebbles", cfg.PebblesCount,
		"maxPerTurn", cfg.MaxPebblesPerTurn, "difficulty", cfg.Difficulty)
	return s.stateReply()
}

func (s *Session) stateReply() (*protocol.Message, error) {
	var opening *game.Event
	if ev, ok := s.engine.OpeningEvent(); ok {
		opening = &ev
	}
	return protocol.NewMessage(protocol.TypeState, protocol.StateFromGame(s.gameID, s.engine.State(), opening))
}

func (s *Session) errorReply(err error) *protocol.Message {
	reply, mErr := protocol.ErrorMessage(err)
	if mErr != nil {
		// ErrorData always marshals; keep a payload-less envelope as a last resort.
		return &protocol.Message{Type: protocol.TypeError}
	}
	return reply
}
