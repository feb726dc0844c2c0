package protocol

import (
	"errors"

	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/randutil"
)

// Code is a machine-readable error code carried by ErrorData.
type Code string

const (
	CodeInvalidMessage       Code = "invalid_message"
	CodeUnknownMessageType   Code = "unknown_message_type"
	CodeInvalidConfiguration Code = "invalid_configuration"
	CodeInvalidTurn          Code = "invalid_turn"
	CodeGameOver             Code = "game_over"
	CodeNoGame               Code = "no_game"
	CodeEntropyFailure       Code = "entropy_failure"
	CodeInternal             Code = "internal_error"
)

var (
	// ErrNoGame is returned for an action sent before init.
	ErrNoGame = errors.New("no game initialized")
	// ErrInvalidMessage is returned for a payload that does not decode.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrUnknownMessageType is returned for a request type the server does not handle.
	ErrUnknownMessageType = errors.New("unknown message type")
)

// CodeForError maps an engine error to its wire code.
func CodeForError(err error) Code {
	switch {
	case errors.Is(err, ErrInvalidMessage):
		return CodeInvalidMessage
	case errors.Is(err, ErrUnknownMessageType):
		return CodeUnknownMessageType
	case errors.Is(err, game.ErrInvalidConfiguration):
		return CodeInvalidConfiguration
	case errors.Is(err, game.ErrGameOver):
		return CodeGameOver
	case errors.Is(err, game.ErrInvalidTurn):
		return CodeInvalidTurn
	case errors.Is(err, ErrNoGame):
		return CodeNoGame
	case errors.Is(err, randutil.ErrEntropy):
		return CodeEntropyFailure
	default:
		return CodeInternal
	}
}

// Sentinel returns the error a code stands for, or nil when the code has no
// sentinel.
func (c Code) Sentinel() error {
	switch c {
	case CodeInvalidMessage:
		return ErrInvalidMessage
	case CodeUnknownMessageType:
		return ErrUnknownMessageType
	case CodeInvalidConfiguration:
		return game.ErrInvalidConfiguration
	case CodeGameOver:
		return game.ErrGameOver
	case CodeInvalidTurn:
		return game.ErrInvalidTurn
	case CodeNoGame:
		return ErrNoGame
	case CodeEntropyFailure:
		return randutil.ErrEntropy
	default:
		return nil
	}
}
