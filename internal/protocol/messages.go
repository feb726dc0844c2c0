// Package protocol defines the JSON messages exchanged between a pebbles
// client and server.
//
// Every frame is a Message envelope whose Data holds one of the payload
// types below. A request may carry a RequestID, which the server copies onto
// its reply.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the payload carried by a Message.
type MessageType string

const (
	// Client to server
	TypeInit     MessageType = "init"
	TypeTurn     MessageType = "turn"
	TypeGiveUp   MessageType = "give_up"
	TypeRestart  MessageType = "restart"
	TypeGetState MessageType = "get_state"

	// Server to client
	TypeState       MessageType = "state"
	TypeCounterTurn MessageType = "counter_turn"
	TypeWon         MessageType = "won"
	TypeError       MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message is the envelope for every frame on the wire.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp. A nil data
// produces an envelope with no payload.
func NewMessage(messageType MessageType, data any) (*Message, error) {
	msg := &Message{
		Type:      messageType,
		Timestamp: time.Now(),
	}
	if data == nil {
		return msg, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", messageType, err)
	}
	msg.Data = raw
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("%s message has no payload", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// Client → Server payloads

// GameConfigData is the payload of init and restart.
type GameConfigData struct {
	PebblesCount      uint32 `json:"pebblesCount"`
	MaxPebblesPerTurn uint32 `json:"maxPebblesPerTurn"`
	Difficulty        string `json:"difficulty"`
}

// TurnData is the payload of turn.
type TurnData struct {
	Count uint32 `json:"count"`
}

// Server → Client payloads

// StateData is a full game snapshot.
type StateData struct {
	GameID           string           `json:"gameId"`
	Config           GameConfigData   `json:"config"`
	PebblesRemaining uint32           `json:"pebblesRemaining"`
	FirstPlayer      string           `json:"firstPlayer"`
	Winner           string           `json:"winner,omitempty"`
	Phase            string           `json:"phase"`
	Opening          *CounterTurnData `json:"opening,omitempty"`
}

// CounterTurnData reports the automated player's move.
type CounterTurnData struct {
	Count uint32 `json:"count"`
}

// WonData announces the winner.
type WonData struct {
	Winner string `json:"winner"`
}

// ErrorData rejects a request.
type ErrorData struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}
