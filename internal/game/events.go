package game

import "fmt"

// EventType identifies the kind of outcome produced by an action.
type EventType string

const (
	EventTypeCounterTurn EventType = "counter_turn"
	EventTypeWon         EventType = "won"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is the outcome of a turn or a concession: either the automated
// player took Count pebbles, or Winner won.
type Event struct {
	Type   EventType
	Count  uint32
	Winner Player
}

// CounterTurn builds the event for an automated move that did not end the game.
func CounterTurn(n uint32) Event {
	return Event{Type: EventTypeCounterTurn, Count: n}
}

// Won builds the event announcing the winner.
func Won(p Player) Event {
	return Event{Type: EventTypeWon, Winner: p}
}

func (e Event) String() string {
	switch e.Type {
	case EventTypeCounterTurn:
		return fmt.Sprintf("automated took %d", e.Count)
	case EventTypeWon:
		return fmt.Sprintf("%s won", e.Winner)
	default:
		return string(e.Type)
	}
}

// Move is one applied move, kept in the engine history.
type Move struct {
	Player    Player
	Count     uint32
	Remaining uint32 // pile size after the move
}
