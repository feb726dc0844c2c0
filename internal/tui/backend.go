package tui

import (
	"context"
	"sync"

	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/protocol"
)

// Backend is whatever plays the automated side: an in-process engine or a
// remote server reached through *client.Client.
type Backend interface {
	Turn(ctx context.Context, n uint32) (game.Event, error)
	GiveUp(ctx context.Context) (game.Event, error)
	Restart(ctx context.Context, cfg game.Config) (protocol.StateData, error)
	State(ctx context.Context) (protocol.StateData, error)
}

// LocalBackend runs a game in-process.
type LocalBackend struct {
	mu     sync.Mutex
	engine *game.Engine
	gameID string
}

// NewLocalBackend wraps an engine. gameID is reported in snapshots and kept
// across restarts.
func NewLocalBackend(engine *game.Engine, gameID string) *LocalBackend {
	return &LocalBackend{engine: engine, gameID: gameID}
}

func (b *LocalBackend) Turn(_ context.Context, n uint32) (game.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.Turn(n)
}

func (b *LocalBackend) GiveUp(_ context.Context) (game.Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.GiveUp(), nil
}

func (b *LocalBackend) Restart(_ context.Context, cfg game.Config) (protocol.StateData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.engine.Restart(cfg); err != nil {
		return protocol.StateData{}, err
	}
	return b.snapshot(), nil
}

func (b *LocalBackend) State(_ context.Context) (protocol.StateData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot(), nil
}

func (b *LocalBackend) snapshot() protocol.StateData {
	var opening *game.Event
	if ev, ok := b.engine.OpeningEvent(); ok {
		opening = &ev
	}
	return protocol.StateFromGame(b.gameID, b.engine.State(), opening)
}
