package client

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/pebbles/internal/auth"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/protocol"
	"github.com/lox/pebbles/internal/randutil"
	"github.com/lox/pebbles/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newTestClient(t *testing.T, seed int64) (*Client, *server.Server) {
	t.Helper()
	srv := server.NewServer(testLogger(), server.WithRandSource(randutil.NewSeeded(seed)), server.WithIdleTimeout(0))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Stop()
		ts.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, ts.URL, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws"},
		{"https://example.com/", "wss://example.com/ws"},
		{"ws://localhost:8080/ws", "ws://localhost:8080/ws"},
		{"wss://example.com/custom", "wss://example.com/custom"},
	}
	for _, tt := range tests {
		got, err := WebSocketURL(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := WebSocketURL("ftp://example.com")
	assert.Error(t, err)
}

func TestClientPlaysToCompletion(t *testing.T) {
	c, srv := newTestClient(t, 3)
	ctx := testContext(t)

	st, err := c.Init(ctx, game.Config{PebblesCount: 12, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
	require.NoError(t, err)
	assert.Equal(t, st.GameID, c.GameID())
	assert.Equal(t, uint32(12), st.Config.PebblesCount)
	assert.Equal(t, "hard", st.Config.Difficulty)

	var last game.Event
	for i := 0; i < 12; i++ {
		last, err = c.Turn(ctx, 1)
		require.NoError(t, err)
		if last.Type == game.EventTypeWon {
			break
		}
		assert.Equal(t, game.EventTypeCounterTurn, last.Type)
	}
	// Hard play always hands the human a multiple of four.
	require.Equal(t, game.EventTypeWon, last.Type)
	assert.Equal(t, game.Automated, last.Winner)

	final, err := c.State(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), final.PebblesRemaining)
	assert.Equal(t, "finished", final.Phase)

	_, err = c.Turn(ctx, 1)
	require.Error(t, err)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, protocol.CodeGameOver, remote.Code)
	assert.ErrorIs(t, err, game.ErrGameOver)
	assert.ErrorIs(t, err, game.ErrInvalidTurn)

	assert.Equal(t, uint64(1), srv.Stats().GamesStarted)
}

func TestClientRemoteErrors(t *testing.T) {
	c, _ := newTestClient(t, 5)
	ctx := testContext(t)

	_, err := c.Turn(ctx, 1)
	assert.ErrorIs(t, err, protocol.ErrNoGame)

	_, err = c.Init(ctx, game.Config{PebblesCount: 3, MaxPebblesPerTurn: 5, Difficulty: game.Easy})
	assert.ErrorIs(t, err, game.ErrInvalidConfiguration)

	_, err = c.Init(ctx, game.Config{PebblesCount: 20, MaxPebblesPerTurn: 3, Difficulty: game.Easy})
	require.NoError(t, err)

	_, err = c.Turn(ctx, 4)
	assert.ErrorIs(t, err, game.ErrInvalidTurn)
	assert.False(t, errors.Is(err, game.ErrGameOver))
}

func TestClientGiveUpAndRestart(t *testing.T) {
	c, _ := newTestClient(t, 9)
	ctx := testContext(t)

	first, err := c.Init(ctx, game.Config{PebblesCount: 15, MaxPebblesPerTurn: 2, Difficulty: game.Easy})
	require.NoError(t, err)

	ev, err := c.GiveUp(ctx)
	require.NoError(t, err)
	assert.Equal(t, game.Won(game.Automated), ev)

	st, err := c.Restart(ctx, game.Config{PebblesCount: 35, MaxPebblesPerTurn: 5, Difficulty: game.Hard})
	require.NoError(t, err)
	assert.Equal(t, first.GameID, st.GameID)
	assert.Empty(t, st.Winner)
	assert.Equal(t, uint32(35), st.Config.PebblesCount)
	assert.Equal(t, uint32(5), st.Config.MaxPebblesPerTurn)
	if st.Opening == nil {
		assert.Equal(t, uint32(35), st.PebblesRemaining)
	} else {
		assert.Equal(t, uint32(35)-st.Opening.Count, st.PebblesRemaining)
	}
}

type tokenValidator string

func (v tokenValidator) Validate(_ context.Context, token string) (*auth.Identity, error) {
	if token != string(v) {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Identity{PlayerName: "tester"}, nil
}

func TestClientToken(t *testing.T) {
	srv := server.NewServer(testLogger(), server.WithAuth(tokenValidator("letmein"), false), server.WithIdleTimeout(0))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Stop()
		ts.Close()
	})
	ctx := testContext(t)

	_, err := Dial(ctx, ts.URL, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	c, err := Dial(ctx, ts.URL, testLogger(), WithToken("letmein"))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Init(ctx, game.Config{PebblesCount: 4, MaxPebblesPerTurn: 1, Difficulty: game.Hard})
	assert.NoError(t, err)
}

func TestClientClosedConnection(t *testing.T) {
	c, srv := newTestClient(t, 1)
	ctx := testContext(t)

	srv.Stop()

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client did not notice the closed connection")
	}

	_, err := c.State(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClientContextCancel(t *testing.T) {
	c, _ := newTestClient(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.State(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || errors.As(err, new(*RemoteError)))
}
