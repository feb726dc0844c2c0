package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/pebbles/internal/auth"
	"github.com/lox/pebbles/internal/protocol"
	"github.com/lox/pebbles/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerHealth(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	assert.Equal(t, "OK", w.Body.String())
}

func TestServerStatsEndpoint(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger())
	srv.stats.RecordConcession()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	srv.handleStats(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Active sessions: 0")
	assert.Contains(t, body, "Games started: 0")
	assert.Contains(t, body, "Concessions: 1")
	assert.Contains(t, body, "Automated wins: 1")
}

func startServer(t *testing.T, srv *Server) string {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Stop()
		ts.Close()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, typ protocol.MessageType, data any) *protocol.Message {
	t.Helper()
	require.NoError(t, conn.WriteJSON(request(t, typ, data)))

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply protocol.Message
	require.NoError(t, conn.ReadJSON(&reply))
	return &reply
}

func TestServerGameOverWebSocket(t *testing.T) {
	t.Parallel()
	// Human first; hard play needs no further draws. The game ID consumes
	// its own values from the seeded source.
	srv := NewServer(testLogger(), WithRandSource(randutil.NewSeeded(4)), WithIdleTimeout(0))
	conn := dial(t, startServer(t, srv))

	st := decodeState(t, roundTrip(t, conn, protocol.TypeInit,
		protocol.GameConfigData{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: "hard"}))
	require.Len(t, st.GameID, 26)

	for st.Winner == "" {
		reply := roundTrip(t, conn, protocol.TypeTurn, protocol.TurnData{Count: 1})
		require.NotEqual(t, protocol.TypeError, reply.Type, string(reply.Data))
		st = decodeState(t, roundTrip(t, conn, protocol.TypeGetState, nil))
	}

	assert.Equal(t, uint32(0), st.PebblesRemaining)
	assert.Equal(t, "finished", st.Phase)

	e := decodeError(t, roundTrip(t, conn, protocol.TypeTurn, protocol.TurnData{Count: 1}))
	assert.Equal(t, protocol.CodeGameOver, e.Code)

	snap := srv.Stats()
	assert.Equal(t, 1, snap.ActiveSessions)
	assert.Equal(t, uint64(1), snap.GamesStarted)
	assert.Equal(t, uint64(1), snap.HumanWins+snap.AutomatedWins)
}

func TestServerSessionsAreIndependent(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger(), WithRandSource(randutil.NewSeeded(11)), WithIdleTimeout(0))
	url := startServer(t, srv)

	a := dial(t, url)
	b := dial(t, url)

	stA := decodeState(t, roundTrip(t, a, protocol.TypeInit, protocol.GameConfigData{PebblesCount: 20, MaxPebblesPerTurn: 4, Difficulty: "easy"}))
	e := decodeError(t, roundTrip(t, b, protocol.TypeTurn, protocol.TurnData{Count: 1}))
	assert.Equal(t, protocol.CodeNoGame, e.Code)

	stB := decodeState(t, roundTrip(t, b, protocol.TypeInit, protocol.GameConfigData{PebblesCount: 9, MaxPebblesPerTurn: 2, Difficulty: "hard"}))
	assert.NotEqual(t, stA.GameID, stB.GameID)

	again := decodeState(t, roundTrip(t, a, protocol.TypeGetState, nil))
	assert.Equal(t, stA, again)
}

func TestServerIdleTimeout(t *testing.T) {
	t.Parallel()
	clock := quartz.NewMock(t)
	srv := NewServer(testLogger(), WithClock(clock), WithRandSource(randutil.NewSeeded(1)), WithIdleTimeout(30*time.Second))
	conn := dial(t, startServer(t, srv))

	// A reply proves the connection is started and its timer armed.
	decodeState(t, roundTrip(t, conn, protocol.TypeInit, protocol.GameConfigData{PebblesCount: 5, MaxPebblesPerTurn: 1, Difficulty: "hard"}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock.Advance(30 * time.Second).MustWait(ctx)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	require.Eventually(t, func() bool { return srv.ActiveSessions() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestServerMaxSessions(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger(), WithMaxSessions(1), WithIdleTimeout(0))
	url := startServer(t, srv)

	dial(t, url)
	require.Eventually(t, func() bool { return srv.ActiveSessions() == 1 }, 5*time.Second, 10*time.Millisecond)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

type fakeValidator struct {
	err error
}

func (v fakeValidator) Validate(_ context.Context, token string) (*auth.Identity, error) {
	if v.err != nil {
		return nil, v.err
	}
	if token != "secret" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Identity{PlayerID: "p-1", PlayerName: "ada"}, nil
}

func TestServerAuth(t *testing.T) {
	t.Parallel()
	srv := NewServer(testLogger(), WithAuth(fakeValidator{}, false), WithIdleTimeout(0))
	url := startServer(t, srv)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{"Authorization": []string{"Bearer secret"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	st := decodeState(t, roundTrip(t, conn, protocol.TypeInit, protocol.GameConfigData{PebblesCount: 5, MaxPebblesPerTurn: 2, Difficulty: "easy"}))
	assert.NotEmpty(t, st.GameID)

	q, _, err := websocket.DefaultDialer.Dial(url+"?token=secret", nil)
	require.NoError(t, err)
	_ = q.Close()
}

func TestServerAuthUnavailable(t *testing.T) {
	t.Parallel()
	down := fakeValidator{err: auth.ErrUnavailable}

	closed := NewServer(testLogger(), WithAuth(down, false), WithIdleTimeout(0))
	_, resp, err := websocket.DefaultDialer.Dial(startServer(t, closed), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	open := NewServer(testLogger(), WithAuth(down, true), WithIdleTimeout(0))
	conn, _, err := websocket.DefaultDialer.Dial(startServer(t, open), nil)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestServeAndShutdown(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, WaitForHealthy(waitCtx, "ws://"+ln.Addr().String()+"/ws"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestHTTPURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", HTTPURL("ws://localhost:8080/ws"))
	assert.Equal(t, "https://example.com", HTTPURL("wss://example.com"))
	assert.Equal(t, "http://localhost:1", HTTPURL("http://localhost:1"))
}
