package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/protocol"
)

const writeWait = 10 * time.Second

// ErrClosed is returned for requests made after the connection has gone away.
var ErrClosed = errors.New("connection closed")

// RemoteError is an error reply from the server. It unwraps to the matching
// game sentinel, so errors.Is(err, game.ErrInvalidTurn) works across the wire.
type RemoteError struct {
	Code    protocol.Code
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server rejected request (%s): %s", e.Code, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.Code.Sentinel()
}

// Client plays one game against a pebbles server. Each call sends a single
// request and blocks until the reply carrying the same request ID arrives.
type Client struct {
	conn   *websocket.Conn
	logger *log.Logger

	writeMu sync.Mutex
	mu      sync.Mutex
	pending map[string]chan *protocol.Message
	nextID  atomic.Uint64
	gameID  string

	done      chan struct{}
	readErr   error
	closeOnce sync.Once
}

// DialOption configures the websocket handshake.
type DialOption func(http.Header)

// WithToken authenticates the connection with a bearer token.
func WithToken(token string) DialOption {
	return func(h http.Header) {
		if token != "" {
			h.Set("Authorization", "Bearer "+token)
		}
	}
}

// Dial connects to the server at serverURL. http(s) URLs are converted to
// ws(s) and an empty path becomes /ws.
func Dial(ctx context.Context, serverURL string, logger *log.Logger, opts ...DialOption) (*Client, error) {
	wsURL, err := WebSocketURL(serverURL)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	for _, opt := range opts {
		opt(header)
	}

	logger = logger.WithPrefix("client")
	logger.Info("Connecting to server", "url", wsURL)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to connect: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	c := &Client{
		conn:    conn,
		logger:  logger,
		pending: make(map[string]chan *protocol.Message),
		done:    make(chan struct{}),
	}
	go c.readPump()

	logger.Info("Connected to server")
	return c, nil
}

// WebSocketURL normalises a server address to the websocket endpoint.
func WebSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid server URL %q: unsupported scheme", serverURL)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

// Close shuts the connection down and fails any outstanding requests.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		c.writeMu.Unlock()
		err = c.conn.Close()
		<-c.done
		c.logger.Info("Disconnected from server")
	})
	return err
}

// Done is closed when the connection is lost.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// GameID returns the ID of the game started by Init, if any.
func (c *Client) GameID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID
}

// Init starts a game with cfg.
func (c *Client) Init(ctx context.Context, cfg game.Config) (protocol.StateData, error) {
	return c.stateRequest(ctx, protocol.TypeInit, protocol.ConfigData(cfg))
}

// Restart replaces the current game with a new one under cfg.
func (c *Client) Restart(ctx context.Context, cfg game.Config) (protocol.StateData, error) {
	return c.stateRequest(ctx, protocol.TypeRestart, protocol.ConfigData(cfg))
}

// State fetches a snapshot of the current game.
func (c *Client) State(ctx context.Context) (protocol.StateData, error) {
	return c.stateRequest(ctx, protocol.TypeGetState, nil)
}

// Turn takes n pebbles and returns the server's answer: the automated reply
// or the winner.
func (c *Client) Turn(ctx context.Context, n uint32) (game.Event, error) {
	return c.eventRequest(ctx, protocol.TypeTurn, protocol.TurnData{Count: n})
}

// GiveUp concedes the game.
func (c *Client) GiveUp(ctx context.Context) (game.Event, error) {
	return c.eventRequest(ctx, protocol.TypeGiveUp, nil)
}

func (c *Client) stateRequest(ctx context.Context, typ protocol.MessageType, data any) (protocol.StateData, error) {
	reply, err := c.request(ctx, typ, data)
	if err != nil {
		return protocol.StateData{}, err
	}
	if reply.Type != protocol.TypeState {
		return protocol.StateData{}, fmt.Errorf("unexpected %s reply to %s", reply.Type, typ)
	}

	var st protocol.StateData
	if err := reply.Decode(&st); err != nil {
		return protocol.StateData{}, err
	}

	c.mu.Lock()
	c.gameID = st.GameID
	c.mu.Unlock()
	return st, nil
}

func (c *Client) eventRequest(ctx context.Context, typ protocol.MessageType, data any) (game.Event, error) {
	reply, err := c.request(ctx, typ, data)
	if err != nil {
		return game.Event{}, err
	}
	return protocol.EventFromMessage(reply)
}

// request sends one message and waits for its reply. Error replies are
// returned as *RemoteError.
func (c *Client) request(ctx context.Context, typ protocol.MessageType, data any) (*protocol.Message, error) {
	msg, err := protocol.NewMessage(typ, data)
	if err != nil {
		return nil, err
	}
	msg.RequestID = strconv.FormatUint(c.nextID.Add(1), 10)

	ch := make(chan *protocol.Message, 1)
	c.mu.Lock()
	c.pending[msg.RequestID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
	}()

	if err := c.write(msg); err != nil {
		return nil, err
	}

	select {
	case reply := <-ch:
		if reply.Type == protocol.TypeError {
			var e protocol.ErrorData
			if err := reply.Decode(&e); err != nil {
				return nil, err
			}
			return nil, &RemoteError{Code: e.Code, Message: e.Message}
		}
		return reply, nil
	case <-c.done:
		return nil, c.closedErr()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) write(msg *protocol.Message) error {
	select {
	case <-c.done:
		return c.closedErr()
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	c.logger.Debug("Sent message", "type", msg.Type, "requestId", msg.RequestID)
	return nil
}

func (c *Client) closedErr() error {
	if c.readErr != nil {
		return fmt.Errorf("%w: %v", ErrClosed, c.readErr)
	}
	return ErrClosed
}

// readPump routes replies to their waiting requests.
func (c *Client) readPump() {
	defer close(c.done)

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			c.readErr = err
			return
		}

		c.logger.Debug("Received message", "type", msg.Type, "requestId", msg.RequestID)

		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("Dropping unsolicited message", "type", msg.Type)
			continue
		}
		ch <- &msg
	}
}
