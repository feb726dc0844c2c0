package server

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/pebbles/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// Connection is a websocket client together with the game session it owns.
type Connection struct {
	conn      *websocket.Conn
	send      chan *protocol.Message
	session   *Session
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	clock       quartz.Clock
	idleTimeout time.Duration
	idleMu      sync.Mutex
	idleTimer   *quartz.Timer
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, session *Session, clock quartz.Clock, idleTimeout time.Duration, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *protocol.Message, 16),
		session:     session,
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		clock:       clock,
		idleTimeout: idleTimeout,
	}
}

// Start begins handling the connection. The idle timer is armed before the
// first read.
func (c *Connection) Start() {
	if c.idleTimeout > 0 {
		c.idleMu.Lock()
		c.idleTimer = c.clock.AfterFunc(c.idleTimeout, c.expire)
		c.idleMu.Unlock()
	}

	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.idleMu.Lock()
		if c.idleTimer != nil {
			c.idleTimer.Stop()
		}
		c.idleMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *Connection) expire() {
	c.logger.Info("Closing idle session", "game", c.session.GameID(), "idle", c.idleTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "idle timeout"),
		time.Now().Add(writeWait))
	_ = c.Close()
}

func (c *Connection) touch() {
	c.idleMu.Lock()
	defer c.idleMu.Unlock()
	if c.idleTimer != nil {
		c.idleTimer.Reset(c.idleTimeout)
	}
}

// readPump reads requests and handles each to completion before reading the
// next one, so the session is only ever touched from this goroutine.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}
		c.touch()

		c.logger.Debug("Received message", "type", msg.Type, "game", c.session.GameID())
		reply := c.session.Handle(&msg)

		select {
		case c.send <- reply:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}
