package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/pebbles/internal/auth"
	"github.com/lox/pebbles/internal/bot"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/gameid"
	"github.com/lox/pebbles/internal/randutil"
	"golang.org/x/sync/errgroup"
)

// Option configures a Server.
type Option func(*Server)

// WithClock sets the clock used for idle timeouts and game IDs.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithRandSource sets the random source shared by every game. It must be
// safe for concurrent use.
func WithRandSource(src randutil.Source) Option {
	return func(s *Server) { s.src = src }
}

// WithIdleTimeout closes sessions that send nothing for d. Zero disables it.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idleTimeout = d }
}

// WithAuth requires players to present a token accepted by v. With failOpen
// set, connections are allowed when the validator is unavailable.
func WithAuth(v auth.Validator, failOpen bool) Option {
	return func(s *Server) {
		if v != nil {
			s.validator = v
		}
		s.authFailOpen = failOpen
	}
}

// WithMaxSessions caps concurrent connections. Zero means unlimited.
func WithMaxSessions(n int) Option {
	return func(s *Server) { s.maxSessions = n }
}

// Server hosts pebble games over websocket. Each connection owns one game.
type Server struct {
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	mu          sync.RWMutex
	logger      *log.Logger

	clock       quartz.Clock
	src         randutil.Source
	ids         *gameid.Generator
	idleTimeout time.Duration
	maxSessions int
	stats       Stats

	validator    auth.Validator
	authFailOpen bool
}

// NewServer creates a new websocket server.
func NewServer(logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		clock:       quartz.NewReal(),
		src:         randutil.Crypto(),
		idleTimeout: 5 * time.Minute,
		validator:   auth.NewNoopValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = gameid.NewGenerator(s.src, s.clock)
	return s
}

// Handler returns the HTTP handler serving /ws, /health and /stats.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Starting WebSocket server", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Stop closes every open connection.
func (s *Server) Stop() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close() // Ignore close errors during shutdown
	}
}

// Stats returns a snapshot of the server counters.
func (s *Server) Stats() StatsSnapshot {
	return s.stats.Snapshot(s.ActiveSessions())
}

// ActiveSessions returns the number of open connections.
func (s *Server) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.connections)
}

// newEngine builds a game for a session. Strategist and engine share the
// server's random source.
func (s *Server) newEngine(cfg game.Config) (*game.Engine, error) {
	return game.New(cfg, bot.NewWithLogger(s.src, s.logger), s.src, game.WithLogger(s.logger))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.maxSessions > 0 && s.ActiveSessions() >= s.maxSessions {
		s.logger.Warn("Rejecting connection, session limit reached", "max", s.maxSessions)
		http.Error(w, "too many sessions", http.StatusServiceUnavailable)
		return
	}

	logger, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	session := NewSession(s.newEngine, s.ids.Generate, &s.stats, logger)
	conn := NewConnection(ws, session, s.clock, s.idleTimeout, logger)

	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)

	conn.Start()

	go func() {
		<-conn.Done()
		s.mu.Lock()
		delete(s.connections, conn)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("Client disconnected", "game", session.GameID(), "total", total)
	}()
}

// authenticate validates the handshake token and returns the logger for the
// session. It writes the HTTP error itself when the connection is refused.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*log.Logger, bool) {
	identity, err := s.validator.Validate(r.Context(), auth.TokenFromRequest(r))
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrUnavailable) && s.authFailOpen:
		s.logger.Warn("Auth unavailable, allowing connection", "error", err)
		return s.logger, true
	case errors.Is(err, auth.ErrInvalidToken):
		s.logger.Info("Rejecting connection with invalid token", "remote", r.RemoteAddr)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return nil, false
	default:
		s.logger.Error("Auth check failed", "error", err)
		http.Error(w, "authentication unavailable", http.StatusServiceUnavailable)
		return nil, false
	}

	if identity == nil {
		return s.logger, true
	}
	s.logger.Debug("Player authenticated", "player", identity.PlayerName, "id", identity.PlayerID)
	return s.logger.With("player", identity.PlayerName), true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, s.Stats().String())
}
