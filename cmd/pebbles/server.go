package main

import (
	"fmt"

	"github.com/lox/pebbles/cmd/pebbles/shared"
	"github.com/lox/pebbles/internal/server"
)

// ServerCmd runs the websocket game server.
type ServerCmd struct {
	Config string `kong:"default='pebbles.hcl',help='Path to HCL config file (defaults apply if missing)'"`
	Addr   string `kong:"help='Listen address, overrides the config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", c.Config, err)
	}

	level, err := shared.ParseLevel(cfg.Server.LogLevel, c.Debug)
	if err != nil {
		return err
	}
	logger := shared.SetupLogger(c.Debug)
	logger.SetLevel(level)

	addr := cfg.Addr()
	if c.Addr != "" {
		addr = c.Addr
	}

	opts := []server.Option{
		server.WithIdleTimeout(cfg.IdleTimeoutDuration()),
		server.WithMaxSessions(cfg.Server.MaxSessions),
	}
	if v := cfg.AuthValidator(); v != nil {
		opts = append(opts, server.WithAuth(v, cfg.Auth.FailOpen))
		logger.Info("Player authentication enabled", "url", cfg.Auth.URL, "fail_open", cfg.Auth.FailOpen)
	}
	s := server.NewServer(logger, opts...)

	logger.Info("Starting pebbles server",
		"address", addr,
		"idle_timeout", cfg.IdleTimeoutDuration(),
		"max_sessions", cfg.Server.MaxSessions)

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	return s.ListenAndServe(ctx, addr)
}
