package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/pebbles/cmd/pebbles/shared"
	"github.com/lox/pebbles/internal/client"
	"github.com/lox/pebbles/internal/server"
	"github.com/lox/pebbles/internal/tui"
)

// PlayCmd connects the terminal UI to a remote server.
type PlayCmd struct {
	Config     string `kong:"default='pebbles-client.hcl',help='Path to HCL client config file'"`
	URL        string `kong:"help='Server URL, overrides the config file'"`
	Token      string `kong:"env='PEBBLES_TOKEN',help='Auth token, overrides the config file'"`
	Difficulty string `kong:"help='easy or hard, overrides the config file'"`
	Pebbles    uint32 `kong:"help='Pebbles in the initial pile, overrides the config file'"`
	Max        uint32 `kong:"help='Maximum pebbles per turn, overrides the config file'"`
	NoColor    bool   `kong:"help='Disable colour output'"`
}

func (c *PlayCmd) Run() error {
	cfg, err := client.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	c.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	gameCfg, err := cfg.GameConfig()
	if err != nil {
		return err
	}

	level, err := shared.ParseLevel(cfg.UI.LogLevel, false)
	if err != nil {
		return err
	}
	logger, closeLog, err := shared.SetupFileLogger(cfg.UI.LogFile, level)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	shared.ConfigureTerminal(c.NoColor)

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	conn, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	initCtx, initCancel := context.WithTimeout(ctx, cfg.RequestTimeoutDuration())
	defer initCancel()
	if _, err := conn.Init(initCtx, gameCfg); err != nil {
		return fmt.Errorf("start game: %w", err)
	}

	return tui.Run(ctx, conn, logger)
}

// connect waits for the server's health check and then opens the websocket,
// both within the configured connect timeout.
func connect(ctx context.Context, cfg *client.Config, logger *log.Logger) (*client.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeoutDuration())
	defer cancel()

	logger.Debug("Waiting for server", "url", cfg.Server.URL)
	if err := server.WaitForHealthy(ctx, cfg.Server.URL); err != nil {
		return nil, fmt.Errorf("server %s not healthy: %w", server.HTTPURL(cfg.Server.URL), err)
	}
	return client.Dial(ctx, cfg.Server.URL, logger, client.WithToken(cfg.Server.Token))
}

func (c *PlayCmd) applyOverrides(cfg *client.Config) {
	if c.URL != "" {
		cfg.Server.URL = c.URL
	}
	if c.Token != "" {
		cfg.Server.Token = c.Token
	}
	if c.Difficulty != "" {
		cfg.Game.Difficulty = c.Difficulty
	}
	if c.Pebbles != 0 {
		cfg.Game.PebblesCount = int(c.Pebbles)
	}
	if c.Max != 0 {
		cfg.Game.MaxPebblesPerTurn = int(c.Max)
	}
}
