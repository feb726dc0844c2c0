package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/pebbles/cmd/pebbles/shared"
	"github.com/lox/pebbles/internal/bot"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/gameid"
	"github.com/lox/pebbles/internal/randutil"
	"github.com/lox/pebbles/internal/tui"
)

// LocalCmd plays in-process without a server.
type LocalCmd struct {
	Difficulty string `kong:"default='easy',enum='easy,hard',help='Automated player difficulty (easy|hard)'"`
	Pebbles    uint32 `kong:"default='15',help='Pebbles in the initial pile'"`
	Max        uint32 `kong:"default='2',help='Maximum pebbles per turn'"`
	Seed       *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	LogFile    string `kong:"help='Write debug logs to this file'"`
	NoColor    bool   `kong:"help='Disable colour output'"`
}

func (c *LocalCmd) Run() error {
	d, err := game.ParseDifficulty(c.Difficulty)
	if err != nil {
		return err
	}
	cfg := game.Config{PebblesCount: c.Pebbles, MaxPebblesPerTurn: c.Max, Difficulty: d}

	logger, closeLog, err := shared.SetupFileLogger(c.LogFile, log.DebugLevel)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	src := randutil.Crypto()
	if c.Seed != nil {
		logger.Info("Using deterministic seed", "seed", *c.Seed)
		src = randutil.NewSeeded(*c.Seed)
	}

	engine, err := game.New(cfg, bot.NewWithLogger(src, logger), src, game.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("start game: %w", err)
	}
	id, err := gameid.NewGenerator(src, nil).Generate()
	if err != nil {
		return err
	}

	shared.ConfigureTerminal(c.NoColor)

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	return tui.Run(ctx, tui.NewLocalBackend(engine, id), logger)
}
