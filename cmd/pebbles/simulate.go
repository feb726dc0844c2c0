package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lox/pebbles/cmd/pebbles/shared"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/simulator"
)

// SimulateCmd runs automated self-play.
type SimulateCmd struct {
	Games       int    `kong:"default='1000',help='Number of games to play'"`
	Workers     int    `kong:"default='0',help='Worker goroutines (0 uses GOMAXPROCS)'"`
	Seed        *int64 `kong:"help='Base RNG seed (defaults to the current time)'"`
	Difficulty  string `kong:"default='hard',enum='easy,hard',help='Automated player difficulty (easy|hard)'"`
	HumanPolicy string `kong:"default='hard',enum='easy,hard',help='Policy playing the human side (easy|hard)'"`
	Pebbles     uint32 `kong:"default='15',help='Pebbles in the initial pile'"`
	Max         uint32 `kong:"default='2',help='Maximum pebbles per turn'"`
	Out         string `kong:"help='Write a JSON report to this file'"`
	Debug       bool   `kong:"help='Enable debug logging'"`
}

func (c *SimulateCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	opts, err := c.options()
	if err != nil {
		return err
	}
	opts.Logger = logger
	return c.run(ctx, opts, os.Stdout)
}

func (c *SimulateCmd) options() (simulator.Options, error) {
	d, err := game.ParseDifficulty(c.Difficulty)
	if err != nil {
		return simulator.Options{}, err
	}
	policy, err := game.ParseDifficulty(c.HumanPolicy)
	if err != nil {
		return simulator.Options{}, err
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}

	return simulator.Options{
		Games:       c.Games,
		Workers:     c.Workers,
		Seed:        seed,
		Config:      game.Config{PebblesCount: c.Pebbles, MaxPebblesPerTurn: c.Max, Difficulty: d},
		HumanPolicy: policy,
	}, nil
}

func (c *SimulateCmd) run(ctx context.Context, opts simulator.Options, out io.Writer) error {
	results, err := simulator.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Seed: %d\n", opts.Seed)
	fmt.Fprintf(out, "Config: %d pebbles, max %d per turn, %s vs %s human policy\n",
		opts.Config.PebblesCount, opts.Config.MaxPebblesPerTurn, opts.Config.Difficulty, opts.HumanPolicy)
	fmt.Fprint(out, results.String())

	if c.Out != "" {
		if err := simulator.WriteReport(c.Out, simulator.NewReport(opts, results, time.Now())); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", c.Out)
	}
	return nil
}
