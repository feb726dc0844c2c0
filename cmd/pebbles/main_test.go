package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/lox/pebbles/internal/client"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("pebbles"), kong.Vars{"version": "test"}, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestParseLocalDefaults(t *testing.T) {
	cli, ctx := parse(t, "local")
	assert.Equal(t, "local", ctx.Command())
	assert.Equal(t, "easy", cli.Local.Difficulty)
	assert.Equal(t, uint32(15), cli.Local.Pebbles)
	assert.Equal(t, uint32(2), cli.Local.Max)
	assert.Nil(t, cli.Local.Seed)
}

func TestParseRejectsUnknownDifficulty(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = parser.Parse([]string{"local", "--difficulty", "medium"})
	assert.Error(t, err)
}

func TestSimulateCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.json")
	cli, _ := parse(t, "simulate", "--games", "50", "--seed", "9", "--pebbles", "16", "--max", "3", "--out", out)

	opts, err := cli.Simulate.options()
	require.NoError(t, err)
	assert.Equal(t, int64(9), opts.Seed)
	assert.Equal(t, game.Config{PebblesCount: 16, MaxPebblesPerTurn: 3, Difficulty: game.Hard}, opts.Config)
	assert.Equal(t, game.Hard, opts.HumanPolicy)

	opts.Logger = log.New(io.Discard)
	var buf bytes.Buffer
	require.NoError(t, cli.Simulate.run(context.Background(), opts, &buf))

	assert.Contains(t, buf.String(), "Seed: 9")
	assert.Contains(t, buf.String(), "Games: 50")
	assert.Contains(t, buf.String(), "Report written to "+out)

	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestPlayOverrides(t *testing.T) {
	cmd := PlayCmd{URL: "http://example.com:9000", Difficulty: "hard", Pebbles: 35, Max: 5}
	cfg := client.DefaultConfig()
	cmd.applyOverrides(cfg)
	require.NoError(t, cfg.Validate())

	gc, err := cfg.GameConfig()
	require.NoError(t, err)
	assert.Equal(t, game.Config{PebblesCount: 35, MaxPebblesPerTurn: 5, Difficulty: game.Hard}, gc)
	assert.Equal(t, "http://example.com:9000", cfg.Server.URL)
}

func TestConnectWaitsForHealthyServer(t *testing.T) {
	logger := log.New(io.Discard)
	ts := httptest.NewServer(server.NewServer(logger).Handler())
	defer ts.Close()

	cfg := client.DefaultConfig()
	cfg.Server.URL = ts.URL
	conn, err := connect(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer conn.Close()

	st, err := conn.Init(context.Background(), game.Config{PebblesCount: 15, MaxPebblesPerTurn: 2, Difficulty: game.Easy})
	require.NoError(t, err)
	assert.Equal(t, uint32(15), st.Config.PebblesCount)
}

func TestConnectFailsWhenServerDown(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	cfg := client.DefaultConfig()
	cfg.Server.URL = url
	cfg.Server.ConnectTimeout = 1

	_, err := connect(context.Background(), cfg, log.New(io.Discard))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not healthy")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
