// Package simulator plays batches of games between a scripted human policy
// and the automated player to measure how each difficulty performs.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/pebbles/internal/bot"
	"github.com/lox/pebbles/internal/fileutil"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/randutil"
	"github.com/lox/pebbles/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// Options holds configuration for a simulation run.
type Options struct {
	Games       int
	Workers     int // defaults to GOMAXPROCS
	Seed        int64
	Config      game.Config     // the automated player's difficulty is Config.Difficulty
	HumanPolicy game.Difficulty // policy used to pick the human side's moves
	Logger      *log.Logger
}

// Validate checks the options before a run.
func (o Options) Validate() error {
	if o.Games < 1 {
		return fmt.Errorf("games must be positive, got %d", o.Games)
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.HumanPolicy != game.Easy && o.HumanPolicy != game.Hard {
		return fmt.Errorf("%w: human policy %s", bot.ErrUnknownDifficulty, o.HumanPolicy)
	}
	return nil
}

// Results summarises a run. Every field is independent of the number of
// workers.
type Results struct {
	Games          int     `json:"games"`
	HumanWins      int     `json:"humanWins"`
	AutomatedWins  int     `json:"automatedWins"`
	AutomatedFirst int     `json:"automatedFirst"`
	Moves          int     `json:"moves"`
	MeanMoves      float64 `json:"meanMoves"`
	MedianMoves    float64 `json:"medianMoves"`
	LongestGame    int     `json:"longestGame"`
	LongestSeed    int64   `json:"longestSeed"`
	HumanWinLow    float64 `json:"humanWinLow"`
	HumanWinHigh   float64 `json:"humanWinHigh"`
}

func resultsFrom(s *statistics.Statistics) Results {
	lo, hi := s.WinRateInterval95()
	return Results{
		Games:          s.Games,
		HumanWins:      s.HumanWins,
		AutomatedWins:  s.AutomatedWins(),
		AutomatedFirst: s.ByFirstPlayer[game.Automated].Games,
		Moves:          int(s.SumMoves),
		MeanMoves:      s.Mean(),
		MedianMoves:    s.Median(),
		LongestGame:    s.LongestGame,
		LongestSeed:    s.LongestSeed,
		HumanWinLow:    lo,
		HumanWinHigh:   hi,
	}
}

// HumanWinRate returns the fraction of games won by the human side.
func (r Results) HumanWinRate() float64 {
	if r.Games == 0 {
		return 0
	}
	return float64(r.HumanWins) / float64(r.Games)
}

// String renders the results for terminal output.
func (r Results) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Games: %d\n", r.Games)
	fmt.Fprintf(&b, "Human wins: %d (%.1f%%, 95%% CI %.1f%%-%.1f%%)\n",
		r.HumanWins, 100*r.HumanWinRate(), 100*r.HumanWinLow, 100*r.HumanWinHigh)
	fmt.Fprintf(&b, "Automated wins: %d\n", r.AutomatedWins)
	fmt.Fprintf(&b, "Automated moved first: %d\n", r.AutomatedFirst)
	if r.Games > 0 {
		fmt.Fprintf(&b, "Moves per game: mean %.1f, median %.1f, longest %d (seed %d)\n",
			r.MeanMoves, r.MedianMoves, r.LongestGame, r.LongestSeed)
	}
	return b.String()
}

// Run plays opts.Games games across worker goroutines. Game i is seeded with
// opts.Seed+i, so a run is reproducible for a given seed.
func Run(ctx context.Context, opts Options) (Results, error) {
	if err := opts.Validate(); err != nil {
		return Results{}, err
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, opts.Games)

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("simulator")

	start := time.Now()
	logger.Info("Starting simulation",
		"games", opts.Games,
		"workers", workers,
		"seed", opts.Seed,
		"difficulty", opts.Config.Difficulty,
		"humanPolicy", opts.HumanPolicy)

	g, ctx := errgroup.WithContext(ctx)
	partials := make(chan *statistics.Statistics, workers)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			local := &statistics.Statistics{}
			for i := w; i < opts.Games; i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := playGame(opts, opts.Seed+int64(i))
				if err != nil {
					return fmt.Errorf("game %d (seed %d): %w", i, opts.Seed+int64(i), err)
				}
				local.Add(r)
			}

			select {
			case partials <- local:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	go func() {
		defer close(partials)
		_ = g.Wait()
	}()

	stats := &statistics.Statistics{}
	for p := range partials {
		stats.Merge(p)
	}

	if err := g.Wait(); err != nil {
		return Results{}, err
	}
	if err := stats.Validate(); err != nil {
		return Results{}, fmt.Errorf("statistics validation failed: %w", err)
	}

	logger.Info("Simulation complete",
		"games", stats.Games,
		"humanWins", stats.HumanWins,
		"meanMoves", stats.Mean(),
		"duration", time.Since(start).Round(time.Millisecond))
	return resultsFrom(stats), nil
}

// playGame plays one game to completion.
func playGame(opts Options, seed int64) (statistics.GameResult, error) {
	src := randutil.NewSeeded(seed)
	engine, err := game.New(opts.Config, bot.New(src), src)
	if err != nil {
		return statistics.GameResult{}, err
	}

	r := statistics.GameResult{Seed: seed, FirstPlayer: engine.State().FirstPlayer}
	for {
		st := engine.State()
		if st.Winner != nil {
			r.Winner = *st.Winner
			r.Moves = len(engine.History())
			return r, nil
		}

		n, err := humanMove(src, st, opts.HumanPolicy)
		if err != nil {
			return statistics.GameResult{}, err
		}
		if _, err := engine.Turn(n); err != nil {
			return statistics.GameResult{}, err
		}
	}
}

func humanMove(src randutil.Source, st game.State, policy game.Difficulty) (uint32, error) {
	switch policy {
	case game.Easy:
		return bot.EasyMove(src, st.PebblesRemaining, st.Config.MaxPebblesPerTurn)
	case game.Hard:
		return bot.HardMove(st.PebblesRemaining, st.Config.MaxPebblesPerTurn), nil
	default:
		return 0, errors.New("unknown human policy")
	}
}

// Report is the JSON document written by WriteReport.
type Report struct {
	Seed              int64     `json:"seed"`
	PebblesCount      uint32    `json:"pebblesCount"`
	MaxPebblesPerTurn uint32    `json:"maxPebblesPerTurn"`
	Difficulty        string    `json:"difficulty"`
	HumanPolicy       string    `json:"humanPolicy"`
	Results           Results   `json:"results"`
	HumanWinRate      float64   `json:"humanWinRate"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// NewReport builds a report for a completed run.
func NewReport(opts Options, r Results, at time.Time) Report {
	return Report{
		Seed:              opts.Seed,
		PebblesCount:      opts.Config.PebblesCount,
		MaxPebblesPerTurn: opts.Config.MaxPebblesPerTurn,
		Difficulty:        opts.Config.Difficulty.String(),
		HumanPolicy:       opts.HumanPolicy.String(),
		Results:           r,
		HumanWinRate:      r.HumanWinRate(),
		GeneratedAt:       at.UTC(),
	}
}

// WriteReport writes report to path atomically.
func WriteReport(path string, report Report) error {
	if err := fileutil.WriteJSONAtomic(path, report, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

