// Package statistics aggregates simulated game results.
package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/pebbles/internal/game"
)

// GameResult is the outcome of a single simulated game.
type GameResult struct {
	Seed        int64       // RNG seed for this game (for replay)
	FirstPlayer game.Player // who moved first
	Winner      game.Player
	Moves       int // moves by both players, including any opening move
}

// FirstPlayerStats tracks games grouped by who moved first.
type FirstPlayerStats struct {
	Games     int
	HumanWins int
}

// Statistics tracks game lengths and win counts. The zero value is ready to
// use.
type Statistics struct {
	Games     int
	HumanWins int
	SumMoves  float64
	SumMoves2 float64   // Sum of squares for variance calculation
	Values    []float64 // Moves per game, kept for median/percentile calculation

	ByFirstPlayer [2]FirstPlayerStats // indexed by game.Player

	LongestGame int
	LongestSeed int64 // lowest seed among the longest games
}

// Add incorporates a game result.
func (s *Statistics) Add(r GameResult) {
	moves := float64(r.Moves)
	s.Games++
	s.SumMoves += moves
	s.SumMoves2 += moves * moves
	s.Values = append(s.Values, moves)

	if r.Winner == game.Human {
		s.HumanWins++
	}

	if fp := int(r.FirstPlayer); fp >= 0 && fp < len(s.ByFirstPlayer) {
		s.ByFirstPlayer[fp].Games++
		if r.Winner == game.Human {
			s.ByFirstPlayer[fp].HumanWins++
		}
	}

	s.trackLongest(r.Moves, r.Seed)
}

// Merge folds o into s. Results do not depend on merge order.
func (s *Statistics) Merge(o *Statistics) {
	s.Games += o.Games
	s.HumanWins += o.HumanWins
	s.SumMoves += o.SumMoves
	s.SumMoves2 += o.SumMoves2
	s.Values = append(s.Values, o.Values...)
	for i := range s.ByFirstPlayer {
		s.ByFirstPlayer[i].Games += o.ByFirstPlayer[i].Games
		s.ByFirstPlayer[i].HumanWins += o.ByFirstPlayer[i].HumanWins
	}
	if o.Games > 0 {
		s.trackLongest(o.LongestGame, o.LongestSeed)
	}
}

func (s *Statistics) trackLongest(moves int, seed int64) {
	if moves > s.LongestGame || (moves == s.LongestGame && (s.LongestGame == 0 || seed < s.LongestSeed)) {
		s.LongestGame = moves
		s.LongestSeed = seed
	}
}

// AutomatedWins returns the number of games the automated player won.
func (s *Statistics) AutomatedWins() int {
	return s.Games - s.HumanWins
}

// Mean returns the average number of moves per game
func (s *Statistics) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.SumMoves / float64(s.Games)
}

// Variance returns the sample variance of game length
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumMoves2 - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation of game length
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean game
// length.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// HumanWinRate returns the fraction of games won by the human side.
func (s *Statistics) HumanWinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.HumanWins) / float64(s.Games)
}

// WinRateInterval95 returns the Wilson score interval for the human win
// rate, clamped to [0, 1].
func (s *Statistics) WinRateInterval95() (float64, float64) {
	if s.Games == 0 {
		return 0, 0
	}
	const z = 1.96
	n := float64(s.Games)
	p := s.HumanWinRate()

	denom := 1 + z*z/n
	centre := (p + z*z/(2*n)) / denom
	margin := z * math.Sqrt(p*(1-p)/n+z*z/(4*n*n)) / denom
	return math.Max(0, centre-margin), math.Min(1, centre+margin)
}

// FirstPlayerWinRate returns the human win rate in games where p moved first.
func (s *Statistics) FirstPlayerWinRate(p game.Player) float64 {
	if int(p) < 0 || int(p) >= len(s.ByFirstPlayer) {
		return 0
	}
	fp := s.ByFirstPlayer[p]
	if fp.Games == 0 {
		return 0
	}
	return float64(fp.HumanWins) / float64(fp.Games)
}

// Median returns the median game length
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the game length at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sorted()

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s *Statistics) sorted() []float64 {
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	return sorted
}

// Validate checks that the counters agree with each other.
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}

	if len(s.Values) != s.Games {
		return fmt.Errorf("values array length (%d) does not match games count (%d)",
			len(s.Values), s.Games)
	}

	if s.HumanWins < 0 || s.HumanWins > s.Games {
		return fmt.Errorf("human wins (%d) outside [0, %d]", s.HumanWins, s.Games)
	}

	games, wins := 0, 0
	for _, fp := range s.ByFirstPlayer {
		games += fp.Games
		wins += fp.HumanWins
	}
	if games != s.Games {
		return fmt.Errorf("first player games total (%d) does not match total games (%d)", games, s.Games)
	}
	if wins != s.HumanWins {
		return fmt.Errorf("first player wins total (%d) does not match human wins (%d)", wins, s.HumanWins)
	}

	return nil
}
