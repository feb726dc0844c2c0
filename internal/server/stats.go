package server

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/lox/pebbles/internal/game"
)

// Stats counts games across all sessions. It is safe for concurrent use.
type Stats struct {
	gamesStarted   atomic.Uint64
	humanWins      atomic.Uint64
	automatedWins  atomic.Uint64
	concessions    atomic.Uint64
	rejected       atomic.Uint64
	automatedFirst atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	ActiveSessions int
	GamesStarted   uint64
	HumanWins      uint64
	AutomatedWins  uint64
	Concessions    uint64
	Rejected       uint64
	AutomatedFirst uint64
}

// RecordStart counts a new or restarted game.
func (s *Stats) RecordStart(st game.State) {
	s.gamesStarted.Add(1)
	if st.FirstPlayer == game.Automated {
		s.automatedFirst.Add(1)
	}
	if st.Winner != nil {
		s.RecordWin(*st.Winner)
	}
}

// RecordWin counts a finished game.
func (s *Stats) RecordWin(p game.Player) {
	if p == game.Human {
		s.humanWins.Add(1)
	} else {
		s.automatedWins.Add(1)
	}
}

// RecordConcession counts a give-up. Concessions are automated wins too.
func (s *Stats) RecordConcession() {
	s.concessions.Add(1)
	s.automatedWins.Add(1)
}

// RecordRejected counts a request answered with an error.
func (s *Stats) RecordRejected() {
	s.rejected.Add(1)
}

// Snapshot copies the counters.
func (s *Stats) Snapshot(active int) StatsSnapshot {
	return StatsSnapshot{
		ActiveSessions: active,
		GamesStarted:   s.gamesStarted.Load(),
		HumanWins:      s.humanWins.Load(),
		AutomatedWins:  s.automatedWins.Load(),
		Concessions:    s.concessions.Load(),
		Rejected:       s.rejected.Load(),
		AutomatedFirst: s.automatedFirst.Load(),
	}
}

// String renders the snapshot for the /stats endpoint.
func (s StatsSnapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions: %d\n", s.ActiveSessions)
	fmt.Fprintf(&b, "Games started: %d\n", s.GamesStarted)
	fmt.Fprintf(&b, "Automated first: %d\n", s.AutomatedFirst)
	fmt.Fprintf(&b, "Human wins: %d\n", s.HumanWins)
	fmt.Fprintf(&b, "Automated wins: %d\n", s.AutomatedWins)
	fmt.Fprintf(&b, "Concessions: %d\n", s.Concessions)
	fmt.Fprintf(&b, "Rejected requests: %d\n", s.Rejected)
	return b.String()
}
